package storage

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/rexysans/websocket-kanban-vitest-playwright-2026/domain"
)

const (
	// DefaultMirrorKey is the redis key holding the latest snapshot.
	DefaultMirrorKey = "board:tasks"
	// DefaultMirrorChannel is the pub/sub channel snapshots are announced on.
	DefaultMirrorChannel = "board:updates"
)

// Mirror copies every broadcast snapshot into redis so consumers outside the
// process can follow the board without holding a WebSocket. The in-memory
// store stays authoritative; a mirror failure is logged and never fails the
// mutation that triggered it.
type Mirror struct {
	redis   *redis.Client
	key     string
	channel string
}

// NewMirror creates a mirror writing to the given key and pub/sub channel.
// Empty key or channel fall back to the defaults.
func NewMirror(client *redis.Client, key, channel string) *Mirror {
	if key == "" {
		key = DefaultMirrorKey
	}
	if channel == "" {
		channel = DefaultMirrorChannel
	}
	return &Mirror{redis: client, key: key, channel: channel}
}

// Publish stores the snapshot under the mirror key and announces it on the
// updates channel.
func (m *Mirror) Publish(ctx context.Context, tasks []domain.Task) {
	if m == nil || m.redis == nil {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		log.Errorf("mirror: marshal snapshot: %v", err)
		return
	}
	if err := m.redis.Set(ctx, m.key, data, 0).Err(); err != nil {
		log.Errorf("mirror: cache snapshot: %v", err)
	}
	if err := m.redis.Publish(ctx, m.channel, data).Err(); err != nil {
		log.Errorf("mirror: publish snapshot: %v", err)
	}
}
