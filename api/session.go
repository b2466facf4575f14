package api

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeTimeout = 10 * time.Second

// Session is one connected client. It holds no task data of its own; it
// exists only as a broadcast target. Outbound frames go through a buffered
// queue drained by a dedicated writer goroutine so a slow client never stalls
// the store or delivery to other clients.
type Session struct {
	id   string
	conn *websocket.Conn
	out  chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn) *Session {
	return &Session{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan []byte, envInt("SESSION_BUFFER", 16)),
		done: make(chan struct{}),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// enqueue hands a frame to the writer. When the buffer is full the oldest
// pending frame is dropped to make room: snapshots are whole-state, so a
// session that misses an intermediate one still converges on the next.
func (s *Session) enqueue(data []byte) {
	for {
		select {
		case <-s.done:
			return
		case s.out <- data:
			return
		default:
		}
		select {
		case <-s.out:
		default:
		}
	}
}

// writeLoop pumps queued frames to the connection. A write failure tears down
// this session only.
func (s *Session) writeLoop(onError func(*Session)) {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.WithField("session", s.id).Debugf("write failed: %v", err)
				if onError != nil {
					onError(s)
				}
				return
			}
		}
	}
}

// close stops the writer and closes the connection. Safe to call more than
// once.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
