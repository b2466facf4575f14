package api

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// frameMetrics accumulates per-frame observations and emits them as one
// structured log line after the frame has been handled.
type frameMetrics struct {
	logger         *log.Logger
	start          time.Time
	event          string
	errorStage     string
	tasksBroadcast int
	broadcast      bool
}

func newFrameMetrics(logger *log.Logger) *frameMetrics {
	return &frameMetrics{
		logger: logger,
		start:  time.Now(),
	}
}

func (m *frameMetrics) SetEvent(event string) {
	m.event = event
}

func (m *frameMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *frameMetrics) SetTasksBroadcast(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksBroadcast = count
	m.broadcast = true
}

func (m *frameMetrics) Log(err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"event":    m.event,
		"total_ms": durationToMillis(time.Since(m.start)),
	}
	if m.broadcast {
		fields["tasks_broadcast"] = m.tasksBroadcast
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Debug("board.frame.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
