// Package obslog carries SAIL's logging and metrics adapters: a
// log/slog-backed Logger and an in-memory MetricsCollector, grounded
// directly on the teacher's hooks.SlogLogger and hooks.InMemoryMetrics.
// The teacher's Hook interface was keyed to pipeline steps
// (BeforeStep/AfterStep); SAIL has no pipeline, so Hook here is keyed to
// session lifecycle events instead (spec §4.7's start/next_frame/stop).
package obslog

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is SAIL's minimal structured logging interface, unchanged in
// shape from the teacher's core.Logger.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

// SlogLogger wraps the standard library slog.Logger to satisfy Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{log: l}
}

func (s *SlogLogger) Debug(msg string, fields ...any) { s.log.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...any)  { s.log.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...any)  { s.log.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...any) { s.log.Error(msg, fields...) }

// NoopLogger discards everything; used as the session layer's default
// when a caller does not inject a Logger.
type NoopLogger struct{}

func (NoopLogger) Debug(string, ...any) {}
func (NoopLogger) Info(string, ...any)  {}
func (NoopLogger) Warn(string, ...any)  {}
func (NoopLogger) Error(string, ...any) {}

// MetricsCollector receives performance observations from session
// lifecycle events, adapted from the teacher's core.MetricsCollector.
type MetricsCollector interface {
	RecordSessionOpen(codec string)
	RecordSessionClose(codec string, d time.Duration, err error)
	RecordFrame(codec string, bytes int64)
}

// InMemoryMetrics accumulates metrics atomically; safe for concurrent
// use across sessions, grounded on hooks.InMemoryMetrics.
type InMemoryMetrics struct {
	mu sync.RWMutex

	opens       map[string]int64
	closes      map[string]int64
	closeErrors map[string]int64
	durationsMs map[string]int64
	frameCount  map[string]int64
	bytesMoved  int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		opens:       make(map[string]int64),
		closes:      make(map[string]int64),
		closeErrors: make(map[string]int64),
		durationsMs: make(map[string]int64),
		frameCount:  make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordSessionOpen(codec string) {
	m.mu.Lock()
	m.opens[codec]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordSessionClose(codec string, d time.Duration, err error) {
	m.mu.Lock()
	m.closes[codec]++
	m.durationsMs[codec] += d.Milliseconds()
	if err != nil {
		m.closeErrors[codec]++
	}
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordFrame(codec string, bytes int64) {
	m.mu.Lock()
	m.frameCount[codec]++
	m.mu.Unlock()
	atomic.AddInt64(&m.bytesMoved, bytes)
}

// Snapshot is an immutable point-in-time copy of metrics.
type Snapshot struct {
	Opens       map[string]int64
	Closes      map[string]int64
	CloseErrors map[string]int64
	DurationsMs map[string]int64
	FrameCount  map[string]int64
	BytesMoved  int64
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := Snapshot{
		Opens:       make(map[string]int64, len(m.opens)),
		Closes:      make(map[string]int64, len(m.closes)),
		CloseErrors: make(map[string]int64, len(m.closeErrors)),
		DurationsMs: make(map[string]int64, len(m.durationsMs)),
		FrameCount:  make(map[string]int64, len(m.frameCount)),
		BytesMoved:  atomic.LoadInt64(&m.bytesMoved),
	}
	for k, v := range m.opens {
		snap.Opens[k] = v
	}
	for k, v := range m.closes {
		snap.Closes[k] = v
	}
	for k, v := range m.closeErrors {
		snap.CloseErrors[k] = v
	}
	for k, v := range m.durationsMs {
		snap.DurationsMs[k] = v
	}
	for k, v := range m.frameCount {
		snap.FrameCount[k] = v
	}
	return snap
}

// Hook observes session lifecycle events; session.InputSession and
// session.OutputSession call it when one is configured.
type Hook interface {
	OnStart(codec string)
	OnStop(codec string, d time.Duration, err error)
	OnFrame(codec string, bytes int64)
}

// MetricsHook feeds session lifecycle events into a MetricsCollector,
// adapted from the teacher's hooks.MetricsHook.
type MetricsHook struct {
	collector MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) OnStart(codec string) { h.collector.RecordSessionOpen(codec) }
func (h *MetricsHook) OnStop(codec string, d time.Duration, err error) {
	h.collector.RecordSessionClose(codec, d, err)
}
func (h *MetricsHook) OnFrame(codec string, bytes int64) { h.collector.RecordFrame(codec, bytes) }

// LoggingHook logs session start/stop/frame events, adapted from the
// teacher's hooks.LoggingHook.
type LoggingHook struct {
	logger Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) OnStart(codec string) {
	h.logger.Debug("session.start", "codec", codec)
}

func (h *LoggingHook) OnStop(codec string, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("session.stop.error", "codec", codec, "duration_ms", d.Milliseconds(), "error", err.Error())
		return
	}
	h.logger.Debug("session.stop", "codec", codec, "duration_ms", d.Milliseconds())
}

func (h *LoggingHook) OnFrame(codec string, bytes int64) {
	h.logger.Debug("session.frame", "codec", codec, "bytes", bytes)
}
