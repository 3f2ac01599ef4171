// Package diagsink implements the diagnostics sink collaborator from spec.md
// §6: a buffer of human-readable messages that is cleared on entry to every
// public core call.
package diagsink

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink accumulates diagnostics for a single public call. Access to the
// recorded entries is guarded by a mutex; the sink does not keep apart the
// messages of calls that run at the same time.
type Sink struct {
	mu      sync.Mutex
	entries []entry
	logger  *zap.Logger
}

type entry struct {
	level   zapcore.Level
	message string
	fields  []zap.Field
}

// memoryCore is a minimal zapcore.Core that appends every record to a Sink
// instead of writing to stdout/a file, so the sink stays in-process and
// cheap to clear between calls.
type memoryCore struct {
	zapcore.LevelEnabler
	sink *Sink
}

func (c *memoryCore) With(fields []zap.Field) zapcore.Core { return c }

func (c *memoryCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *memoryCore) Write(e zapcore.Entry, fields []zap.Field) error {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.entries = append(c.sink.entries, entry{level: e.Level, message: e.Message, fields: fields})
	return nil
}

func (c *memoryCore) Sync() error { return nil }

// New builds a diagnostics sink backed by a zap.Logger whose only core is the
// in-memory one. Messages are formatted into text before they are recorded,
// and the logger is not exposed, so no further core can be attached to it.
func New() *Sink {
	s := &Sink{}
	core := &memoryCore{LevelEnabler: zapcore.DebugLevel, sink: s}
	s.logger = zap.New(core)
	return s
}

// Clear drops all accumulated messages. Called on entry to every public core
// operation per spec.md §6.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Errorf records a formatted diagnostic at error level, mirroring the
// libavif-style "print a message and fail" pattern the core follows.
func (s *Sink) Errorf(format string, args ...any) {
	s.logger.Sugar().Errorf(format, args...)
}

// Infof records an informational diagnostic (e.g. a fast-path choice).
func (s *Sink) Infof(format string, args ...any) {
	s.logger.Sugar().Infof(format, args...)
}

// Messages returns the accumulated human-readable diagnostic lines in order.
func (s *Sink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.message
	}
	return out
}
