package telemetry

import "sync"

// Sink receives progress percentages and human-readable log lines from the
// install pipeline. Implementations must tolerate being called from the
// pipeline's goroutine at any point between start and completion; they have
// no behavior of their own beyond presentation.
type Sink interface {
	// Progress reports completion as a percentage in [0, 100]. Values are
	// monotonically non-decreasing within a single pipeline run.
	Progress(percent int)

	// Log reports a human-readable progress line.
	Log(line string)
}

// LoggerSink adapts a Logger into a Sink. Progress updates land at debug
// level, log lines at info level.
type LoggerSink struct {
	Logger *Logger
}

// Progress implements Sink.
func (s *LoggerSink) Progress(percent int) {
	s.Logger.WithField("percent", percent).Debug("progress")
}

// Log implements Sink.
func (s *LoggerSink) Log(line string) {
	s.Logger.Info(line)
}

// RecordingSink captures everything it receives. Intended for tests.
type RecordingSink struct {
	mu       sync.Mutex
	Percents []int
	Lines    []string
}

// Progress implements Sink.
func (s *RecordingSink) Progress(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Percents = append(s.Percents, percent)
}

// Log implements Sink.
func (s *RecordingSink) Log(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lines = append(s.Lines, line)
}
