package pipeline

import "log/slog"

// ProgressSink receives phase updates during a run. The external scheduler
// that triggers runs consumes these to show task state; the default sink
// just logs them.
type ProgressSink interface {
	Report(taskID, phase string, percent float64, message, status string)
}

// LogSink reports progress through the structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink builds the logging progress sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "progress")}
}

// Report logs one progress update.
func (s *LogSink) Report(taskID, phase string, percent float64, message, status string) {
	s.logger.Info("progress",
		"task_id", taskID,
		"phase", phase,
		"percent", percent,
		"message", message,
		"status", status,
	)
}
