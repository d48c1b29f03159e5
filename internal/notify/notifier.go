package notify

import (
	"context"

	"github.com/rs/zerolog"

	"waterwatch/internal/rules"
)

// Notifier delivers a notification to an alert target. Implementations
// exist for console output and structured logs; email/SMS/webhook sinks
// plug in here without touching the evaluation logic.
type Notifier interface {
	Notify(ctx context.Context, n *rules.Notification) error
}

// LogNotifier writes notifications as structured warn-level log lines.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a notifier backed by the given logger
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(ctx context.Context, n *rules.Notification) error {
	l.log.Warn().
		Str("station_id", n.Measurement.StationID).
		Str("parameter", string(n.Measurement.Parameter)).
		Float64("value", n.Measurement.Value).
		Str("unit", n.Measurement.Unit).
		Float64("min_allowed", n.Rule.MinAllowed).
		Float64("max_allowed", n.Rule.MaxAllowed).
		Str("severity", string(n.Severity)).
		Time("measured_at", n.Measurement.Timestamp).
		Msg("threshold violated")
	return nil
}
