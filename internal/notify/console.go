package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"waterwatch/internal/rules"
)

// ANSI escape codes for terminal output
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[91m"
	ansiYellow = "\033[93m"
	ansiBlue   = "\033[94m"
)

// ConsoleNotifier renders admin alerts to a terminal with ANSI colors and
// keeps a running count of notifications shown.
type ConsoleNotifier struct {
	mu    sync.Mutex
	out   io.Writer
	count int
}

// NewConsoleNotifier creates a notifier writing to stdout
func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{out: os.Stdout}
}

// NewConsoleNotifierWriter creates a notifier writing to the given writer
func NewConsoleNotifierWriter(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: w}
}

// Count returns the number of notifications delivered so far
func (c *ConsoleNotifier) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *ConsoleNotifier) Notify(ctx context.Context, n *rules.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.count++

	bound := n.Rule.MinAllowed
	boundLabel := "minimum"
	if n.Severity == rules.SeverityAboveMaximum {
		bound = n.Rule.MaxAllowed
		boundLabel = "maximum"
	}

	_, err := fmt.Fprintf(c.out,
		"%s%s======================================================%s\n"+
			"%s%s  WATER QUALITY ALERT #%d%s\n"+
			"%sStation:%s   %s\n"+
			"%sParameter:%s %s\n"+
			"%sReading:%s   %s%.2f %s%s (allowed %s: %.2f)\n"+
			"%sMeasured:%s  %s\n"+
			"%s%sAdministrator review required.%s\n",
		ansiBold, ansiBlue, ansiReset,
		ansiBold, ansiRed, c.count, ansiReset,
		ansiBold, ansiReset, n.Measurement.StationID,
		ansiBold, ansiReset, n.Measurement.Parameter,
		ansiBold, ansiReset, ansiRed, n.Measurement.Value, n.Measurement.Unit, ansiReset, boundLabel, bound,
		ansiBold, ansiReset, n.Measurement.Timestamp.Format("2006-01-02 15:04:05 MST"),
		ansiBold, ansiYellow, ansiReset,
	)
	if err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}
