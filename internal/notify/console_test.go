package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterwatch/internal/models"
	"waterwatch/internal/rules"
)

func sampleNotification() *rules.Notification {
	return &rules.Notification{
		Measurement: models.Measurement{
			StationID: "central-lagoon",
			Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			Parameter: models.ParameterPH,
			Value:     5.9,
			Unit:      "pH",
		},
		Rule:      rules.Rule{Parameter: models.ParameterPH, MinAllowed: 6.5, MaxAllowed: 8.5},
		Severity:  rules.SeverityBelowMinimum,
		CreatedAt: time.Now().UTC(),
	}
}

func TestConsoleNotifierOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleNotifierWriter(&buf)

	require.NoError(t, c.Notify(context.Background(), sampleNotification()))

	out := buf.String()
	assert.Contains(t, out, "WATER QUALITY ALERT #1")
	assert.Contains(t, out, "central-lagoon")
	assert.Contains(t, out, "pH")
	assert.Contains(t, out, "5.90")
	assert.Contains(t, out, "allowed minimum: 6.50")
}

func TestConsoleNotifierCountsDeliveries(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleNotifierWriter(&buf)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Notify(context.Background(), sampleNotification()))
	}
	assert.Equal(t, 3, c.Count())
	assert.Contains(t, buf.String(), "ALERT #3")
}

func TestConsoleNotifierAboveMaximum(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleNotifierWriter(&buf)

	n := sampleNotification()
	n.Measurement.Parameter = models.ParameterTemperature
	n.Measurement.Value = 35.2
	n.Measurement.Unit = "C"
	n.Rule = rules.Rule{Parameter: models.ParameterTemperature, MinAllowed: 10, MaxAllowed: 30}
	n.Severity = rules.SeverityAboveMaximum

	require.NoError(t, c.Notify(context.Background(), n))
	assert.Contains(t, buf.String(), "allowed maximum: 30.00")
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, assert.AnError
}

func TestConsoleNotifierReturnsWriteError(t *testing.T) {
	c := NewConsoleNotifierWriter(failingWriter{})
	err := c.Notify(context.Background(), sampleNotification())
	assert.Error(t, err)
}
