package consumer

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterwatch/internal/config"
	"waterwatch/internal/logger"
	"waterwatch/internal/models"
	"waterwatch/internal/rules"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

type captureNotifier struct {
	notifications []*rules.Notification
	err           error
}

func (c *captureNotifier) Notify(ctx context.Context, n *rules.Notification) error {
	c.notifications = append(c.notifications, n)
	return c.err
}

func newTestService(t *testing.T, notifier *captureNotifier) *Service {
	t.Helper()
	set, err := rules.NewSet(
		rules.Rule{Parameter: models.ParameterPH, MinAllowed: 6.5, MaxAllowed: 8.5},
		rules.Rule{Parameter: models.ParameterTemperature, MinAllowed: 10, MaxAllowed: 30},
	)
	require.NoError(t, err)
	return New(config.Default(), set, notifier)
}

func encodeMeasurement(t *testing.T, m *models.Measurement) []byte {
	t.Helper()
	data, err := models.Encode(m)
	require.NoError(t, err)
	return data
}

func TestProcessViolationNotifies(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(t, notifier)

	body := encodeMeasurement(t, &models.Measurement{
		StationID: "main-river-south",
		Timestamp: time.Now().UTC(),
		Parameter: models.ParameterPH,
		Value:     5.9,
		Unit:      "pH",
	})

	require.NoError(t, svc.process(context.Background(), body))
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, rules.SeverityBelowMinimum, notifier.notifications[0].Severity)
	assert.Equal(t, "main-river-south", notifier.notifications[0].Measurement.StationID)
}

func TestProcessInRangeDoesNotNotify(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(t, notifier)

	body := encodeMeasurement(t, &models.Measurement{
		StationID: "main-river-south",
		Timestamp: time.Now().UTC(),
		Parameter: models.ParameterPH,
		Value:     7.2,
		Unit:      "pH",
	})

	require.NoError(t, svc.process(context.Background(), body))
	assert.Empty(t, notifier.notifications)
}

func TestProcessUnknownParameterDoesNotNotify(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(t, notifier)

	// Nitrates has no rule in the test set
	body := encodeMeasurement(t, &models.Measurement{
		StationID: "east-tributary",
		Timestamp: time.Now().UTC(),
		Parameter: models.ParameterNitrates,
		Value:     9999,
		Unit:      "mg/L",
	})

	require.NoError(t, svc.process(context.Background(), body))
	assert.Empty(t, notifier.notifications)
}

func TestProcessMalformedBodyIsRejectedNotFatal(t *testing.T) {
	notifier := &captureNotifier{}
	svc := newTestService(t, notifier)

	err := svc.process(context.Background(), []byte("{not a measurement"))
	assert.ErrorIs(t, err, models.ErrMalformedBody)
	assert.Empty(t, notifier.notifications)

	// The next valid message is still processed
	body := encodeMeasurement(t, &models.Measurement{
		StationID: "central-lagoon",
		Timestamp: time.Now().UTC(),
		Parameter: models.ParameterTemperature,
		Value:     35.2,
		Unit:      "C",
	})
	require.NoError(t, svc.process(context.Background(), body))
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, rules.SeverityAboveMaximum, notifier.notifications[0].Severity)
}

func TestRunReturnsOnUnrecoverableConsumerFailure(t *testing.T) {
	// The parent context stays alive: Run must still return once the
	// consume loop gives up, so the process can exit non-zero
	cfg := config.Default()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.Brokers = nil // consumer initialization fails immediately

	set, err := rules.NewSet()
	require.NoError(t, err)
	svc := New(cfg, set, &captureNotifier{})

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize consumer")
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after consumer failure")
	}
}

func TestProcessSinkFailureIsSwallowed(t *testing.T) {
	notifier := &captureNotifier{err: errors.New("sink down")}
	svc := newTestService(t, notifier)

	body := encodeMeasurement(t, &models.Measurement{
		StationID: "municipal-reservoir",
		Timestamp: time.Now().UTC(),
		Parameter: models.ParameterPH,
		Value:     9.3,
		Unit:      "pH",
	})

	// Evaluation succeeded; the message must still be acknowledged
	assert.NoError(t, svc.process(context.Background(), body))
	assert.Len(t, notifier.notifications, 1)
}
