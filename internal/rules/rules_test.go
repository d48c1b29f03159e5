package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterwatch/internal/models"
)

func measurement(p models.Parameter, value float64) *models.Measurement {
	return &models.Measurement{
		StationID: "main-river-north",
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Parameter: p,
		Value:     value,
		Unit:      "mg/L",
	}
}

func TestEvaluateInsideRange(t *testing.T) {
	set, err := NewSet(Rule{Parameter: models.ParameterPH, MinAllowed: 6.5, MaxAllowed: 8.5})
	require.NoError(t, err)

	for _, v := range []float64{6.6, 7.0, 7.5, 8.0, 8.49} {
		assert.Nil(t, set.Evaluate(measurement(models.ParameterPH, v)), "value %v should not alert", v)
	}
}

func TestEvaluateBoundsAreInclusive(t *testing.T) {
	set, err := NewSet(Rule{Parameter: models.ParameterTurbidity, MinAllowed: 0, MaxAllowed: 5})
	require.NoError(t, err)

	assert.Nil(t, set.Evaluate(measurement(models.ParameterTurbidity, 0)))
	assert.Nil(t, set.Evaluate(measurement(models.ParameterTurbidity, 5.0)))
}

func TestEvaluateBelowMinimum(t *testing.T) {
	set, err := NewSet(Rule{Parameter: models.ParameterPH, MinAllowed: 6.5, MaxAllowed: 8.5})
	require.NoError(t, err)

	n := set.Evaluate(measurement(models.ParameterPH, 5.9))
	require.NotNil(t, n)
	assert.Equal(t, SeverityBelowMinimum, n.Severity)
	assert.Equal(t, models.ParameterPH, n.Measurement.Parameter)
	assert.Equal(t, 6.5, n.Rule.MinAllowed)
}

func TestEvaluateAboveMaximum(t *testing.T) {
	set, err := NewSet(Rule{Parameter: models.ParameterTemperature, MinAllowed: 10, MaxAllowed: 30})
	require.NoError(t, err)

	n := set.Evaluate(measurement(models.ParameterTemperature, 35.2))
	require.NotNil(t, n)
	assert.Equal(t, SeverityAboveMaximum, n.Severity)
	assert.Equal(t, 30.0, n.Rule.MaxAllowed)
}

func TestEvaluateUnknownParameterNeverAlerts(t *testing.T) {
	set, err := NewSet(Rule{Parameter: models.ParameterPH, MinAllowed: 6.5, MaxAllowed: 8.5})
	require.NoError(t, err)

	for _, v := range []float64{-1000, 0, 1e9} {
		assert.Nil(t, set.Evaluate(measurement(models.ParameterNitrates, v)))
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	set, err := NewSet(Rule{Parameter: models.ParameterPH, MinAllowed: 6.5, MaxAllowed: 8.5})
	require.NoError(t, err)

	m := measurement(models.ParameterPH, 9.1)
	first := set.Evaluate(m)
	second := set.Evaluate(m)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Severity, second.Severity)
	assert.Equal(t, first.Measurement, second.Measurement)
	assert.Equal(t, first.Rule, second.Rule)
}

func TestNotificationMessage(t *testing.T) {
	set, err := NewSet(Rule{Parameter: models.ParameterPH, MinAllowed: 6.5, MaxAllowed: 8.5})
	require.NoError(t, err)

	n := set.Evaluate(measurement(models.ParameterPH, 5.9))
	require.NotNil(t, n)
	assert.Contains(t, n.Message(), "below the allowed minimum")
	assert.Contains(t, n.Message(), "main-river-north")
}

func TestNewSetRejectsInvertedRange(t *testing.T) {
	_, err := NewSet(Rule{Parameter: models.ParameterPH, MinAllowed: 9, MaxAllowed: 6})
	assert.ErrorIs(t, err, ErrInvertedRange)
}

func TestNewSetRejectsDuplicateParameter(t *testing.T) {
	_, err := NewSet(
		Rule{Parameter: models.ParameterPH, MinAllowed: 6.5, MaxAllowed: 8.5},
		Rule{Parameter: models.ParameterPH, MinAllowed: 6.0, MaxAllowed: 9.0},
	)
	assert.ErrorIs(t, err, ErrDuplicateRule)
}

func TestNewSetRejectsEmptyParameter(t *testing.T) {
	_, err := NewSet(Rule{MinAllowed: 0, MaxAllowed: 1})
	assert.ErrorIs(t, err, ErrEmptyParameter)
}

func TestDefaultsCoverAllParameters(t *testing.T) {
	set := Defaults()
	for _, p := range models.Parameters {
		_, ok := set.Lookup(p)
		assert.True(t, ok, "missing default rule for %s", p)
	}
}
