package models

import (
	"errors"
	"time"
)

// Parameter identifies a water-quality parameter
type Parameter string

const (
	ParameterPH              Parameter = "pH"
	ParameterTurbidity       Parameter = "turbidity"
	ParameterDissolvedOxygen Parameter = "dissolved_oxygen"
	ParameterTemperature     Parameter = "temperature"
	ParameterConductivity    Parameter = "conductivity"
	ParameterNitrates        Parameter = "nitrates"
)

// Parameters lists every known parameter
var Parameters = []Parameter{
	ParameterPH,
	ParameterTurbidity,
	ParameterDissolvedOxygen,
	ParameterTemperature,
	ParameterConductivity,
	ParameterNitrates,
}

// Measurement represents a single water-quality reading from a station
type Measurement struct {
	// Station that produced the reading
	StationID string `json:"station_id"`

	// Producer-assigned instant, non-decreasing per station
	Timestamp time.Time `json:"timestamp"`

	// Measured parameter
	Parameter Parameter `json:"parameter"`

	// Numeric reading
	Value float64 `json:"value"`

	// Unit of the reading, e.g. "mg/L"
	Unit string `json:"unit"`
}

// Validation errors
var (
	ErrEmptyStationID   = errors.New("station ID cannot be empty")
	ErrZeroTimestamp    = errors.New("timestamp cannot be zero")
	ErrInvalidParameter = errors.New("unknown parameter")
	ErrEmptyUnit        = errors.New("unit cannot be empty")
)

// Validate checks if the Measurement has all required fields and valid values
func (m *Measurement) Validate() error {
	if m.StationID == "" {
		return ErrEmptyStationID
	}

	if m.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}

	if !m.Parameter.IsValid() {
		return ErrInvalidParameter
	}

	if m.Unit == "" {
		return ErrEmptyUnit
	}

	return nil
}

// IsValid checks if the parameter is a known enumeration value
func (p Parameter) IsValid() bool {
	switch p {
	case ParameterPH, ParameterTurbidity, ParameterDissolvedOxygen,
		ParameterTemperature, ParameterConductivity, ParameterNitrates:
		return true
	default:
		return false
	}
}
