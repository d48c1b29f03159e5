package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Envelope errors
var (
	ErrMalformedBody = errors.New("malformed message body")
	ErrMissingField  = errors.New("missing required field")
)

// wireMeasurement mirrors Measurement with pointer fields so decoding can
// tell a missing field from a zero value.
type wireMeasurement struct {
	StationID *string    `json:"station_id"`
	Timestamp *time.Time `json:"timestamp"`
	Parameter *Parameter `json:"parameter"`
	Value     *float64   `json:"value"`
	Unit      *string    `json:"unit"`
}

// Encode serializes a Measurement into the shared wire envelope.
func Encode(m *Measurement) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode measurement: %w", err)
	}
	return data, nil
}

// Decode deserializes a wire envelope into a Measurement. Decoding fails
// closed: unknown fields, missing fields, and non-numeric values are all
// rejected rather than defaulted.
func Decode(data []byte) (*Measurement, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var w wireMeasurement
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	// Reject trailing content after the envelope object
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedBody)
	}

	switch {
	case w.StationID == nil:
		return nil, fmt.Errorf("%w: station_id", ErrMissingField)
	case w.Timestamp == nil:
		return nil, fmt.Errorf("%w: timestamp", ErrMissingField)
	case w.Parameter == nil:
		return nil, fmt.Errorf("%w: parameter", ErrMissingField)
	case w.Value == nil:
		return nil, fmt.Errorf("%w: value", ErrMissingField)
	case w.Unit == nil:
		return nil, fmt.Errorf("%w: unit", ErrMissingField)
	}

	m := &Measurement{
		StationID: *w.StationID,
		Timestamp: *w.Timestamp,
		Parameter: *w.Parameter,
		Value:     *w.Value,
		Unit:      *w.Unit,
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	return m, nil
}
