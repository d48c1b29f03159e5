package publisher

import (
	"math"
	"math/rand"
	"time"

	"waterwatch/internal/models"
)

// DefaultStations is the fixed station set used by the simulator
var DefaultStations = []string{
	"main-river-north",
	"main-river-center",
	"main-river-south",
	"east-tributary",
	"central-lagoon",
	"municipal-reservoir",
}

// valueRange bounds the plausible readings for one parameter
type valueRange struct {
	min  float64
	max  float64
	unit string
}

// Plausible per-parameter ranges. Wide enough that a fraction of readings
// land outside the default threshold rules and trigger alerts.
var parameterRanges = map[models.Parameter]valueRange{
	models.ParameterPH:              {min: 6.0, max: 9.0, unit: "pH"},
	models.ParameterTurbidity:       {min: 0.5, max: 15.0, unit: "NTU"},
	models.ParameterDissolvedOxygen: {min: 2.0, max: 12.0, unit: "mg/L"},
	models.ParameterTemperature:     {min: 15.0, max: 35.0, unit: "C"},
	models.ParameterConductivity:    {min: 50.0, max: 2000.0, unit: "uS/cm"},
	models.ParameterNitrates:        {min: 0.0, max: 25.0, unit: "mg/L"},
}

// Simulator generates random but plausible measurement events for a fixed
// set of stations and parameters. Timestamps are non-decreasing per
// station, even if the wall clock steps backwards.
type Simulator struct {
	stations []string
	rng      *rand.Rand
	now      func() time.Time
	lastSeen map[string]time.Time
}

// NewSimulator creates a simulator over the given stations
func NewSimulator(stations []string, seed int64) *Simulator {
	if len(stations) == 0 {
		stations = DefaultStations
	}
	return &Simulator{
		stations: stations,
		rng:      rand.New(rand.NewSource(seed)),
		now:      time.Now,
		lastSeen: make(map[string]time.Time, len(stations)),
	}
}

// Next produces one measurement event
func (s *Simulator) Next() *models.Measurement {
	station := s.stations[s.rng.Intn(len(s.stations))]
	parameter := models.Parameters[s.rng.Intn(len(models.Parameters))]
	r := parameterRanges[parameter]

	ts := s.now().UTC()
	if last, ok := s.lastSeen[station]; ok && ts.Before(last) {
		ts = last
	}
	s.lastSeen[station] = ts

	return &models.Measurement{
		StationID: station,
		Timestamp: ts,
		Parameter: parameter,
		Value:     round2(r.min + s.rng.Float64()*(r.max-r.min)),
		Unit:      r.unit,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
