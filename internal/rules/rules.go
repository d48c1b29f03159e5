package rules

import (
	"errors"
	"fmt"
	"time"

	"waterwatch/internal/models"
)

// Severity tags which bound a measurement violated
type Severity string

const (
	SeverityBelowMinimum Severity = "below_minimum"
	SeverityAboveMaximum Severity = "above_maximum"
)

// Rule maps a parameter to its allowed range. Bounds are inclusive.
type Rule struct {
	Parameter  models.Parameter `yaml:"parameter"`
	MinAllowed float64          `yaml:"min_allowed"`
	MaxAllowed float64          `yaml:"max_allowed"`
}

// Rule errors
var (
	ErrEmptyParameter = errors.New("rule parameter cannot be empty")
	ErrInvertedRange  = errors.New("rule minimum exceeds maximum")
	ErrDuplicateRule  = errors.New("duplicate rule for parameter")
)

// Validate checks rule invariants
func (r Rule) Validate() error {
	if r.Parameter == "" {
		return ErrEmptyParameter
	}
	if r.MinAllowed > r.MaxAllowed {
		return fmt.Errorf("%w: %s", ErrInvertedRange, r.Parameter)
	}
	return nil
}

// Notification is the alert artifact produced when a measurement violates
// its rule.
type Notification struct {
	Measurement models.Measurement
	Rule        Rule
	Severity    Severity
	CreatedAt   time.Time
}

// Message returns a human-readable description of the violation
func (n *Notification) Message() string {
	switch n.Severity {
	case SeverityBelowMinimum:
		return fmt.Sprintf("%s at station %s is %.2f %s, below the allowed minimum of %.2f",
			n.Measurement.Parameter, n.Measurement.StationID,
			n.Measurement.Value, n.Measurement.Unit, n.Rule.MinAllowed)
	case SeverityAboveMaximum:
		return fmt.Sprintf("%s at station %s is %.2f %s, above the allowed maximum of %.2f",
			n.Measurement.Parameter, n.Measurement.StationID,
			n.Measurement.Value, n.Measurement.Unit, n.Rule.MaxAllowed)
	default:
		return fmt.Sprintf("%s at station %s violated its threshold rule",
			n.Measurement.Parameter, n.Measurement.StationID)
	}
}

// Set is an immutable collection of threshold rules, at most one per
// parameter. Loaded once at consumer startup.
type Set struct {
	rules map[models.Parameter]Rule
}

// NewSet builds a rule set, rejecting invalid or duplicate rules
func NewSet(rules ...Rule) (*Set, error) {
	byParam := make(map[models.Parameter]Rule, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, ok := byParam[r.Parameter]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, r.Parameter)
		}
		byParam[r.Parameter] = r
	}
	return &Set{rules: byParam}, nil
}

// Lookup returns the rule for a parameter, if one exists
func (s *Set) Lookup(p models.Parameter) (Rule, bool) {
	r, ok := s.rules[p]
	return r, ok
}

// Len returns the number of rules in the set
func (s *Set) Len() int {
	return len(s.rules)
}

// Evaluate checks a measurement against the rule set and returns a
// Notification when the value falls outside the allowed range, or nil
// otherwise. A parameter with no rule never alerts. Values exactly equal
// to a bound are within range.
func (s *Set) Evaluate(m *models.Measurement) *Notification {
	rule, ok := s.Lookup(m.Parameter)
	if !ok {
		return nil
	}

	var severity Severity
	switch {
	case m.Value < rule.MinAllowed:
		severity = SeverityBelowMinimum
	case m.Value > rule.MaxAllowed:
		severity = SeverityAboveMaximum
	default:
		return nil
	}

	return &Notification{
		Measurement: *m,
		Rule:        rule,
		Severity:    severity,
		CreatedAt:   time.Now().UTC(),
	}
}
