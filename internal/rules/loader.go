package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"waterwatch/internal/models"
)

// rulesFile is the on-disk YAML layout:
//
//	rules:
//	  - parameter: pH
//	    min_allowed: 6.5
//	    max_allowed: 8.5
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads threshold rules from a YAML file
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	set, err := NewSet(f.Rules...)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return set, nil
}

// Defaults returns the built-in rule set used when no rules file is
// configured. Ranges follow common drinking-water guidance.
func Defaults() *Set {
	set, err := NewSet(
		Rule{Parameter: models.ParameterPH, MinAllowed: 6.5, MaxAllowed: 8.5},
		Rule{Parameter: models.ParameterTurbidity, MinAllowed: 0, MaxAllowed: 5},
		Rule{Parameter: models.ParameterDissolvedOxygen, MinAllowed: 4, MaxAllowed: 12},
		Rule{Parameter: models.ParameterTemperature, MinAllowed: 10, MaxAllowed: 30},
		Rule{Parameter: models.ParameterConductivity, MinAllowed: 50, MaxAllowed: 1500},
		Rule{Parameter: models.ParameterNitrates, MinAllowed: 0, MaxAllowed: 10},
	)
	if err != nil {
		// Built-in rules are static; a failure here is a programming error.
		panic(err)
	}
	return set
}
