package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Underlying groups the instruments of one underlying that a run should
// process. Patterns use the catalog syntax: exact ids or a trailing '*'.
type Underlying struct {
	Symbol   string   `yaml:"symbol"`
	Venue    string   `yaml:"venue"`
	Patterns []string `yaml:"patterns"`
}

// Universe is the full set of underlyings a run covers.
type Universe struct {
	Underlyings []Underlying `yaml:"underlyings"`
}

// LoadUniverse loads the instrument universe from the given path.
func LoadUniverse(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file: %w", err)
	}
	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}
	for i := range u.Underlyings {
		und := &u.Underlyings[i]
		und.Symbol = strings.ToUpper(strings.TrimSpace(und.Symbol))
		und.Venue = strings.ToUpper(strings.TrimSpace(und.Venue))
		if und.Symbol == "" {
			return nil, fmt.Errorf("underlyings[%d].symbol is required", i)
		}
		if und.Venue == "" {
			und.Venue = "NSE"
		}
		if len(und.Patterns) == 0 {
			und.Patterns = []string{und.Symbol + "*"}
		}
	}
	return &u, nil
}

// Patterns flattens every underlying's patterns in file order.
func (u *Universe) Patterns() []string {
	var out []string
	for _, und := range u.Underlyings {
		out = append(out, und.Patterns...)
	}
	return out
}
