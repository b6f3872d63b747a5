package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

//go:embed venue_changi.yaml
var defaultVenueYAML []byte

// Venue describes one airport: its terminal topology, timing rules and the
// facts handed to the model. Swapping the file swaps the airport.
type Venue struct {
	Name          string            `yaml:"name"`
	AirportCode   string            `yaml:"airport_code"`
	Timezone      string            `yaml:"timezone"`
	TimezoneLabel string            `yaml:"timezone_label"`
	Terminals     []int             `yaml:"terminals"`
	GateLetters   string            `yaml:"gate_letters"`
	Aliases       map[string]string `yaml:"aliases"`

	BufferMinutes       int          `yaml:"buffer_minutes"`
	MaxWalkMinutes      int          `yaml:"max_walk_minutes"`
	MinDwellByCategory  []DwellRule  `yaml:"min_dwell_by_category"`
	DefaultDwellMinutes int          `yaml:"default_dwell_minutes"`
	PeakHours           []PeakWindow `yaml:"peak_hours"`
	Facts               []string     `yaml:"facts"`

	location *time.Location
}

// DwellRule is the minimum time spent at an amenity of one category
type DwellRule struct {
	Category string `yaml:"category"`
	Minutes  int    `yaml:"minutes"`
}

// PeakWindow is a busy period expressed as HHMM clock values, inclusive
type PeakWindow struct {
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
	Label string `yaml:"label"`
}

// LoadVenue reads a venue file, or the embedded Changi venue when path is empty
func LoadVenue(path string) (*Venue, error) {
	data := defaultVenueYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read venue file: %w", err)
		}
		data = b
	}
	return ParseVenue(data)
}

// ParseVenue decodes and validates a venue document
func ParseVenue(data []byte) (*Venue, error) {
	var v Venue
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode venue: %w", err)
	}
	if v.AirportCode == "" {
		return nil, fmt.Errorf("venue airport_code is required")
	}
	v.AirportCode = strings.ToUpper(v.AirportCode)
	if v.Timezone == "" {
		v.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		return nil, fmt.Errorf("venue timezone %q: %w", v.Timezone, err)
	}
	v.location = loc
	if v.TimezoneLabel == "" {
		v.TimezoneLabel = v.Timezone
	}
	v.GateLetters = strings.ToLower(v.GateLetters)
	if v.GateLetters == "" {
		v.GateLetters = "abcdefghijklmnopqrstuvwxyz"
	}
	for _, ch := range v.GateLetters {
		if ch < 'a' || ch > 'z' {
			return nil, fmt.Errorf("venue gate_letters must be ASCII letters, got %q", v.GateLetters)
		}
	}
	if v.DefaultDwellMinutes == 0 {
		v.DefaultDwellMinutes = 10
	}

	aliases := make(map[string]string, len(v.Aliases))
	for k, code := range v.Aliases {
		aliases[strings.ToLower(k)] = code
	}
	v.Aliases = aliases

	return &v, nil
}

// DefaultVenue returns the embedded venue. It panics only if the embedded
// file is broken, which the config tests guard against.
func DefaultVenue() *Venue {
	v, err := ParseVenue(defaultVenueYAML)
	if err != nil {
		panic(err)
	}
	return v
}

// Location returns the venue's time zone
func (v *Venue) Location() *time.Location {
	if v.location == nil {
		return time.UTC
	}
	return v.location
}

// TerminalCode maps a terminal number to its canonical code, e.g. 3 -> SIN-T3
func (v *Venue) TerminalCode(n int) (string, bool) {
	for _, t := range v.Terminals {
		if t == n {
			return v.AirportCode + "-T" + strconv.Itoa(n), true
		}
	}
	return "", false
}

// PeakLabel returns the label of the peak window containing t, if any
func (v *Venue) PeakLabel(t time.Time) string {
	local := t.In(v.Location())
	clock := local.Hour()*100 + local.Minute()
	for _, p := range v.PeakHours {
		if clock >= p.Start && clock <= p.End {
			return p.Label
		}
	}
	return ""
}
