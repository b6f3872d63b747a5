package model

import "strings"

// Amenity represents one airport amenity as stored in amenity_detail.
// The pipeline only reads these records.
type Amenity struct {
	ID                 int64   `json:"id" db:"id"`
	Slug               string  `json:"amenity_slug" db:"amenity_slug"`
	Name               string  `json:"name" db:"name"`
	Description        *string `json:"description,omitempty" db:"description"`
	TerminalCode       string  `json:"terminal_code" db:"terminal_code"`
	AirportCode        string  `json:"airport_code" db:"airport_code"`
	VibeTags           *string `json:"vibe_tags,omitempty" db:"vibe_tags"`
	Category           *string `json:"category,omitempty" db:"category"`
	OpeningHours       *string `json:"opening_hours,omitempty" db:"opening_hours"`
	PriceLevel         *string `json:"price_level,omitempty" db:"price_level"`
	AvailableInTransit bool    `json:"available_in_tr" db:"available_in_tr"`
	GateLocation       *string `json:"gate_location,omitempty" db:"gate_location"`
	Zone               *string `json:"zone,omitempty" db:"zone"`
	WalkingTimeMinutes *int    `json:"walking_time_minutes,omitempty" db:"walking_time_minutes"`
	ImageURL           *string `json:"image_url,omitempty" db:"image_url"`
}

// Tags returns the lower-cased vibe tag text, or "" when unset
func (a *Amenity) Tags() string {
	if a.VibeTags == nil {
		return ""
	}
	return strings.ToLower(*a.VibeTags)
}

// AmenityFeedbackActions lists the feedback actions a client may report
var AmenityFeedbackActions = map[string]bool{
	"click":    true,
	"navigate": true,
	"save":     true,
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
