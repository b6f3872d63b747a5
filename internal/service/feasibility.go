package service

import (
	"strings"

	"concierge/internal/config"
	"concierge/internal/model"
)

// Walk estimates used when an amenity has no measured walking time
const (
	walkSameZone  = 3
	walkOtherZone = 6
	walkUnknown   = 5
)

// FeasibilityFilter drops amenities the traveller cannot reach, use and
// return from before boarding
type FeasibilityFilter struct {
	venue *config.Venue
}

// NewFeasibilityFilter creates a filter using the venue's buffer, walk
// limit and dwell table
func NewFeasibilityFilter(venue *config.Venue) *FeasibilityFilter {
	return &FeasibilityFilter{venue: venue}
}

// UsableMinutes is the time left once the gate buffer is taken out
func (f *FeasibilityFilter) UsableMinutes(available int) int {
	return available - f.venue.BufferMinutes
}

// Apply keeps the amenities that fit in the available minutes, preserving
// order. The result is always a subset of amenities. When available is
// unknown (zero) every amenity is kept.
func (f *FeasibilityFilter) Apply(amenities []model.Amenity, available int, gate string) []model.Amenity {
	if available <= 0 {
		return amenities
	}

	usable := f.UsableMinutes(available)
	feasible := make([]model.Amenity, 0, len(amenities))
	if usable <= 0 {
		return feasible
	}

	for _, a := range amenities {
		walk := f.WalkMinutes(a, gate)
		if walk > f.venue.MaxWalkMinutes {
			continue
		}
		if walk+f.MinDwellMinutes(a)+walk <= usable {
			feasible = append(feasible, a)
		}
	}
	return feasible
}

// WalkMinutes is the one-way walk to an amenity: measured when known,
// otherwise estimated from gate zone letters
func (f *FeasibilityFilter) WalkMinutes(a model.Amenity, gate string) int {
	if a.WalkingTimeMinutes != nil && *a.WalkingTimeMinutes > 0 {
		return *a.WalkingTimeMinutes
	}
	location := model.Deref(a.GateLocation)
	if location != "" && gate != "" {
		if strings.EqualFold(location[:1], gate[:1]) {
			return walkSameZone
		}
		return walkOtherZone
	}
	return walkUnknown
}

// MinDwellMinutes is the shortest sensible visit, from the first dwell rule
// whose category appears in the amenity's category, tags or name
func (f *FeasibilityFilter) MinDwellMinutes(a model.Amenity) int {
	haystack := strings.ToLower(model.Deref(a.Category)+" "+a.Name) + " " + a.Tags()
	for _, rule := range f.venue.MinDwellByCategory {
		if strings.Contains(haystack, strings.ToLower(rule.Category)) {
			return rule.Minutes
		}
	}
	return f.venue.DefaultDwellMinutes
}
