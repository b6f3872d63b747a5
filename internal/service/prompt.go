package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"concierge/internal/config"
	"concierge/internal/model"
	"concierge/internal/utils"
)

const responseRules = `Response rules:
1. Be warm and conversational; keep the message to 2-3 sentences.
2. Always reply with a single JSON object and no markdown fences:
{"message":"your reply","recommended_slugs":["slug1","slug2"],"follow_up":"a question or null","extracted_context":{"terminal":"%[1]s-T2","available_minutes":90,"gate":"B12"}}
3. recommended_slugs may only contain slug values from the amenity list you are given.
4. Recommend 3-5 amenities, most relevant first.
5. extracted_context holds only what the conversation states clearly; leave out anything you cannot determine, or use null when nothing new was found.
6. With time context, be honest about queues and ranges ("20-40 min depending on queues") and flag tight connections.
7. If nothing matches, say so plainly and suggest what the traveller could try instead.
8. If the departure time is unknown, ask for it naturally as the follow-up.`

// PromptInput is everything the assembler needs for one request
type PromptInput struct {
	Query            string
	Filters          *model.ExtractedFilters
	Candidates       []model.Amenity
	RetrievedCount   int // before the feasibility filter
	History          []model.HistoryTurn
	AvailableMinutes int // zero when unknown
	Now              time.Time
}

// PromptContext is the model-ready conversation
type PromptContext struct {
	System   string
	Messages []ChatMessage
}

// promptAmenity is the slice of an amenity the model sees
type promptAmenity struct {
	Slug               string  `json:"slug"`
	Name               string  `json:"name"`
	Terminal           string  `json:"terminal"`
	Description        string  `json:"description"`
	VibeTags           *string `json:"vibe_tags"`
	OpeningHours       *string `json:"opening_hours"`
	PriceLevel         *string `json:"price_level"`
	GateLocation       *string `json:"gate_location"`
	Zone               *string `json:"zone"`
	AvailableInTransit bool    `json:"available_in_transit"`
	Category           *string `json:"category"`
	WalkMinutes        int     `json:"walk_minutes"`
}

// PromptBuilder assembles the system block and user turn for the model
type PromptBuilder struct {
	venue            *config.Venue
	feasibility      *FeasibilityFilter
	historyLimit     int
	descriptionLimit int
	system           string
}

// NewPromptBuilder creates a builder. The system block is fixed per venue
// and rendered once.
func NewPromptBuilder(venue *config.Venue, feasibility *FeasibilityFilter, historyLimit, descriptionLimit int) *PromptBuilder {
	return &PromptBuilder{
		venue:            venue,
		feasibility:      feasibility,
		historyLimit:     historyLimit,
		descriptionLimit: descriptionLimit,
		system:           buildSystemPrompt(venue),
	}
}

func buildSystemPrompt(venue *config.Venue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the amenity concierge for %s (%s).\n\nKey knowledge:\n", venue.Name, venue.AirportCode)
	for _, fact := range venue.Facts {
		b.WriteString("- ")
		b.WriteString(fact)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "- Local timezone: %s.\n\n", venue.TimezoneLabel)
	fmt.Fprintf(&b, responseRules, venue.AirportCode)
	return b.String()
}

// Build renders the prompt. Candidates are serialized in retrieval order and
// the raw query is always the last line of the final user message.
func (pb *PromptBuilder) Build(in PromptInput) *PromptContext {
	projected := make([]promptAmenity, len(in.Candidates))
	for i, a := range in.Candidates {
		projected[i] = pb.project(a, in.Filters.Gate)
	}
	// strings, ints and bools only
	amenitiesJSON, _ := json.Marshal(projected)

	local := in.Now.In(pb.venue.Location())
	lines := []string{
		fmt.Sprintf("Current local time: %s (%s)", local.Format("2 Jan 2006, 3:04 pm"), pb.venue.TimezoneLabel),
		pb.timeContext(in),
	}
	if in.Filters.Terminal != "" {
		lines = append(lines, "User terminal: "+in.Filters.Terminal)
	}
	if in.Filters.IsTransit {
		lines = append(lines, "User is in transit.")
	}
	if in.Filters.Gate != "" {
		lines = append(lines, "User gate: "+in.Filters.Gate)
	}
	if in.Filters.WantsOpenNow {
		lines = append(lines, "User wants places that are open right now.")
	}
	lines = append(lines,
		fmt.Sprintf("\nAmenities (%d):\n%s", len(in.Candidates), amenitiesJSON),
		"\nUser: "+in.Query,
	)

	history := in.History
	if pb.historyLimit > 0 && len(history) > pb.historyLimit {
		history = history[len(history)-pb.historyLimit:]
	}
	messages := make([]ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ChatMessage{Role: RoleUser, Content: strings.Join(lines, "\n")})

	return &PromptContext{System: pb.system, Messages: messages}
}

func (pb *PromptBuilder) timeContext(in PromptInput) string {
	if in.AvailableMinutes <= 0 {
		return "Departure time unknown, so all options are shown. Consider asking when their flight is."
	}

	usable := pb.feasibility.UsableMinutes(in.AvailableMinutes)
	parts := []string{fmt.Sprintf(
		"Time available: %d min total, %d min usable (after %d min gate buffer).",
		in.AvailableMinutes, usable, pb.venue.BufferMinutes,
	)}
	if label := pb.venue.PeakLabel(in.Now); label != "" {
		parts = append(parts, fmt.Sprintf("Current period: %s, expect longer waits at food venues.", label))
	}
	parts = append(parts, fmt.Sprintf(
		"Amenities shown are pre-filtered to those physically feasible in the time available (%d of %d passed).",
		len(in.Candidates), in.RetrievedCount,
	))
	return strings.Join(parts, "\n")
}

func (pb *PromptBuilder) project(a model.Amenity, gate string) promptAmenity {
	return promptAmenity{
		Slug:               a.Slug,
		Name:               a.Name,
		Terminal:           a.TerminalCode,
		Description:        utils.TruncateRunes(model.Deref(a.Description), pb.descriptionLimit),
		VibeTags:           a.VibeTags,
		OpeningHours:       a.OpeningHours,
		PriceLevel:         a.PriceLevel,
		GateLocation:       a.GateLocation,
		Zone:               a.Zone,
		AvailableInTransit: a.AvailableInTransit,
		Category:           a.Category,
		WalkMinutes:        pb.feasibility.WalkMinutes(a, gate),
	}
}
