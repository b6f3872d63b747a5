package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"concierge/internal/config"
	"concierge/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPromptBuilder() *PromptBuilder {
	venue := config.DefaultVenue()
	return NewPromptBuilder(venue, NewFeasibilityFilter(venue), 10, 150)
}

func TestPromptBuilder_SystemBlock(t *testing.T) {
	pb := newTestPromptBuilder()
	pc := pb.Build(PromptInput{Query: "coffee", Filters: &model.ExtractedFilters{}, Now: time.Now()})

	assert.Contains(t, pc.System, "Singapore Changi Airport (SIN)")
	assert.Contains(t, pc.System, "SIN-JEWEL")
	assert.Contains(t, pc.System, "SGT (UTC+8)")
	assert.Contains(t, pc.System, `"recommended_slugs"`)
	assert.Contains(t, pc.System, `"terminal":"SIN-T2"`)
	assert.NotContains(t, pc.System, "%!")
}

func TestPromptBuilder_UserMessage(t *testing.T) {
	pb := newTestPromptBuilder()
	loc := config.DefaultVenue().Location()
	now := time.Date(2026, 10, 19, 19, 0, 0, 0, loc)

	longDescription := strings.Repeat("é", 200)
	candidates := []model.Amenity{
		{Slug: "kopi-t3", Name: "Kopi Corner", TerminalCode: "SIN-T3", Description: &longDescription, WalkingTimeMinutes: intPtr(4)},
		{Slug: "ramen-t3", Name: "Ramen Bar", TerminalCode: "SIN-T3"},
	}
	filters := &model.ExtractedFilters{Terminal: "SIN-T3", Gate: "B4", IsTransit: true, Keywords: []string{"coffee"}}

	pc := pb.Build(PromptInput{
		Query:            "coffee near gate B4",
		Filters:          filters,
		Candidates:       candidates,
		RetrievedCount:   5,
		AvailableMinutes: 60,
		Now:              now,
	})
	require.Len(t, pc.Messages, 1)

	msg := pc.Messages[0]
	assert.Equal(t, RoleUser, msg.Role)
	assert.True(t, strings.HasSuffix(msg.Content, "\nUser: coffee near gate B4"), msg.Content)
	assert.Contains(t, msg.Content, "Current local time: 19 Oct 2026, 7:00 pm")
	assert.Contains(t, msg.Content, "Time available: 60 min total, 45 min usable (after 15 min gate buffer).")
	assert.Contains(t, msg.Content, "Current period: peak dinner")
	assert.Contains(t, msg.Content, "(2 of 5 passed)")
	assert.Contains(t, msg.Content, "User terminal: SIN-T3")
	assert.Contains(t, msg.Content, "User is in transit.")
	assert.Contains(t, msg.Content, "User gate: B4")
	assert.Contains(t, msg.Content, "Amenities (2):")
	assert.Contains(t, msg.Content, `"description":"`+strings.Repeat("é", 150)+`"`)
	assert.NotContains(t, msg.Content, strings.Repeat("é", 151))
	assert.Contains(t, msg.Content, `"walk_minutes":4`)

	kopi := strings.Index(msg.Content, `"slug":"kopi-t3"`)
	ramen := strings.Index(msg.Content, `"slug":"ramen-t3"`)
	assert.True(t, kopi >= 0 && kopi < ramen, "candidates keep retrieval order")
}

func TestPromptBuilder_UnknownDeparture(t *testing.T) {
	pb := newTestPromptBuilder()
	pc := pb.Build(PromptInput{Query: "anything fun", Filters: &model.ExtractedFilters{}, Now: time.Now()})

	content := pc.Messages[0].Content
	assert.Contains(t, content, "Departure time unknown")
	assert.Contains(t, content, "Amenities (0):\n[]")
	assert.NotContains(t, content, "User terminal:")
	assert.NotContains(t, content, "User is in transit.")
}

func TestPromptBuilder_HistoryWindow(t *testing.T) {
	pb := newTestPromptBuilder()

	history := make([]model.HistoryTurn, 12)
	for i := range history {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history[i] = model.HistoryTurn{Role: role, Content: fmt.Sprintf("turn %d", i)}
	}

	pc := pb.Build(PromptInput{Query: "and now?", Filters: &model.ExtractedFilters{}, History: history, Now: time.Now()})

	require.Len(t, pc.Messages, 11)
	assert.Equal(t, "turn 2", pc.Messages[0].Content)
	assert.Equal(t, "turn 11", pc.Messages[9].Content)
	assert.Equal(t, RoleAssistant, pc.Messages[9].Role)
	assert.True(t, strings.HasSuffix(pc.Messages[10].Content, "User: and now?"))
}
