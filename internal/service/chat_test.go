package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"concierge/internal/model"
	"concierge/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatService(t *testing.T, m ChatModel) *ChatService {
	t.Helper()
	return NewChatService(testConfig(), newSeededStore(t), m, nil, observability.Nop())
}

func TestChatService_GateAndKeyword(t *testing.T) {
	m := &fakeModel{reply: `{"message":"Grab a kopi near C20.","recommended_slugs":["kopi-t3","invented-slug","latte-t3"],"follow_up":null}`}
	svc := newTestChatService(t, m)

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Query: "gate C22 coffee"})
	require.NoError(t, err)

	assert.Equal(t, []string{"kopi-t3", "latte-t3"}, slugsOf(resp.Amenities))
	assert.Equal(t, "Grab a kopi near C20.", resp.Message)
	assert.Nil(t, resp.FollowUp)
	assert.Equal(t, 4, resp.Context.TotalResults)
	assert.Empty(t, resp.Context.Terminal)
	assert.NotEmpty(t, resp.ChatID)
	assert.Contains(t, m.lastUserMessage(), "User gate: C22")
}

func TestChatService_TransitOpenNow(t *testing.T) {
	m := &fakeModel{reply: `{"message":"Both are airside.","recommended_slugs":["spa-t3","garden-t3"],"follow_up":"When is your flight?"}`}
	svc := newTestChatService(t, m)

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{
		Query:   "what's open now in transit",
		Context: &model.ChatContext{Terminal: "SIN-T3"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"spa-t3", "garden-t3"}, slugsOf(resp.Amenities))
	assert.Equal(t, model.ResponseContext{Terminal: "SIN-T3", IsTransit: true, TotalResults: 3}, resp.Context)
	require.NotNil(t, resp.FollowUp)
	assert.Equal(t, "When is your flight?", *resp.FollowUp)
	for _, a := range resp.Amenities {
		assert.True(t, a.AvailableInTransit)
		assert.Equal(t, "SIN-T3", a.TerminalCode)
	}
}

func TestChatService_OpenNowWithTransitHint(t *testing.T) {
	m := &fakeModel{reply: `{"message":"All airside.","recommended_slugs":["spa-t3","latte-t3"],"follow_up":null}`}
	svc := newTestChatService(t, m)

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{
		Query:   "what's open now in transit",
		Context: &model.ChatContext{IsTransit: boolPtr(true)},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"spa-t3", "latte-t3"}, slugsOf(resp.Amenities))
	assert.Equal(t, model.ResponseContext{IsTransit: true, TotalResults: 3}, resp.Context)
	assert.Contains(t, m.lastUserMessage(), "User is in transit.")
	assert.Contains(t, m.lastUserMessage(), "User wants places that are open right now.")
}

func TestChatService_NarrowKeywordFallsBack(t *testing.T) {
	m := &fakeModel{reply: `{"message":"Ramen or coffee?","recommended_slugs":["ramen-t3","coffee-t1","brew-t3"]}`}
	svc := newTestChatService(t, m)

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Query: "ramen in t3"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ramen-t3", "brew-t3"}, slugsOf(resp.Amenities), "T1 amenity was never retrieved")
	assert.Equal(t, 6, resp.Context.TotalResults)
	assert.Equal(t, "SIN-T3", resp.Context.Terminal)
	assert.Contains(t, m.lastUserMessage(), "Amenities (6):")
}

func TestChatService_DegradedReply(t *testing.T) {
	raw := "Sorry, I can only suggest the Rain Vortex today."
	m := &fakeModel{reply: raw}
	svc := newTestChatService(t, m)

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Query: "jewel waterfall"})
	require.NoError(t, err)

	assert.Equal(t, raw, resp.Message)
	assert.NotNil(t, resp.Amenities)
	assert.Empty(t, resp.Amenities)
	assert.Nil(t, resp.FollowUp)
	assert.Equal(t, "SIN-JEWEL", resp.Context.Terminal)
}

func TestChatService_FeasibilityNarrowsCandidates(t *testing.T) {
	m := &fakeModel{reply: `{"message":"Latte Lounge is right by you.","recommended_slugs":["latte-t3","ramen-t3"]}`}
	svc := newTestChatService(t, m)

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{
		Query:   "coffee in t3",
		Context: &model.ChatContext{AvailableMinutes: 29},
	})
	require.NoError(t, err)

	// 14 usable minutes: only the 2-minute walk (2+5+2) fits; unmeasured walks
	// cost 5+5+5
	assert.Equal(t, []string{"latte-t3"}, slugsOf(resp.Amenities))
	assert.Equal(t, 3, resp.Context.TotalResults)
	assert.Contains(t, m.lastUserMessage(), "(1 of 3 passed)")
	assert.Nil(t, resp.ExtractedContext, "caller already knew the minutes")
}

func TestChatService_ExtractedContext(t *testing.T) {
	m := &fakeModel{reply: `{"message":"ok","recommended_slugs":[],"extracted_context":{"terminal":"SIN-T2","gate":"E5"}}`}
	svc := newTestChatService(t, m)
	svc.WithClock(func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) })

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Query: "I have 2 hours, what should I do?"})
	require.NoError(t, err)

	require.NotNil(t, resp.ExtractedContext)
	assert.Equal(t, model.ChatContext{Terminal: "SIN-T2", Gate: "E5", AvailableMinutes: 120}, *resp.ExtractedContext)
	assert.Contains(t, m.lastUserMessage(), "Time available: 120 min total, 105 min usable")
}

func TestChatService_Validation(t *testing.T) {
	m := &fakeModel{reply: `{"message":"x","recommended_slugs":[]}`}
	svc := newTestChatService(t, m)

	tests := []struct {
		name    string
		req     *model.ChatRequest
		wantMsg string
	}{
		{"empty", &model.ChatRequest{Query: ""}, "query is required"},
		{"blank", &model.ChatRequest{Query: "   \n"}, "query is required"},
		{"too long", &model.ChatRequest{Query: strings.Repeat("a", 501)}, "Query too long (max 500 characters)"},
		{"bad history role", &model.ChatRequest{Query: "hi", ConversationHistory: []model.HistoryTurn{{Role: "system", Content: "x"}}}, "conversationHistory roles must be user or assistant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Chat(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}

	_, err := svc.Chat(context.Background(), &model.ChatRequest{Query: strings.Repeat("é", 500)})
	assert.NoError(t, err, "limit counts characters, not bytes")
	assert.Equal(t, 1, m.calls, "invalid requests never reach the model")
}

func TestChatService_Failures(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		svc := newTestChatService(t, &fakeModel{err: ErrRateLimited})
		_, err := svc.Chat(context.Background(), &model.ChatRequest{Query: "coffee"})
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("model down", func(t *testing.T) {
		svc := newTestChatService(t, &fakeModel{err: errors.New("502 bad gateway")})
		_, err := svc.Chat(context.Background(), &model.ChatRequest{Query: "coffee"})
		assert.ErrorIs(t, err, ErrGenerationUnavailable)
	})

	t.Run("store down", func(t *testing.T) {
		m := &fakeModel{reply: `{"message":"x"}`}
		store := newSeededStore(t)
		svc := NewChatService(testConfig(), store, m, nil, observability.Nop())
		require.NoError(t, store.Close())

		_, err := svc.Chat(context.Background(), &model.ChatRequest{Query: "coffee"})
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.Zero(t, m.calls)
	})
}

func TestChatService_LogsChat(t *testing.T) {
	store := newSeededStore(t)
	m := &fakeModel{reply: `{"message":"Kopi it is.","recommended_slugs":["kopi-t3"]}`}
	svc := NewChatService(testConfig(), store, m, store, observability.Nop())

	resp, err := svc.Chat(context.Background(), &model.ChatRequest{Query: "coffee in t3"})
	require.NoError(t, err)
	svc.Wait()

	entry, err := store.GetChatLog(context.Background(), resp.ChatID)
	require.NoError(t, err)
	assert.Equal(t, "coffee in t3", entry.Query)
	require.NotNil(t, entry.TerminalCode)
	assert.Equal(t, "SIN-T3", *entry.TerminalCode)
	assert.Equal(t, []string{"coffee"}, []string(entry.Keywords))
	assert.Equal(t, []string{"kopi-t3"}, []string(entry.RecommendedSlugs))
	assert.Equal(t, 3, entry.TotalResults)
}
