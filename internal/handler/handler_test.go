package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"concierge/internal/model"
	"concierge/internal/observability"
	"concierge/internal/ratelimit"
	"concierge/internal/repository"
	"concierge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeChat struct {
	resp *model.ChatResponse
	err  error
	got  *model.ChatRequest
}

func (f *fakeChat) Chat(_ context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeAmenities map[string]*model.Amenity

func (f fakeAmenities) GetAmenityBySlug(_ context.Context, slug string) (*model.Amenity, error) {
	if slug == "broken" {
		return nil, errors.New("db down")
	}
	return f[slug], nil
}

type fakeFeedback struct {
	chats map[string]bool
	calls []string
}

func (f *fakeFeedback) LogFeedback(_ context.Context, chatID, slug, action string) error {
	if !f.chats[chatID] {
		return repository.ErrChatNotFound
	}
	f.calls = append(f.calls, chatID+"/"+slug+"/"+action)
	return nil
}

func newTestRouter(chat ChatAnswerer, limiter ratelimit.Limiter) (*gin.Engine, *fakeFeedback) {
	feedback := &fakeFeedback{chats: map[string]bool{"chat-1": true}}
	router := NewRouter(RouterDeps{
		Chat:      chat,
		Amenities: fakeAmenities{"kopi-t3": {Slug: "kopi-t3", Name: "Kopi Corner", TerminalCode: "SIN-T3", AirportCode: "SIN"}},
		Feedback:  feedback,
		Limiter:   limiter,
		Build:     BuildInfo{Version: "test"},
		Logger:    observability.Nop(),
	})
	return router, feedback
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestChatHandler_Success(t *testing.T) {
	follow := "When do you board?"
	chat := &fakeChat{resp: &model.ChatResponse{
		ChatID:    "chat-1",
		Message:   "Try Kopi Corner.",
		Amenities: []model.Amenity{{Slug: "kopi-t3", Name: "Kopi Corner"}},
		FollowUp:  &follow,
		Context:   model.ResponseContext{Terminal: "SIN-T3", TotalResults: 4},
	}}
	router, _ := newTestRouter(chat, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/chat",
		`{"query":"coffee","context":{"terminal":"SIN-T3","isTransit":true},"conversationHistory":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Try Kopi Corner.", body["message"])
	assert.Equal(t, "When do you board?", body["followUp"])
	assert.Nil(t, body["extractedContext"])
	ctx := body["context"].(map[string]any)
	assert.Equal(t, "SIN-T3", ctx["terminal"])
	assert.Equal(t, float64(4), ctx["totalResults"])

	require.NotNil(t, chat.got)
	assert.Equal(t, "coffee", chat.got.Query)
	require.NotNil(t, chat.got.Context.IsTransit)
	assert.True(t, *chat.got.Context.IsTransit)
	assert.Len(t, chat.got.ConversationHistory, 1)
}

func TestChatHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not JSON", `query=coffee`, nil, http.StatusBadRequest, "query is required"},
		{"query not a string", `{"query":42}`, nil, http.StatusBadRequest, "query is required"},
		{"validation", `{"query":""}`, &service.ValidationError{Message: "query is required"}, http.StatusBadRequest, "query is required"},
		{"too long", `{"query":"x"}`, &service.ValidationError{Message: "Query too long (max 500 characters)"}, http.StatusBadRequest, "Query too long (max 500 characters)"},
		{"rate limited", `{"query":"x"}`, fmt.Errorf("%w: 429", service.ErrRateLimited), http.StatusTooManyRequests, "Rate limited. Please try again."},
		{"model down", `{"query":"x"}`, fmt.Errorf("%w: boom", service.ErrGenerationUnavailable), http.StatusInternalServerError, "Something went wrong. Please try again."},
		{"store down", `{"query":"x"}`, fmt.Errorf("%w: sql: database is closed", service.ErrStoreUnavailable), http.StatusInternalServerError, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(&fakeChat{err: tt.err}, nil)
			w := doJSON(router, http.MethodPost, "/api/v1/chat", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, errorBody(t, w))
			assert.NotContains(t, w.Body.String(), "database is closed")
		})
	}
}

func TestChatHandler_RateLimitMiddleware(t *testing.T) {
	chat := &fakeChat{resp: &model.ChatResponse{Amenities: []model.Amenity{}}}
	router, _ := newTestRouter(chat, ratelimit.NewMemoryLimiter(1, time.Minute))

	first := doJSON(router, http.MethodPost, "/api/v1/chat", `{"query":"coffee"}`)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doJSON(router, http.MethodPost, "/api/v1/chat", `{"query":"coffee"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "Rate limited. Please try again.", errorBody(t, second))
}

func TestAmenityHandler_Get(t *testing.T) {
	router, _ := newTestRouter(&fakeChat{}, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/amenities/kopi-t3", "")
	require.Equal(t, http.StatusOK, w.Code)
	var a model.Amenity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, "Kopi Corner", a.Name)

	w = doJSON(router, http.MethodGet, "/api/v1/amenities/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/amenities/broken", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Something went wrong. Please try again.", errorBody(t, w))
}

func TestFeedbackHandler_Submit(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"logged", `{"chat_id":"chat-1","amenity_slug":"kopi-t3","action":"navigate"}`, http.StatusOK},
		{"unknown action", `{"chat_id":"chat-1","amenity_slug":"kopi-t3","action":"contact"}`, http.StatusBadRequest},
		{"missing field", `{"chat_id":"chat-1","action":"click"}`, http.StatusBadRequest},
		{"unknown chat", `{"chat_id":"chat-404","amenity_slug":"kopi-t3","action":"click"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, feedback := newTestRouter(&fakeChat{}, nil)
			w := doJSON(router, http.MethodPost, "/api/v1/feedback", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, []string{"chat-1/kopi-t3/navigate"}, feedback.calls)
			}
		})
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(&fakeChat{}, nil)

	w := doJSON(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = doJSON(router, http.MethodGet, "/version", "")
	assert.Contains(t, w.Body.String(), `"version":"test"`)

	w = doJSON(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_UnhealthyStore(t *testing.T) {
	router := NewRouter(RouterDeps{
		Chat:      &fakeChat{},
		Amenities: fakeAmenities{},
		Feedback:  &fakeFeedback{},
		Ping:      func(context.Context) error { return errors.New("down") },
		Logger:    observability.Nop(),
	})

	w := doJSON(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
