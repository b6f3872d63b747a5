package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"concierge/internal/config"
	"concierge/internal/model"
	"concierge/internal/observability"
	"concierge/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChatLogger records answered chats for feedback attribution
type ChatLogger interface {
	LogChat(ctx context.Context, entry *repository.ChatLog) error
}

// ChatService runs the concierge pipeline: pre-filter, retrieve, assemble,
// generate, ground. It holds no per-request state, so one instance serves
// concurrent requests.
type ChatService struct {
	venue       *config.Venue
	prefilter   *PreFilter
	retriever   *Retriever
	feasibility *FeasibilityFilter
	prompts     *PromptBuilder
	generator   *Generator
	chatLog     ChatLogger

	maxQueryLength int
	historyLimit   int

	now     func() time.Time
	log     zerolog.Logger
	pending sync.WaitGroup
}

// NewChatService wires the pipeline. chatLog may be nil to disable logging.
func NewChatService(cfg *config.Config, store AmenityStore, chatModel ChatModel, chatLog ChatLogger, log zerolog.Logger) *ChatService {
	feasibility := NewFeasibilityFilter(cfg.Venue)
	return &ChatService{
		venue:          cfg.Venue,
		prefilter:      NewPreFilter(cfg.Venue),
		retriever:      NewRetriever(store, cfg.Venue.AirportCode, cfg.Chat.MinResults, cfg.Chat.MaxResults, log),
		feasibility:    feasibility,
		prompts:        NewPromptBuilder(cfg.Venue, feasibility, cfg.Chat.HistoryLimit, cfg.Chat.DescriptionLimit),
		generator:      NewGenerator(chatModel, log),
		chatLog:        chatLog,
		maxQueryLength: cfg.Chat.MaxQueryLength,
		historyLimit:   cfg.Chat.HistoryLimit,
		now:            time.Now,
		log:            log,
	}
}

// WithClock replaces the wall clock; used by tests that depend on local time
func (s *ChatService) WithClock(now func() time.Time) *ChatService {
	s.now = now
	return s
}

// Validate checks a request before any work is done
func (s *ChatService) Validate(req *model.ChatRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return &ValidationError{Message: "query is required"}
	}
	if utf8.RuneCountInString(req.Query) > s.maxQueryLength {
		return &ValidationError{Message: fmt.Sprintf("Query too long (max %d characters)", s.maxQueryLength)}
	}
	for _, turn := range req.ConversationHistory {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			return &ValidationError{Message: "conversationHistory roles must be user or assistant"}
		}
	}
	return nil
}

// Chat answers one query. Each stage runs once, in order; the first error
// ends the request.
func (s *ChatService) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	startTime := time.Now()
	logger := observability.FromContext(ctx, s.log)

	if err := s.Validate(req); err != nil {
		return nil, err
	}

	history := req.ConversationHistory
	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}

	now := s.now()
	knownMinutes := 0
	if req.Context != nil {
		knownMinutes = req.Context.AvailableMinutes
	}
	minutes := ExtractAvailableMinutes(req.Query, history, knownMinutes, now, s.venue.Location())

	filters := s.prefilter.Extract(req.Query, req.Context)

	retrieved, err := s.retriever.Retrieve(ctx, filters)
	if err != nil {
		s.observe(startTime, "store_unavailable")
		return nil, err
	}
	candidates := s.feasibility.Apply(retrieved, minutes, filters.Gate)

	prompt := s.prompts.Build(PromptInput{
		Query:            req.Query,
		Filters:          filters,
		Candidates:       candidates,
		RetrievedCount:   len(retrieved),
		History:          history,
		AvailableMinutes: minutes,
		Now:              now,
	})

	out, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			s.observe(startTime, "rate_limited")
		} else {
			s.observe(startTime, "generation_unavailable")
		}
		return nil, err
	}

	resp := Ground(out, candidates, filters, len(retrieved))
	resp.ChatID = uuid.NewString()
	resp.ExtractedContext = mergeExtractedContext(out.ExtractedContext, minutes, req.Context)
	resp.Took = time.Since(startTime).Milliseconds()

	outcome := "ok"
	if out.Degraded {
		outcome = "degraded"
	}
	s.observe(startTime, outcome)

	logger.Info().
		Str("chat_id", resp.ChatID).
		Str("terminal", filters.Terminal).
		Bool("transit", filters.IsTransit).
		Strs("keywords", filters.Keywords).
		Int("retrieved", len(retrieved)).
		Int("feasible", len(candidates)).
		Int("recommended", len(resp.Amenities)).
		Bool("degraded", out.Degraded).
		Int64("took_ms", resp.Took).
		Msg("chat answered")

	s.logChat(req, filters, resp, out.Degraded)
	return resp, nil
}

// Wait blocks until background chat log writes have finished
func (s *ChatService) Wait() {
	s.pending.Wait()
}

// logChat writes the chat log without delaying the response
func (s *ChatService) logChat(req *model.ChatRequest, filters *model.ExtractedFilters, resp *model.ChatResponse, degraded bool) {
	if s.chatLog == nil {
		return
	}

	slugs := make(repository.JSONArray, len(resp.Amenities))
	for i, a := range resp.Amenities {
		slugs[i] = a.Slug
	}
	entry := &repository.ChatLog{
		ChatID:           resp.ChatID,
		Query:            req.Query,
		IsTransit:        filters.IsTransit,
		Keywords:         repository.JSONArray(filters.Keywords),
		RecommendedSlugs: slugs,
		TotalResults:     resp.Context.TotalResults,
		Degraded:         degraded,
		ResponseTimeMs:   int(resp.Took),
	}
	if filters.Terminal != "" {
		terminal := filters.Terminal
		entry.TerminalCode = &terminal
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.chatLog.LogChat(context.Background(), entry); err != nil {
			s.log.Error().Err(err).Str("chat_id", entry.ChatID).Msg("failed to log chat")
		}
	}()
}

func (s *ChatService) observe(start time.Time, outcome string) {
	observability.PipelineLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// mergeExtractedContext echoes what the model found, plus the minutes this
// service worked out itself when the caller did not already know them
func mergeExtractedContext(found *model.ExtractedContext, minutes int, hints *model.ChatContext) *model.ChatContext {
	out := &model.ChatContext{}
	if !found.IsEmpty() {
		out.Terminal = found.Terminal
		out.Gate = found.Gate
		out.AvailableMinutes = found.AvailableMinutes
	}
	if minutes > 0 && (hints == nil || hints.AvailableMinutes <= 0) {
		out.AvailableMinutes = minutes
	}
	if out.Terminal == "" && out.Gate == "" && out.AvailableMinutes <= 0 {
		return nil
	}
	return out
}
