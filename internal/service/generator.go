package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"concierge/internal/model"
	"concierge/internal/observability"
	"concierge/internal/utils"

	"github.com/rs/zerolog"
)

// Generator makes the single model call for a request and parses the reply
type Generator struct {
	model ChatModel
	log   zerolog.Logger
}

// NewGenerator creates a generator around a model client
func NewGenerator(m ChatModel, log zerolog.Logger) *Generator {
	return &Generator{model: m, log: log}
}

// Generate calls the model once. Throttling surfaces as ErrRateLimited and
// any other call failure as ErrGenerationUnavailable. A reply that cannot be
// parsed is never an error; it comes back degraded.
func (g *Generator) Generate(ctx context.Context, prompt *PromptContext) (*model.GenerationOutput, error) {
	raw, err := g.model.Complete(ctx, prompt.System, prompt.Messages)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			observability.GenerationErrors.WithLabelValues("rate_limited").Inc()
			return nil, err
		}
		observability.GenerationErrors.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrGenerationUnavailable, g.model.Name(), err)
	}

	out, err := ParseGeneration(raw)
	if err != nil {
		observability.GenerationDegraded.Inc()
		observability.FromContext(ctx, g.log).Warn().
			Err(err).
			Str("model", g.model.Name()).
			Int("raw_len", len(raw)).
			Msg("model reply was not JSON, answering with raw text")
		return model.DegradedOutput(raw), nil
	}
	return out, nil
}

// generationReply is the model's reply as received. Only message must have
// its expected type; the other fields are read best-effort.
type generationReply struct {
	Message          string          `json:"message"`
	RecommendedSlugs json.RawMessage `json:"recommended_slugs"`
	FollowUp         json.RawMessage `json:"follow_up"`
	ExtractedContext json.RawMessage `json:"extracted_context"`
}

// ParseGeneration decodes a model reply: first the widest {...} span, then
// the whole text
func ParseGeneration(raw string) (*model.GenerationOutput, error) {
	reply, err := utils.ParseModelJSON[generationReply](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedOutput, err)
	}

	out := &model.GenerationOutput{
		Message:          reply.Message,
		RecommendedSlugs: decodeSlugs(reply.RecommendedSlugs),
		ExtractedContext: decodeExtractedContext(reply.ExtractedContext),
	}
	if f := strings.TrimSpace(rawString(reply.FollowUp)); f != "" && !strings.EqualFold(f, "null") {
		out.FollowUp = &f
	}
	return out, nil
}

// decodeSlugs keeps the string entries of a slug array
func decodeSlugs(raw json.RawMessage) []string {
	slugs := []string{}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return slugs
	}
	for _, e := range entries {
		var slug string
		if err := json.Unmarshal(e, &slug); err == nil {
			slugs = append(slugs, slug)
		}
	}
	return slugs
}

// decodeExtractedContext reads whatever fields of the model's context object
// have a usable value. Anything that is not an object yields nil.
func decodeExtractedContext(raw json.RawMessage) *model.ExtractedContext {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return nil
	}

	minutes, ok := fields["available_minutes"]
	if !ok {
		minutes = fields["availableMinutes"]
	}
	ec := &model.ExtractedContext{
		Terminal:         strings.TrimSpace(rawString(fields["terminal"])),
		Gate:             strings.TrimSpace(rawString(fields["gate"])),
		AvailableMinutes: rawMinutes(minutes),
	}
	if ec.IsEmpty() {
		return nil
	}
	return ec
}

// rawString returns raw as a string, or "" when it is not a JSON string
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// rawMinutes accepts a number or a numeric string, truncated to whole
// minutes. Anything under a minute or implausibly long reads as unknown.
func rawMinutes(raw json.RawMessage) int {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		parsed, perr := strconv.ParseFloat(strings.TrimSpace(rawString(raw)), 64)
		if perr != nil {
			return 0
		}
		n = parsed
	}
	if !(n >= 1 && n < maxPlausibleMinutes) {
		return 0
	}
	return int(n)
}
