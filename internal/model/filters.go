package model

// ExtractedFilters represents the structured signals pulled from a query
// before any retrieval happens. It is built once per query and not mutated
// afterwards.
type ExtractedFilters struct {
	Terminal     string   `json:"terminal,omitempty"`
	Gate         string   `json:"gate,omitempty"`
	IsTransit    bool     `json:"is_transit"`
	WantsOpenNow bool     `json:"wants_open_now"`
	Keywords     []string `json:"keywords"`
}

// GenerationOutput is the model's structured answer
type GenerationOutput struct {
	Message          string            `json:"message"`
	RecommendedSlugs []string          `json:"recommended_slugs"`
	FollowUp         *string           `json:"follow_up"`
	ExtractedContext *ExtractedContext `json:"extracted_context,omitempty"`
	Degraded         bool              `json:"-"` // set when the raw text could not be parsed
}

// ExtractedContext holds context the model (or the minute extractor) found
// in the conversation
type ExtractedContext struct {
	Terminal         string `json:"terminal,omitempty"`
	AvailableMinutes int    `json:"available_minutes,omitempty"`
	Gate             string `json:"gate,omitempty"`
}

// IsEmpty reports whether no field was found
func (c *ExtractedContext) IsEmpty() bool {
	return c == nil || (c.Terminal == "" && c.AvailableMinutes == 0 && c.Gate == "")
}

// DegradedOutput wraps raw model text that could not be parsed
func DegradedOutput(raw string) *GenerationOutput {
	return &GenerationOutput{
		Message:          raw,
		RecommendedSlugs: []string{},
		FollowUp:         nil,
		Degraded:         true,
	}
}
