package model

// ChatRequest represents an inbound concierge question
type ChatRequest struct {
	Query               string        `json:"query"`
	Context             *ChatContext  `json:"context,omitempty"`
	ConversationHistory []HistoryTurn `json:"conversationHistory,omitempty"`
}

// ChatContext carries structured context the caller already knows.
// Set fields override anything inferred from the query text.
type ChatContext struct {
	Terminal         string `json:"terminal,omitempty"`
	IsTransit        *bool  `json:"isTransit,omitempty"`
	Gate             string `json:"gate,omitempty"`
	AvailableMinutes int    `json:"availableMinutes,omitempty"`
}

// HistoryTurn is one prior message of the conversation
type HistoryTurn struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// ChatResponse is the envelope returned to the caller
type ChatResponse struct {
	ChatID           string          `json:"chatId,omitempty"`
	Message          string          `json:"message"`
	Amenities        []Amenity       `json:"amenities"`
	FollowUp         *string         `json:"followUp"`
	Context          ResponseContext `json:"context"`
	ExtractedContext *ChatContext    `json:"extractedContext"`
	Took             int64           `json:"took_ms"` // Response time in milliseconds
}

// ResponseContext echoes what the pipeline resolved for this request
type ResponseContext struct {
	Terminal     string `json:"terminal,omitempty"`
	IsTransit    bool   `json:"isTransit"`
	TotalResults int    `json:"totalResults"`
}

// FeedbackRequest represents a user action on a recommended amenity
type FeedbackRequest struct {
	ChatID      string `json:"chat_id" binding:"required"`
	AmenitySlug string `json:"amenity_slug" binding:"required"`
	Action      string `json:"action" binding:"required"` // click, navigate, save
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}
