package models

import "time"

// Source tags describe which path produced a bot reply.
const (
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
	SourceDefault   = "default"
	SourceError     = "error"
)

// CanonicalLanguage is the working language for generation and extraction.
const CanonicalLanguage = "en"

// ChatExchange is one logged turn of conversation.
// Rows are written once by the recorder and never updated by the pipeline.
type ChatExchange struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	UserMessage string    `json:"user_message" db:"user_message"` // as typed, untranslated
	BotReply    string    `json:"bot_reply" db:"bot_reply"`       // in the user's language
	Language    string    `json:"language" db:"language"`
	Source      string    `json:"source" db:"source"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TrainingCandidate is an append-only copy of a turn selected for offline model tuning.
// NOTE: stored in plain text, it is the training corpus.
type TrainingCandidate struct {
	ID               string     `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"`
	UserMessage      string     `json:"user_message" db:"user_message"`
	BotReply         string     `json:"bot_reply" db:"bot_reply"`
	Language         string     `json:"language" db:"language"`
	Source           string     `json:"source" db:"source"` // primary, secondary, default, error
	PreferGenerative bool       `json:"prefer_generative" db:"prefer_generative"`
	Processed        bool       `json:"processed" db:"processed"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// HistoryTurn is one prior exchange handed to a generative backend as context.
type HistoryTurn struct {
	UserMessage string `json:"userMessage"`
	BotReply    string `json:"botReply"`
}

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Lang    string `json:"lang,omitempty"` // "auto" or an ISO code
}

// ChatResponse is the payload returned to the caller and pushed to live channels.
type ChatResponse struct {
	Sender       string        `json:"sender"`
	Text         string        `json:"text"`
	Role         string        `json:"role"`
	MoodAnalysis *MoodAnalysis `json:"moodAnalysis,omitempty"`
}
