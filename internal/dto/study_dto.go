package dto

import (
	"time"

	"ai-study-assistant-be/pkg/llm/structured"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `form:"title" validate:"max=200"`
	Async bool   `form:"async"`
}

type CreateTextSessionRequest struct {
	Title    string `json:"title" validate:"max=200"`
	Text     string `json:"text" validate:"required"`
	MimeType string `json:"mime_type"`
	Async    bool   `json:"async"`
}

type SourceItem struct {
	Id   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type UpdateSourcesRequest struct {
	Notes         []SourceItem `json:"notes" validate:"dive"`
	Conversations []SourceItem `json:"conversations" validate:"dive"`
	Achievements  []SourceItem `json:"achievements" validate:"dive"`
}

type UpdateSourcesResponse struct {
	Id    uuid.UUID `json:"id"`
	Count int       `json:"count"`
}

type AskRequest struct {
	Question          string   `json:"question" validate:"required"`
	Keywords          []string `json:"keywords"`
	SecondaryKeywords []string `json:"secondary_keywords"`
	Structured        bool     `json:"structured"`
}

type AskResponse struct {
	Answer           string                     `json:"answer"`
	Provider         string                     `json:"provider"`
	Sources          []string                   `json:"sources"`
	Sections         *structured.AnswerSections `json:"sections,omitempty"`
	SectionsFallback bool                       `json:"sections_fallback,omitempty"`
}

type UnitResponse struct {
	Index   int              `json:"index"`
	Topic   string           `json:"topic"`
	Content string           `json:"content"`
	Quiz    *structured.Quiz `json:"quiz,omitempty"`
}

type SessionErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type SessionResponse struct {
	Id              uuid.UUID                 `json:"id"`
	Title           string                    `json:"title"`
	Status          string                    `json:"status"`
	MimeType        string                    `json:"mime_type"`
	ChunkCount      int                       `json:"chunk_count"`
	Units           []UnitResponse            `json:"units"`
	Outline         []structured.OutlineTopic `json:"outline"`
	UnitsFallback   bool                      `json:"units_fallback"`
	OutlineFallback bool                      `json:"outline_fallback"`
	SourceCount     int                       `json:"source_count"`
	Error           *SessionErrorResponse     `json:"error,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       *time.Time                `json:"updated_at"`
}

type QuizResponse struct {
	SessionId uuid.UUID        `json:"session_id"`
	UnitIndex int              `json:"unit_index"`
	Topic     string           `json:"topic"`
	Quiz      *structured.Quiz `json:"quiz"`
}

// StreamMessage is one frame of the streaming ask socket.
type StreamMessage struct {
	Type     string   `json:"type"`
	Text     string   `json:"text,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Sources  []string `json:"sources,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Message  string   `json:"message,omitempty"`
}

const (
	StreamFragment = "fragment"
	StreamDone     = "done"
	StreamError    = "error"
)

// SessionUpdateMessage is one frame of the session updates socket.
type SessionUpdateMessage struct {
	Type    string           `json:"type"`
	Session *SessionResponse `json:"session,omitempty"`
}

const (
	UpdateSession = "session"
	UpdateDeleted = "deleted"
)
