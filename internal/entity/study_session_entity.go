package entity

import (
	"time"

	"ai-study-assistant-be/pkg/llm/structured"
	"ai-study-assistant-be/pkg/store"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionProcessing SessionStatus = "processing"
	SessionReady      SessionStatus = "ready"
	SessionFailed     SessionStatus = "failed"
)

type SessionError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type UnitQuiz struct {
	UnitIndex int              `json:"unit_index"`
	Quiz      *structured.Quiz `json:"quiz"`
	CreatedAt time.Time        `json:"created_at"`
}

// StudySession is one uploaded material and everything derived from it.
type StudySession struct {
	Id              uuid.UUID                 `json:"id"`
	Title           string                    `json:"title"`
	Status          SessionStatus             `json:"status"`
	MimeType        string                    `json:"mime_type"`
	Material        string                    `json:"material"`
	Chunks          []store.Chunk             `json:"chunks"`
	Notes           string                    `json:"notes"`
	Units           []structured.StudyUnit    `json:"units"`
	Outline         []structured.OutlineTopic `json:"outline"`
	UnitsFallback   bool                      `json:"units_fallback"`
	OutlineFallback bool                      `json:"outline_fallback"`
	Quizzes         []UnitQuiz                `json:"quizzes"`
	Sources         []store.Source            `json:"sources"`
	Error           *SessionError             `json:"error,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       *time.Time                `json:"updated_at"`
}

func (s *StudySession) QuizFor(unitIndex int) *structured.Quiz {
	for _, q := range s.Quizzes {
		if q.UnitIndex == unitIndex {
			return q.Quiz
		}
	}
	return nil
}

// SetQuiz replaces any earlier quiz of the same unit.
func (s *StudySession) SetQuiz(unitIndex int, quiz *structured.Quiz, now time.Time) {
	for i := range s.Quizzes {
		if s.Quizzes[i].UnitIndex == unitIndex {
			s.Quizzes[i] = UnitQuiz{UnitIndex: unitIndex, Quiz: quiz, CreatedAt: now}
			return
		}
	}
	s.Quizzes = append(s.Quizzes, UnitQuiz{UnitIndex: unitIndex, Quiz: quiz, CreatedAt: now})
}
