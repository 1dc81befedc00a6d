package mapper

import (
	"testing"
	"time"

	"ai-study-assistant-be/internal/entity"
	"ai-study-assistant-be/pkg/llm/structured"
	"ai-study-assistant-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudySessionMapper_RecordRoundTrip(t *testing.T) {
	m := NewStudySessionMapper()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s := &entity.StudySession{
		Id:        uuid.New(),
		Title:     "Biology",
		Status:    entity.SessionReady,
		Chunks:    []store.Chunk{{ID: "chunk-1", Text: "Cells", Position: 0}},
		Units:     []structured.StudyUnit{{Topic: "Cells", Content: "- nucleus"}},
		Sources:   []store.Source{{ID: "n1", Kind: store.KindNote, Text: "note"}},
		CreatedAt: now,
	}
	s.SetQuiz(0, &structured.Quiz{Questions: []structured.QuizQuestion{{Question: "Q"}}}, now)

	rec, err := m.ToRecord(s)
	require.NoError(t, err)
	assert.Equal(t, "ready", rec["status"])

	back, err := m.ToEntity(rec)
	require.NoError(t, err)
	assert.Equal(t, s.Id, back.Id)
	assert.Equal(t, s.Chunks, back.Chunks)
	assert.Equal(t, s.Sources, back.Sources)
	require.NotNil(t, back.QuizFor(0))
	assert.Equal(t, "Q", back.QuizFor(0).Questions[0].Question)
	assert.Nil(t, back.QuizFor(1))

	res := m.ToResponse(back)
	assert.Equal(t, 1, res.ChunkCount)
	require.Len(t, res.Units, 1)
	assert.NotNil(t, res.Units[0].Quiz)
}

func TestStudySession_SetQuizReplaces(t *testing.T) {
	s := &entity.StudySession{}
	now := time.Now()
	s.SetQuiz(2, &structured.Quiz{}, now)
	s.SetQuiz(2, &structured.Quiz{Questions: []structured.QuizQuestion{{Question: "new"}}}, now)
	require.Len(t, s.Quizzes, 1)
	assert.Equal(t, "new", s.QuizFor(2).Questions[0].Question)
}
