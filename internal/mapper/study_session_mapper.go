package mapper

import (
	"encoding/json"

	"ai-study-assistant-be/internal/dto"
	"ai-study-assistant-be/internal/entity"
	"ai-study-assistant-be/internal/repository/contract"
)

type StudySessionMapper struct{}

func NewStudySessionMapper() *StudySessionMapper {
	return &StudySessionMapper{}
}

func (m *StudySessionMapper) ToRecord(s *entity.StudySession) (contract.Record, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var rec contract.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (m *StudySessionMapper) ToEntity(rec contract.Record) (*entity.StudySession, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var s entity.StudySession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *StudySessionMapper) ToResponse(s *entity.StudySession) *dto.SessionResponse {
	units := make([]dto.UnitResponse, len(s.Units))
	for i, u := range s.Units {
		units[i] = dto.UnitResponse{
			Index:   i,
			Topic:   u.Topic,
			Content: u.Content,
			Quiz:    s.QuizFor(i),
		}
	}

	res := &dto.SessionResponse{
		Id:              s.Id,
		Title:           s.Title,
		Status:          string(s.Status),
		MimeType:        s.MimeType,
		ChunkCount:      len(s.Chunks),
		Units:           units,
		Outline:         s.Outline,
		UnitsFallback:   s.UnitsFallback,
		OutlineFallback: s.OutlineFallback,
		SourceCount:     len(s.Sources),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Error != nil {
		res.Error = &dto.SessionErrorResponse{Kind: s.Error.Kind, Message: s.Error.Message}
	}
	return res
}
