package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ai-study-assistant-be/internal/dto"
	"ai-study-assistant-be/internal/entity"
	"ai-study-assistant-be/internal/mapper"
	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/internal/repository/contract"
	"ai-study-assistant-be/pkg/apperror"
	"ai-study-assistant-be/pkg/extract"
	"ai-study-assistant-be/pkg/rag/executor"
	"ai-study-assistant-be/pkg/search"
	"ai-study-assistant-be/pkg/store"

	"github.com/google/uuid"
)

const (
	module            = "StudyService"
	sessionKeyPrefix  = "study_session:"
	defaultTitle      = "Untitled material"
	maxQuestionLength = 2000
)

type IStudyService interface {
	CreateFromUpload(ctx context.Context, req *dto.CreateSessionRequest, data []byte, mimeType string) (*dto.SessionResponse, error)
	CreateFromText(ctx context.Context, req *dto.CreateTextSessionRequest) (*dto.SessionResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateSources(ctx context.Context, id uuid.UUID, req *dto.UpdateSourcesRequest) (*dto.UpdateSourcesResponse, error)
	Ask(ctx context.Context, id uuid.UUID, req *dto.AskRequest) (*dto.AskResponse, error)
	StreamAsk(ctx context.Context, id uuid.UUID, req *dto.AskRequest, sink func(fragment string) error) (*dto.AskResponse, error)
	GenerateQuiz(ctx context.Context, id uuid.UUID, unitIndex int) (*dto.QuizResponse, error)
	Watch(ctx context.Context, id uuid.UUID, callback func(*dto.SessionResponse)) error
	// Wait blocks until background synthesis jobs have finished.
	Wait()
}

type studyService struct {
	repo      contract.IRecordRepository
	extractor extract.Extractor
	synthesis *executor.SynthesisExecutor
	answer    *executor.AnswerExecutor
	quiz      *executor.QuizExecutor
	publisher IPublisherService
	mapper    *mapper.StudySessionMapper
	logger    logger.ILogger

	locks    *sessionLocks
	inflight sync.WaitGroup
	now      func() time.Time
}

func NewStudyService(
	repo contract.IRecordRepository,
	extractor extract.Extractor,
	synthesis *executor.SynthesisExecutor,
	answer *executor.AnswerExecutor,
	quiz *executor.QuizExecutor,
	publisher IPublisherService,
	log logger.ILogger,
) IStudyService {
	return &studyService{
		repo:      repo,
		extractor: extractor,
		synthesis: synthesis,
		answer:    answer,
		quiz:      quiz,
		publisher: publisher,
		mapper:    mapper.NewStudySessionMapper(),
		logger:    log,
		locks:     newSessionLocks(),
		now:       time.Now,
	}
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

func notFound() error {
	return apperror.New(apperror.KindNotFound, "study session not found")
}

func (s *studyService) CreateFromUpload(ctx context.Context, req *dto.CreateSessionRequest, data []byte, mimeType string) (*dto.SessionResponse, error) {
	text, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		s.logger.Warn(module, "Extraction failed", map[string]interface{}{"mime_type": mimeType, "error": err})
		return nil, err
	}
	return s.create(ctx, req.Title, text, mimeType, req.Async)
}

func (s *studyService) CreateFromText(ctx context.Context, req *dto.CreateTextSessionRequest) (*dto.SessionResponse, error) {
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = extract.MimePlain
	}
	text, err := s.extractor.Extract(ctx, []byte(req.Text), mimeType)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, req.Title, text, mimeType, req.Async)
}

func (s *studyService) create(ctx context.Context, title, text, mimeType string, async bool) (*dto.SessionResponse, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}

	session := &entity.StudySession{
		Id:        uuid.New(),
		Title:     title,
		Status:    entity.SessionProcessing,
		MimeType:  mimeType,
		Material:  text,
		CreatedAt: s.now(),
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info(module, "Study session created", map[string]interface{}{
		"session_id": session.Id,
		"chars":      len(text),
		"async":      async,
	})

	if async {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			// Detached from the request; the upload response is already sent.
			_, _ = s.synthesize(context.WithoutCancel(ctx), session.Id, text)
		}()
		return s.mapper.ToResponse(session), nil
	}

	done, err := s.synthesize(ctx, session.Id, text)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToResponse(done), nil
}

func (s *studyService) synthesize(ctx context.Context, id uuid.UUID, text string) (*entity.StudySession, error) {
	res, runErr := s.synthesis.Run(ctx, text)

	session, err := s.update(ctx, id, func(session *entity.StudySession) error {
		if runErr != nil {
			session.Status = entity.SessionFailed
			session.Error = &entity.SessionError{Kind: string(apperror.KindOf(runErr)), Message: runErr.Error()}
			return nil
		}
		session.Status = entity.SessionReady
		session.Error = nil
		session.Material = res.Material
		session.Chunks = res.Chunks
		session.Notes = res.Notes
		session.Units = res.Units
		session.Outline = res.Outline
		session.UnitsFallback = res.UnitsFallback
		session.OutlineFallback = res.OutlineFallback
		return nil
	})
	if err != nil {
		s.logger.Error(module, "Failed to store synthesis result", map[string]interface{}{"session_id": id, "error": err})
		return nil, err
	}

	if runErr != nil {
		s.logger.Error(module, "Synthesis failed", map[string]interface{}{"session_id": id, "error": runErr})
		return nil, runErr
	}

	if s.publisher != nil {
		if err := s.publisher.PublishSessionSynthesized(ctx, session); err != nil {
			s.logger.Warn(module, "Failed to publish synthesis event", map[string]interface{}{"session_id": id, "error": err})
		}
	}
	return session, nil
}

func (s *studyService) Show(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToResponse(session), nil
}

func (s *studyService) Delete(ctx context.Context, id uuid.UUID) error {
	defer s.locks.Lock(id)()

	err := s.repo.Delete(ctx, sessionKey(id))
	if errors.Is(err, contract.ErrRecordNotFound) {
		return notFound()
	}
	return err
}

func (s *studyService) UpdateSources(ctx context.Context, id uuid.UUID, req *dto.UpdateSourcesRequest) (*dto.UpdateSourcesResponse, error) {
	sources := make([]store.Source, 0, len(req.Notes)+len(req.Conversations)+len(req.Achievements))
	appendAll := func(items []dto.SourceItem, kind store.Kind) {
		for _, it := range items {
			sources = append(sources, store.Source{ID: it.Id, Kind: kind, Text: it.Text})
		}
	}
	appendAll(req.Notes, store.KindNote)
	appendAll(req.Conversations, store.KindConversation)
	appendAll(req.Achievements, store.KindAchievement)

	if _, err := s.update(ctx, id, func(session *entity.StudySession) error {
		session.Sources = sources
		return nil
	}); err != nil {
		return nil, err
	}
	return &dto.UpdateSourcesResponse{Id: id, Count: len(sources)}, nil
}

func (s *studyService) answerInput(ctx context.Context, id uuid.UUID, req *dto.AskRequest) (executor.AnswerInput, error) {
	if len([]rune(req.Question)) > maxQuestionLength {
		return executor.AnswerInput{}, apperror.Validation("question is too long")
	}
	session, err := s.load(ctx, id)
	if err != nil {
		return executor.AnswerInput{}, err
	}

	in := executor.AnswerInput{
		Question:          req.Question,
		Keywords:          req.Keywords,
		SecondaryKeywords: req.SecondaryKeywords,
		Structured:        req.Structured,
		Material:          session.Material,
		Sources:           session.Sources,
	}

	// Inline directives only apply when the request carries no keywords.
	if len(in.Keywords) == 0 && len(in.SecondaryKeywords) == 0 {
		if d := search.ParseQuery(req.Question); d.HasKeywords() {
			in.Question = d.Question
			in.Keywords = d.Keywords
			in.SecondaryKeywords = d.SecondaryKeywords
		}
	}
	return in, nil
}

func toAskResponse(res *executor.AnswerResult) *dto.AskResponse {
	return &dto.AskResponse{
		Answer:           res.Text,
		Provider:         string(res.ProviderUsed),
		Sources:          res.Sources,
		Sections:         res.Sections,
		SectionsFallback: res.SectionsFallback,
	}
}

func (s *studyService) Ask(ctx context.Context, id uuid.UUID, req *dto.AskRequest) (*dto.AskResponse, error) {
	in, err := s.answerInput(ctx, id, req)
	if err != nil {
		return nil, err
	}
	res, err := s.answer.Answer(ctx, in)
	if err != nil {
		return nil, err
	}
	return toAskResponse(res), nil
}

func (s *studyService) StreamAsk(ctx context.Context, id uuid.UUID, req *dto.AskRequest, sink func(fragment string) error) (*dto.AskResponse, error) {
	in, err := s.answerInput(ctx, id, req)
	if err != nil {
		return nil, err
	}
	res, err := s.answer.Stream(ctx, in, sink)
	if err != nil {
		return nil, err
	}
	return toAskResponse(res), nil
}

func (s *studyService) GenerateQuiz(ctx context.Context, id uuid.UUID, unitIndex int) (*dto.QuizResponse, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != entity.SessionReady {
		return nil, apperror.Validation("study session is not ready")
	}
	if unitIndex < 0 || unitIndex >= len(session.Units) {
		return nil, apperror.New(apperror.KindNotFound, "study unit not found")
	}

	unit := session.Units[unitIndex]
	quiz, err := s.quiz.Generate(ctx, unit, session.Material)
	if err != nil {
		return nil, err
	}

	if _, err := s.update(ctx, id, func(session *entity.StudySession) error {
		session.SetQuiz(unitIndex, quiz, s.now())
		return nil
	}); err != nil {
		return nil, err
	}

	return &dto.QuizResponse{SessionId: id, UnitIndex: unitIndex, Topic: unit.Topic, Quiz: quiz}, nil
}

func (s *studyService) Watch(ctx context.Context, id uuid.UUID, callback func(*dto.SessionResponse)) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.repo.StreamUpdates(ctx, sessionKey(id), func(rec contract.Record) {
		if rec == nil {
			callback(nil)
			return
		}
		session, err := s.mapper.ToEntity(rec)
		if err != nil {
			s.logger.Warn(module, "Skipping undecodable session update", map[string]interface{}{"session_id": id, "error": err})
			return
		}
		callback(s.mapper.ToResponse(session))
	})
}

func (s *studyService) Wait() {
	s.inflight.Wait()
}

func (s *studyService) load(ctx context.Context, id uuid.UUID) (*entity.StudySession, error) {
	rec, found, err := s.repo.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound()
	}
	return s.mapper.ToEntity(rec)
}

func (s *studyService) save(ctx context.Context, session *entity.StudySession) error {
	rec, err := s.mapper.ToRecord(session)
	if err != nil {
		return err
	}
	return s.repo.Save(ctx, sessionKey(session.Id), rec)
}

// update applies fn to the stored session under a per-session lock.
func (s *studyService) update(ctx context.Context, id uuid.UUID, fn func(*entity.StudySession) error) (*entity.StudySession, error) {
	defer s.locks.Lock(id)()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	now := s.now()
	session.UpdatedAt = &now
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
