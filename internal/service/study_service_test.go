package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-study-assistant-be/internal/dto"
	"ai-study-assistant-be/internal/entity"
	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/internal/repository/memory"
	"ai-study-assistant-be/internal/repository/updates"
	"ai-study-assistant-be/pkg/apperror"
	"ai-study-assistant-be/pkg/events"
	"ai-study-assistant-be/pkg/extract"
	"ai-study-assistant-be/pkg/llm"
	"ai-study-assistant-be/pkg/llm/orchestrator"
	"ai-study-assistant-be/pkg/rag/executor"
	"ai-study-assistant-be/pkg/rag/scoring"
	"ai-study-assistant-be/pkg/rag/selector"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const material = "Mitosis produces two identical daughter cells from one parent cell.\n\n" +
	"Meiosis produces four gametes with half the chromosome number."

const quizJSON = `{"questions":[
{"question":"Q1","options":["a","b","c","d"],"answer":"a","taxonomy":"Remembering","explanation":""},
{"question":"Q2","options":["a","b","c","d"],"answer":"b","taxonomy":"Understanding","explanation":""},
{"question":"Q3","options":["a","b","c","d"],"answer":"c","taxonomy":"Applying","explanation":""},
{"question":"Q4","options":["a","b","c","d"],"answer":"d","taxonomy":"Analyzing","explanation":""},
{"question":"Q5","options":["a","b","c","d"],"answer":"a","taxonomy":"Evaluating","explanation":""}]}`

// studyBackend answers every pass of the pipeline with canned output.
func studyBackend() *llm.MockProvider {
	return &llm.MockProvider{
		GenerateFunc: func(_ context.Context, prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, `<material id="`):
				return "- notes", nil
			case strings.Contains(prompt, `{"units"`):
				return `{"units":[{"topic":"Cell Division","content":"Mitosis and meiosis"}]}`, nil
			case strings.Contains(prompt, `{"outline"`):
				return `{"outline":[{"topic":"Cell Division","relevant_chunks":["chunk-1"]}]}`, nil
			case strings.Contains(prompt, `{"questions"`):
				return quizJSON, nil
			}
			return "Meiosis produces four gametes.", nil
		},
		Fragments: []string{"Meiosis ", "produces ", "gametes."},
	}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakePublisher) Publish(_ context.Context, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestService(t *testing.T, p llm.LLMProvider, pub EventPublisher) IStudyService {
	t.Helper()
	bus := updates.NewBus()
	t.Cleanup(func() { _ = bus.Close() })

	log := logger.NewNopLogger()
	orch := orchestrator.New(p, nil, log)
	sel := selector.New(selector.DefaultConfig())
	stop := scoring.NewStopList(scoring.DefaultStopWords)

	return NewStudyService(
		memory.NewRecordRepository(time.Hour, bus),
		extract.NewRegistry(),
		executor.NewSynthesisExecutor(orch, log, 0, 2),
		executor.NewAnswerExecutor(orch, scoring.NewScorer(scoring.DefaultWeights()), sel, stop, log),
		executor.NewQuizExecutor(orch, sel, stop, log),
		NewPublisherService(pub),
		log,
	)
}

func TestStudyService_CreateFromText(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, studyBackend(), pub)
	ctx := context.Background()

	res, err := svc.CreateFromText(ctx, &dto.CreateTextSessionRequest{Title: " Biology ", Text: material})
	require.NoError(t, err)

	assert.Equal(t, "Biology", res.Title)
	assert.Equal(t, string(entity.SessionReady), res.Status)
	require.Len(t, res.Units, 1)
	assert.Equal(t, "Cell Division", res.Units[0].Topic)
	assert.Equal(t, 1, res.ChunkCount)
	assert.Equal(t, 1, pub.count())

	shown, err := svc.Show(ctx, res.Id)
	require.NoError(t, err)
	assert.Equal(t, res.Units, shown.Units)
}

func TestStudyService_CreateAsync(t *testing.T) {
	svc := newTestService(t, studyBackend(), nil)
	ctx := context.Background()

	res, err := svc.CreateFromText(ctx, &dto.CreateTextSessionRequest{Text: material, Async: true})
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionProcessing), res.Status)
	assert.Equal(t, defaultTitle, res.Title)

	svc.Wait()

	shown, err := svc.Show(ctx, res.Id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionReady), shown.Status)
}

func TestStudyService_SynthesisFailureMarksSession(t *testing.T) {
	svc := newTestService(t, &llm.MockProvider{Err: errors.New("connection refused")}, nil)
	ctx := context.Background()

	res, err := svc.CreateFromText(ctx, &dto.CreateTextSessionRequest{Text: material, Async: true})
	require.NoError(t, err)
	svc.Wait()

	shown, err := svc.Show(ctx, res.Id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionFailed), shown.Status)
	require.NotNil(t, shown.Error)
	assert.Equal(t, string(apperror.KindUnavailable), shown.Error.Kind)
}

func TestStudyService_CreateFromUploadRejectsUnsupported(t *testing.T) {
	svc := newTestService(t, studyBackend(), nil)
	_, err := svc.CreateFromUpload(context.Background(), &dto.CreateSessionRequest{}, []byte("%PDF-1.7"), "application/pdf")
	assert.True(t, apperror.Is(err, apperror.KindExtraction))
}

func TestStudyService_AskUsesSources(t *testing.T) {
	p := studyBackend()
	svc := newTestService(t, p, nil)
	ctx := context.Background()

	res, err := svc.CreateFromText(ctx, &dto.CreateTextSessionRequest{Text: material})
	require.NoError(t, err)

	upd, err := svc.UpdateSources(ctx, res.Id, &dto.UpdateSourcesRequest{
		Notes:         []dto.SourceItem{{Id: "n1", Text: "Meiosis creates gametes during sexual reproduction cycles."}},
		Conversations: []dto.SourceItem{{Id: "c1", Text: "Group chat says meiosis happens in gonads only."}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, upd.Count)

	ans, err := svc.Ask(ctx, res.Id, &dto.AskRequest{Question: "Where does meiosis happen?"})
	require.NoError(t, err)
	assert.Equal(t, "Meiosis produces four gametes.", ans.Answer)
	assert.Equal(t, "primary", ans.Provider)
	assert.Contains(t, ans.Sources, "note:n1")
	assert.Contains(t, ans.Sources, "conversation:c1")

	var fragments []string
	streamed, err := svc.StreamAsk(ctx, res.Id, &dto.AskRequest{Question: "meiosis?"}, func(f string) error {
		fragments = append(fragments, f)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Meiosis ", "produces ", "gametes."}, fragments)
	assert.Equal(t, "Meiosis produces gametes.", streamed.Answer)
}

func TestStudyService_DeleteReleasesSessionLock(t *testing.T) {
	svc := newTestService(t, studyBackend(), nil)
	ctx := context.Background()

	res, err := svc.CreateFromText(ctx, &dto.CreateTextSessionRequest{Text: material})
	require.NoError(t, err)
	_, err = svc.UpdateSources(ctx, res.Id, &dto.UpdateSourcesRequest{
		Notes: []dto.SourceItem{{Id: "n1", Text: "Meiosis creates gametes during sexual reproduction cycles."}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, res.Id))

	assert.Zero(t, svc.(*studyService).locks.Len())
}

func TestStudyService_AskInlineKeywords(t *testing.T) {
	p := studyBackend()
	svc := newTestService(t, p, nil)
	ctx := context.Background()

	res, err := svc.CreateFromText(ctx, &dto.CreateTextSessionRequest{Text: material})
	require.NoError(t, err)

	_, err = svc.Ask(ctx, res.Id, &dto.AskRequest{Question: "/kw:gametes What is produced?"})
	require.NoError(t, err)

	prompts := p.Prompts()
	last := prompts[len(prompts)-1]
	assert.Contains(t, last, "What is produced?")
	assert.NotContains(t, last, "/kw:")

	_, err = svc.Ask(ctx, res.Id, &dto.AskRequest{Question: "/kw:gametes"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestStudyService_NotFound(t *testing.T) {
	svc := newTestService(t, studyBackend(), nil)
	ctx := context.Background()
	id := uuid.New()

	_, err := svc.Show(ctx, id)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	assert.True(t, apperror.Is(svc.Delete(ctx, id), apperror.KindNotFound))

	_, err = svc.Ask(ctx, id, &dto.AskRequest{Question: "x"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestStudyService_GenerateQuiz(t *testing.T) {
	svc := newTestService(t, studyBackend(), nil)
	ctx := context.Background()

	res, err := svc.CreateFromText(ctx, &dto.CreateTextSessionRequest{Text: material})
	require.NoError(t, err)

	quiz, err := svc.GenerateQuiz(ctx, res.Id, 0)
	require.NoError(t, err)
	assert.Equal(t, "Cell Division", quiz.Topic)
	assert.Len(t, quiz.Quiz.Questions, 5)

	shown, err := svc.Show(ctx, res.Id)
	require.NoError(t, err)
	require.NotNil(t, shown.Units[0].Quiz)

	_, err = svc.GenerateQuiz(ctx, res.Id, 3)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestStudyService_WatchSeesDelete(t *testing.T) {
	svc := newTestService(t, studyBackend(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := svc.CreateFromText(ctx, &dto.CreateTextSessionRequest{Text: material})
	require.NoError(t, err)

	got := make(chan *dto.SessionResponse, 4)
	go func() {
		_ = svc.Watch(ctx, res.Id, func(s *dto.SessionResponse) { got <- s })
	}()

	select {
	case s := <-got:
		require.NotNil(t, s)
		assert.Equal(t, res.Id, s.Id)
	case <-time.After(time.Second):
		t.Fatal("snapshot not delivered")
	}

	require.NoError(t, svc.Delete(ctx, res.Id))
	select {
	case s := <-got:
		assert.Nil(t, s)
	case <-time.After(time.Second):
		t.Fatal("delete not delivered")
	}
}
