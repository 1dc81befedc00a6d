package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"ai-study-assistant-be/internal/dto"
	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/internal/pkg/serverutils"
	"ai-study-assistant-be/internal/repository/memory"
	"ai-study-assistant-be/internal/repository/updates"
	"ai-study-assistant-be/internal/service"
	"ai-study-assistant-be/pkg/extract"
	"ai-study-assistant-be/pkg/llm"
	"ai-study-assistant-be/pkg/llm/orchestrator"
	"ai-study-assistant-be/pkg/rag/executor"
	"ai-study-assistant-be/pkg/rag/scoring"
	"ai-study-assistant-be/pkg/rag/selector"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const material = "Mitosis produces two identical daughter cells from one parent cell.\n\n" +
	"Meiosis produces four gametes with half the chromosome number."

func newTestApp(t *testing.T, p llm.LLMProvider) *fiber.App {
	t.Helper()
	bus := updates.NewBus()
	t.Cleanup(func() { _ = bus.Close() })

	log := logger.NewNopLogger()
	orch := orchestrator.New(p, nil, log)
	sel := selector.New(selector.DefaultConfig())
	stop := scoring.NewStopList(scoring.DefaultStopWords)
	svc := service.NewStudyService(
		memory.NewRecordRepository(time.Hour, bus),
		extract.NewRegistry(),
		executor.NewSynthesisExecutor(orch, log, 0, 2),
		executor.NewAnswerExecutor(orch, scoring.NewScorer(scoring.DefaultWeights()), sel, stop, log),
		executor.NewQuizExecutor(orch, sel, stop, log),
		nil,
		log,
	)
	t.Cleanup(svc.Wait)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewStudyController(svc).RegisterRoutes(app.Group("/api"))
	return app
}

func backend() *llm.MockProvider {
	return &llm.MockProvider{GenerateFunc: func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, `<material id="`):
			return "- notes", nil
		case strings.Contains(prompt, `{"units"`):
			return `{"units":[{"topic":"Cell Division","content":"Mitosis and meiosis"}]}`, nil
		case strings.Contains(prompt, `{"outline"`):
			return "no outline today", nil
		case strings.Contains(prompt, `{"questions"`):
			return `{"questions":[]}`, nil
		}
		return "Four gametes.", nil
	}}
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Raw     string          `json:"raw"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return resp.StatusCode, env
}

func jsonRequest(method, url string, v interface{}) *http.Request {
	b, _ := json.Marshal(v)
	req := httptest.NewRequest(method, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func createSession(t *testing.T, app *fiber.App) dto.SessionResponse {
	t.Helper()
	code, env := do(t, app, jsonRequest("POST", "/api/study/v1/sessions/text", dto.CreateTextSessionRequest{Title: "Bio", Text: material}))
	require.Equal(t, 200, code, env.Message)
	var s dto.SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &s))
	return s
}

func TestStudyController_TextSessionLifecycle(t *testing.T) {
	app := newTestApp(t, backend())
	s := createSession(t, app)

	assert.Equal(t, "ready", s.Status)
	assert.True(t, s.OutlineFallback)
	require.Len(t, s.Outline, 1)
	assert.Equal(t, "Overview", s.Outline[0].Topic)

	code, env := do(t, app, httptest.NewRequest("GET", "/api/study/v1/sessions/"+s.Id.String(), nil))
	assert.Equal(t, 200, code)
	assert.True(t, env.Success)

	code, _ = do(t, app, jsonRequest("PUT", "/api/study/v1/sessions/"+s.Id.String()+"/sources", dto.UpdateSourcesRequest{
		Notes: []dto.SourceItem{{Id: "n1", Text: "Meiosis creates gametes during sexual reproduction cycles."}},
	}))
	assert.Equal(t, 200, code)

	code, env = do(t, app, jsonRequest("POST", "/api/study/v1/sessions/"+s.Id.String()+"/ask", dto.AskRequest{Question: "What does meiosis produce?"}))
	require.Equal(t, 200, code)
	var ans dto.AskResponse
	require.NoError(t, json.Unmarshal(env.Data, &ans))
	assert.Equal(t, "Four gametes.", ans.Answer)
	assert.Contains(t, ans.Sources, "note:n1")

	code, _ = do(t, app, httptest.NewRequest("DELETE", "/api/study/v1/sessions/"+s.Id.String(), nil))
	assert.Equal(t, 200, code)

	code, env = do(t, app, httptest.NewRequest("GET", "/api/study/v1/sessions/"+s.Id.String(), nil))
	assert.Equal(t, 404, code)
	assert.Equal(t, "not_found", env.Kind)
}

func TestStudyController_QuizParseErrorCarriesRaw(t *testing.T) {
	app := newTestApp(t, backend())
	s := createSession(t, app)

	code, env := do(t, app, httptest.NewRequest("POST", "/api/study/v1/sessions/"+s.Id.String()+"/units/0/quiz", nil))
	assert.Equal(t, 502, code)
	assert.Equal(t, "parse", env.Kind)
	assert.Equal(t, `{"questions":[]}`, env.Raw)
}

func TestStudyController_Upload(t *testing.T) {
	app := newTestApp(t, backend())

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("async", "true"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="cells.html"`)
	h.Set("Content-Type", "text/html")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("<h1>Cells</h1><p>" + material + "</p>"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/study/v1/sessions", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	code, env := do(t, app, req)
	assert.Equal(t, 202, code)
	var s dto.SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, "processing", s.Status)
	assert.Equal(t, "cells.html", s.Title)
}

func TestStudyController_Errors(t *testing.T) {
	app := newTestApp(t, &llm.MockProvider{Response: ""})

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
		wantKind string
	}{
		{"bad id", httptest.NewRequest("GET", "/api/study/v1/sessions/nope", nil), 400, "validation"},
		{"missing text", jsonRequest("POST", "/api/study/v1/sessions/text", map[string]string{"title": "x"}), 400, "validation"},
		{"unsupported mime", jsonRequest("POST", "/api/study/v1/sessions/text", dto.CreateTextSessionRequest{Text: "x", MimeType: "application/pdf"}), 422, "extraction"},
		{"backend unavailable", jsonRequest("POST", "/api/study/v1/sessions/text", dto.CreateTextSessionRequest{Text: material}), 503, "unavailable"},
		{"upload without file", httptest.NewRequest("POST", "/api/study/v1/sessions", nil), 400, "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, app, tt.req)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantKind, env.Kind)
			assert.False(t, env.Success)
		})
	}
}
