package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"ai-study-assistant-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
		wantMsg  string
		wantRaw  string
	}{
		{"validation", apperror.Validation("question is required"), 400, "validation", "question is required", ""},
		{"extraction", apperror.Extraction("unsupported content type", nil), 422, "extraction", "unsupported content type", ""},
		{"parse keeps raw", apperror.Parse("bad quiz", "not json", errors.New("x")), 502, "parse", "bad quiz", "not json"},
		{"unavailable", apperror.New(apperror.KindUnavailable, "all providers unavailable"), 503, "unavailable", "all providers unavailable", ""},
		{"not found", apperror.New(apperror.KindNotFound, "session not found"), 404, "not_found", "session not found", ""},
		{"plain error hides message", errors.New("db password leaked"), 500, "internal", "internal server error", ""},
		{"fiber error", fiber.NewError(fiber.StatusBadRequest, "bad body"), 400, "validation", "bad body", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			raw, _ := io.ReadAll(resp.Body)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, tt.wantRaw, body.Raw)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Question string `validate:"required"`
	}
	err := ValidateRequest(req{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, err.Error(), "Question failed on required")

	assert.NoError(t, ValidateRequest(req{Question: "why?"}))
}
