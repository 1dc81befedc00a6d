// Package structured recovers JSON payloads from free-form model output.
package structured

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"ai-study-assistant-be/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNoJSONObject = errors.New("no JSON object in output")

	fencePattern         = regexp.MustCompile("```[a-zA-Z]*")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// ExtractJSON strips Markdown fences and returns the text from the first "{" to
// the last "}".
func ExtractJSON(raw string) (string, error) {
	text := fencePattern.ReplaceAllString(raw, "")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

// Parsed holds either a decoded value or the fallback used in its place.
type Parsed[T any] struct {
	Value    T
	Fallback bool
	Raw      string
	Err      error
}

// Parse decodes raw into T and validates it. Any failure is an apperror of kind
// parse carrying raw.
func Parse[T any](raw string) (T, error) {
	var v T

	payload, err := ExtractJSON(raw)
	if err != nil {
		return v, apperror.Parse("model output contains no JSON object", raw, err)
	}

	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		// Models often leave a trailing comma behind; one cleanup pass only.
		cleaned := trailingCommaPattern.ReplaceAllString(payload, "$1")
		v = *new(T)
		if retryErr := json.Unmarshal([]byte(cleaned), &v); retryErr != nil {
			return v, apperror.Parse("model output is not valid JSON", raw, err)
		}
	}

	if n, ok := any(&v).(interface{ Normalize() }); ok {
		n.Normalize()
	}
	if reflect.Indirect(reflect.ValueOf(v)).Kind() == reflect.Struct {
		if err := validate.Struct(v); err != nil {
			return v, apperror.Parse("model output does not match the expected shape", raw, err)
		}
	}
	if c, ok := any(v).(interface{ Validate() error }); ok {
		if err := c.Validate(); err != nil {
			return v, apperror.Parse("model output does not match the expected shape", raw, err)
		}
	}
	return v, nil
}

// ParseOr never fails: parse errors are absorbed and fallback supplies the value.
func ParseOr[T any](raw string, fallback func() T) Parsed[T] {
	v, err := Parse[T](raw)
	if err != nil {
		return Parsed[T]{Value: fallback(), Fallback: true, Raw: raw, Err: err}
	}
	return Parsed[T]{Value: v, Raw: raw}
}
