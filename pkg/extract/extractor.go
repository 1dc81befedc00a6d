// Package extract turns uploaded bytes into plain text. Binary formats (PDF, Word,
// audio) are handled by an upstream service and arrive here as text.
package extract

import (
	"context"
	"mime"
	"strings"
	"unicode/utf8"

	"ai-study-assistant-be/pkg/apperror"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MimePlain    = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeHTML     = "text/html"
	MimeXHTML    = "application/xhtml+xml"
	MimeJSON     = "application/json"
	MimeLexical  = "application/vnd.lexical+json"
)

// Extractor is the extraction collaborator.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

type HandlerFunc func(ctx context.Context, data []byte) (string, error)

type Registry struct {
	handlers map[string]HandlerFunc
}

var _ Extractor = (*Registry)(nil)

func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]HandlerFunc)}
	r.Register(MimePlain, plainText)
	r.Register(MimeMarkdown, plainText)
	r.Register("text/x-markdown", plainText)
	r.Register(MimeHTML, htmlToText)
	r.Register(MimeXHTML, htmlToText)
	r.Register(MimeLexical, lexicalToText)
	r.Register(MimeJSON, lexicalToText)
	return r
}

func (r *Registry) Register(mimeType string, h HandlerFunc) {
	r.handlers[strings.ToLower(mimeType)] = h
}

func (r *Registry) Supports(mimeType string) bool {
	_, ok := r.handlers[baseType(mimeType)]
	return ok
}

// Extract dispatches on mimeType; an empty or generic type is sniffed from data.
func (r *Registry) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", apperror.Extraction("file is empty", nil)
	}

	mt := baseType(mimeType)
	if mt == "" || mt == "application/octet-stream" {
		mt = baseType(mimetype.Detect(data).String())
	}

	h, ok := r.handlers[mt]
	if !ok {
		return "", apperror.Extraction("unsupported content type "+mt, nil)
	}

	text, err := h(ctx, data)
	if err != nil {
		return "", apperror.Extraction("could not read "+mt+" content", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", apperror.Extraction("no text could be extracted", nil)
	}
	return text, nil
}

func baseType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return strings.ToLower(mt)
	}
	return strings.ToLower(mimeType)
}

func plainText(_ context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}
	return string(data), nil
}
