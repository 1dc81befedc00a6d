package extract

import (
	"context"
	"testing"

	"ai-study-assistant-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Extract(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	tests := []struct {
		name     string
		data     string
		mimeType string
		contains []string
		absent   []string
	}{
		{
			name:     "plain text passes through",
			data:     "Photosynthesis converts light.",
			mimeType: "text/plain",
			contains: []string{"Photosynthesis converts light."},
		},
		{
			name:     "mime parameters are ignored",
			data:     "Mitochondria",
			mimeType: "text/plain; charset=utf-8",
			contains: []string{"Mitochondria"},
		},
		{
			name:     "markdown is kept as text",
			data:     "# Cells\n\nThe nucleus holds DNA.",
			mimeType: "text/markdown",
			contains: []string{"# Cells", "The nucleus holds DNA."},
		},
		{
			name:     "html is converted and scripts dropped",
			data:     "<html><body><script>alert(1)</script><h1>Cells</h1><p>The <b>nucleus</b> holds DNA.</p></body></html>",
			mimeType: "text/html",
			contains: []string{"# Cells", "**nucleus**"},
			absent:   []string{"alert"},
		},
		{
			name:     "lexical json is flattened",
			data:     `{"root":{"type":"root","children":[{"type":"paragraph","children":[{"type":"text","text":"Enzymes lower activation energy."}]}]}}`,
			mimeType: "application/json",
			contains: []string{"Enzymes lower activation energy."},
		},
		{
			name:     "empty mime is sniffed",
			data:     "Osmosis moves water across membranes.",
			mimeType: "",
			contains: []string{"Osmosis"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Extract(ctx, []byte(tt.data), tt.mimeType)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestRegistry_ExtractErrors(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	tests := []struct {
		name     string
		data     []byte
		mimeType string
	}{
		{name: "empty input", data: nil, mimeType: "text/plain"},
		{name: "unsupported type", data: []byte("%PDF-1.4"), mimeType: "application/pdf"},
		{name: "invalid utf8", data: []byte{0xff, 0xfe, 0xfd}, mimeType: "text/plain"},
		{name: "whitespace only", data: []byte("   \n\n  "), mimeType: "text/plain"},
		{name: "json without lexical root", data: []byte(`{"title":"x"}`), mimeType: "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Extract(ctx, tt.data, tt.mimeType)
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.KindExtraction))
		})
	}
}

func TestRegistry_Supports(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Supports("text/html; charset=utf-8"))
	assert.True(t, r.Supports("TEXT/PLAIN"))
	assert.False(t, r.Supports("application/pdf"))
}
