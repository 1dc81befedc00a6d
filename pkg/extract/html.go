package extract

import (
	"context"
	"errors"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

var (
	errInvalidUTF8 = errors.New("content is not valid UTF-8")

	// Elements that never carry study material.
	noisyElementRe = regexp.MustCompile(`(?is)<(script|style|nav|footer|noscript)\b.*?</(script|style|nav|footer|noscript)>`)
	excessNewlines = regexp.MustCompile(`\n{3,}`)
)

func newConverter() *md.Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return converter
}

func htmlToText(_ context.Context, data []byte) (string, error) {
	cleaned := noisyElementRe.ReplaceAllString(string(data), "")
	markdown, err := newConverter().ConvertString(cleaned)
	if err != nil {
		return "", err
	}
	markdown = excessNewlines.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown), nil
}
