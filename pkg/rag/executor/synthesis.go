package executor

import (
	"context"
	"strings"

	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/apperror"
	"ai-study-assistant-be/pkg/llm"
	"ai-study-assistant-be/pkg/llm/structured"
	"ai-study-assistant-be/pkg/rag/normalize"
	"ai-study-assistant-be/pkg/rag/prompt"
	"ai-study-assistant-be/pkg/store"
	"ai-study-assistant-be/pkg/utils"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkChars = 6000
	DefaultWorkers    = 4
)

type SynthesisResult struct {
	Material        string
	Chunks          []store.Chunk
	Notes           string
	Units           []structured.StudyUnit
	Outline         []structured.OutlineTopic
	UnitsFallback   bool
	OutlineFallback bool
	ProviderUsed    llm.Tier
}

type SynthesisExecutor struct {
	gen        Generator
	logger     logger.ILogger
	chunkChars int
	workers    int
}

func NewSynthesisExecutor(gen Generator, log logger.ILogger, chunkChars, workers int) *SynthesisExecutor {
	if chunkChars <= 0 {
		chunkChars = DefaultChunkChars
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &SynthesisExecutor{gen: gen, logger: log, chunkChars: chunkChars, workers: workers}
}

// Run normalizes and chunks the material, extracts notes per chunk concurrently,
// then runs the synthesis and outline passes in order.
func (e *SynthesisExecutor) Run(ctx context.Context, rawText string) (*SynthesisResult, error) {
	material := normalize.Normalize(rawText)
	if material == "" {
		return nil, apperror.Validation("material contains no readable text")
	}

	chunks := utils.ChunkText(material, e.chunkChars)
	e.logger.Info("Synthesis", "Material chunked", map[string]interface{}{
		"chars":  len([]rune(material)),
		"chunks": len(chunks),
	})

	notes, err := e.extract(ctx, chunks)
	if err != nil {
		return nil, err
	}
	merged := strings.Join(notes, "\n\n")

	res := &SynthesisResult{Material: material, Chunks: chunks, Notes: merged}

	synth, err := e.gen.Generate(ctx, prompt.Synthesis(merged))
	if err != nil {
		return nil, err
	}
	res.ProviderUsed = synth.ProviderUsed

	units := structured.ParseOr(synth.Text, func() structured.Synthesis {
		return structured.SynthesisFallback(merged)
	})
	if units.Fallback {
		e.logger.Warn("Synthesis", "Synthesis output unparseable, using merged notes", map[string]interface{}{
			"error": units.Err,
			"raw":   truncate(units.Raw, 200),
		})
	}
	res.Units = units.Value.Units
	res.UnitsFallback = units.Fallback

	topics := make([]string, len(res.Units))
	for i, u := range res.Units {
		topics[i] = u.Topic
	}
	chunkIDs := make([]string, len(chunks))
	for i, c := range chunks {
		chunkIDs[i] = c.ID
	}

	out, err := e.gen.Generate(ctx, prompt.Outline(topics, chunks))
	if err != nil {
		return nil, err
	}
	outline := structured.ParseOr(out.Text, func() structured.Outline {
		return structured.OutlineFallback(chunkIDs)
	})
	if outline.Fallback {
		e.logger.Warn("Synthesis", "Outline output unparseable, using default outline", map[string]interface{}{
			"error": outline.Err,
			"raw":   truncate(outline.Raw, 200),
		})
	}
	res.Outline = outline.Value.Outline
	res.OutlineFallback = outline.Fallback

	e.logger.Info("Synthesis", "Material synthesized", map[string]interface{}{
		"units":            len(res.Units),
		"outline_topics":   len(res.Outline),
		"units_fallback":   res.UnitsFallback,
		"outline_fallback": res.OutlineFallback,
	})
	return res, nil
}

func (e *SynthesisExecutor) extract(ctx context.Context, chunks []store.Chunk) ([]string, error) {
	notes := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			out, err := e.gen.Generate(gctx, prompt.Extraction(chunk))
			if err != nil {
				e.logger.Error("Synthesis", "Chunk extraction failed", map[string]interface{}{
					"chunk": chunk.ID,
					"error": err,
				})
				return err
			}
			notes[i] = strings.TrimSpace(out.Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return notes, nil
}
