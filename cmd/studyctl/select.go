package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ai-study-assistant-be/internal/config"
	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/rag/executor"
	"ai-study-assistant-be/pkg/rag/scoring"
	"ai-study-assistant-be/pkg/rag/selector"
	"ai-study-assistant-be/pkg/store"

	"github.com/spf13/cobra"
)

var (
	noteFiles         []string
	keywords          []string
	secondaryKeywords []string
	showContext       bool
)

var selectCmd = &cobra.Command{
	Use:   "select [file] [question]",
	Short: "Show which passages the context selector keeps for a question",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		in, err := answerInput(cmd, cfg, args[0], args[1])
		if err != nil {
			return err
		}

		answer := newAnswerExecutor(cfg, nil, logger.NewNopLogger())
		_, sel, err := answer.Prepare(in, false)
		if err != nil {
			return err
		}

		header("%d passages kept (%d chars of %d)", len(sel.Accepted), len(sel.Context), cfg.Retrieval.MaxChars)
		for _, s := range sel.Accepted {
			tag := string(s.Kind) + ":" + s.ID
			if s.Anchor {
				warnColor.Printf("%-16s anchor ", tag)
			} else {
				okColor.Printf("%-16s %6.2f ", tag, s.Score)
			}
			fmt.Println(preview(s.Text, 70))
		}

		if showContext {
			header("Context")
			fmt.Println(sel.Context)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
	addRetrievalFlags(selectCmd)
	selectCmd.Flags().BoolVar(&showContext, "context", false, "Print the assembled context")
}

func addRetrievalFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&noteFiles, "note", nil, "Extra note file to use as a source (repeatable)")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "Primary keywords (default: extracted from the question)")
	cmd.Flags().StringSliceVar(&secondaryKeywords, "secondary", nil, "Secondary keywords")
}

func answerInput(cmd *cobra.Command, cfg *config.Config, path, question string) (executor.AnswerInput, error) {
	material, err := loadMaterial(cmd.Context(), path)
	if err != nil {
		return executor.AnswerInput{}, err
	}

	sources := make([]store.Source, 0, len(noteFiles))
	for _, f := range noteFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			return executor.AnswerInput{}, fmt.Errorf("read note: %w", err)
		}
		id := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		sources = append(sources, store.Source{ID: id, Kind: store.KindNote, Text: string(data)})
	}

	return executor.AnswerInput{
		Question:          question,
		Keywords:          keywords,
		SecondaryKeywords: secondaryKeywords,
		Material:          material,
		Sources:           sources,
	}, nil
}

func newAnswerExecutor(cfg *config.Config, gen executor.Generator, log logger.ILogger) *executor.AnswerExecutor {
	return executor.NewAnswerExecutor(
		gen,
		scoring.NewScorer(cfg.Retrieval.Weights()),
		selector.New(cfg.Retrieval.Selector()),
		scoring.NewStopList(cfg.Retrieval.StopWords),
		log,
	)
}
