package main

import (
	"fmt"
	"strings"

	"ai-study-assistant-be/internal/config"
	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/rag/executor"

	"github.com/spf13/cobra"
)

var (
	askStream     bool
	askStructured bool
	askVerbose    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [file] [question]",
	Short: "Answer a question about a material file with the configured backends",
	Long: `Answer a question grounded on a material file.

Examples:
  studyctl ask biology.md "What does meiosis produce?"
  studyctl ask notes.html "Explain osmosis" --stream
  studyctl ask lecture.txt "Summarize the causes" --note summary.txt --structured`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	addRetrievalFlags(askCmd)
	askCmd.Flags().BoolVar(&askStream, "stream", false, "Print the answer as it is generated")
	askCmd.Flags().BoolVar(&askStructured, "structured", false, "Request answer and key points as JSON")
	askCmd.Flags().BoolVar(&askVerbose, "verbose", false, "Log pipeline progress to stderr")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	var log logger.ILogger = logger.NewNopLogger()
	if askVerbose {
		log = logger.NewZapLogger(cfg.App.LogFilePath, false)
	}

	orch, err := newOrchestrator(cfg, log)
	if err != nil {
		return err
	}

	in, err := answerInput(cmd, cfg, args[0], args[1])
	if err != nil {
		return err
	}
	in.Structured = askStructured

	header("Question")
	fmt.Println(args[1])
	header("Answer")

	answer := newAnswerExecutor(cfg, orch, log)
	var res *executor.AnswerResult
	if askStream {
		res, err = answer.Stream(cmd.Context(), in, func(fragment string) error {
			fmt.Print(fragment)
			return nil
		})
		fmt.Println()
	} else {
		res, err = answer.Answer(cmd.Context(), in)
		if err == nil && res.Sections != nil {
			fmt.Println(res.Sections.Answer)
		} else if err == nil {
			fmt.Println(res.Text)
		}
	}
	if err != nil {
		return err
	}

	if res.Sections != nil && !askStream {
		if res.SectionsFallback {
			warnColor.Println("\n(answer was not valid JSON, shown as plain text)")
		}
		for _, p := range res.Sections.KeyPoints {
			okColor.Print("  - ")
			fmt.Println(p)
		}
	}

	mutedColor.Printf("\nprovider: %s  sources: %s\n", res.ProviderUsed, strings.Join(res.Sources, ", "))
	return nil
}
