package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"ai-study-assistant-be/internal/config"
	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/extract"
	"ai-study-assistant-be/pkg/llm"
	"ai-study-assistant-be/pkg/llm/factory"
	"ai-study-assistant-be/pkg/llm/orchestrator"

	"github.com/spf13/cobra"
)

var mimeFlag string

var rootCmd = &cobra.Command{
	Use:   "studyctl",
	Short: "studyctl - inspect the study assistant pipeline on local files",
	Long: `studyctl runs the study assistant pipeline offline.

It normalizes and chunks material, shows which passages the context
selector keeps for a question, and asks the configured generation
backends. Backends are configured with the same environment variables
as the REST server (AI_PRIMARY_PROVIDER, AI_SECONDARY_PROVIDER, ...).

Pass "-" as the file to read material from stdin.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mimeFlag, "mime", "", "Material MIME type (default: guessed from the file)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		errorColor.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

var extensionMimes = map[string]string{
	".txt":      extract.MimePlain,
	".md":       extract.MimeMarkdown,
	".markdown": extract.MimeMarkdown,
	".html":     extract.MimeHTML,
	".htm":      extract.MimeHTML,
	".json":     extract.MimeJSON,
}

// loadMaterial reads a file (or stdin) and extracts its plain text.
func loadMaterial(ctx context.Context, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read material: %w", err)
	}

	mimeType := mimeFlag
	if mimeType == "" {
		mimeType = extensionMimes[strings.ToLower(filepath.Ext(path))]
	}
	return extract.NewRegistry().Extract(ctx, data, mimeType)
}

func newOrchestrator(cfg *config.Config, log logger.ILogger) (*orchestrator.Orchestrator, error) {
	primary, err := factory.NewLLMProvider(cfg.Ai.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary provider: %w", err)
	}
	var secondary llm.LLMProvider
	if cfg.Ai.Secondary.Type != "" {
		if secondary, err = factory.NewLLMProvider(cfg.Ai.Secondary); err != nil {
			return nil, fmt.Errorf("secondary provider: %w", err)
		}
	}
	return orchestrator.New(primary, secondary, log, orchestrator.WithCallTimeout(cfg.Ai.CallTimeout)), nil
}
