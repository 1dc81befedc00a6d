package main

import (
	"fmt"

	"ai-study-assistant-be/pkg/rag/executor"
	"ai-study-assistant-be/pkg/rag/normalize"
	"ai-study-assistant-be/pkg/utils"

	"github.com/spf13/cobra"
)

var (
	chunkChars   int
	chunkOverlap int
	chunkPreview int
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Split material into the chunks sent to extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := loadMaterial(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		normalized := normalize.Normalize(text)

		// Overlapping character windows, for comparing against paragraph chunks.
		if chunkOverlap > 0 {
			windows := utils.SplitText(normalized, chunkChars, chunkOverlap)
			header("%d windows (%d chars, %d overlap)", len(windows), chunkChars, chunkOverlap)
			for i, w := range windows {
				okColor.Printf("%-10s", fmt.Sprintf("w-%d", i+1))
				mutedColor.Printf(" %6d chars  ", len(w))
				fmt.Println(preview(w, chunkPreview))
			}
			return nil
		}

		chunks := utils.ChunkText(normalized, chunkChars)
		header("%d chunks (max %d chars)", len(chunks), chunkChars)
		for _, c := range chunks {
			okColor.Printf("%-10s", c.ID)
			mutedColor.Printf(" %6d chars  ", len(c.Text))
			fmt.Println(preview(c.Text, chunkPreview))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().IntVar(&chunkChars, "chars", executor.DefaultChunkChars, "Maximum characters per chunk")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", 0, "Show overlapping windows with this overlap instead of paragraph chunks")
	chunkCmd.Flags().IntVar(&chunkPreview, "preview", 80, "Characters of each chunk to print (0 prints everything)")
}
