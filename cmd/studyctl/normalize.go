package main

import (
	"fmt"

	"ai-study-assistant-be/pkg/rag/normalize"

	"github.com/spf13/cobra"
)

var showParagraphs bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Print the normalized text of a material file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := loadMaterial(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		normalized := normalize.Normalize(text)

		if !showParagraphs {
			fmt.Println(normalized)
			return nil
		}

		paragraphs := normalize.Paragraphs(normalized)
		header("%d paragraphs", len(paragraphs))
		for i, p := range paragraphs {
			mutedColor.Printf("[p-%d] ", i+1)
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().BoolVar(&showParagraphs, "paragraphs", false, "List paragraphs with their ids")
}
