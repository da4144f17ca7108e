package main

import (
	"go-news-inspector/pkg/models"

	"github.com/spf13/cobra"
)

var generateReq models.GenerationRequest

// generateCmd writes and illustrates one article
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an illustrated article",
	Long: `Generate an article, render an illustration and store it.

Only a failure to write the text is fatal. When the image cannot be rendered
or stored the article is printed without an image URL and the outcome shows
which stage failed.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateReq.Topic, "topic", "", "Article topic")
	generateCmd.Flags().StringVar(&generateReq.Category, "category", "", "Article category")
	generateCmd.Flags().StringVar(&generateReq.Tone, "tone", "", "Writing tone")
	generateCmd.Flags().StringVar(&generateReq.ArticleSnippet, "snippet", "", "Source snippet to base the article on")
	generateCmd.Flags().StringVar(&generateReq.CustomPrompt, "prompt", "", "Custom prompt replacing topic, category and tone")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	result, err := app.Service().Generate(cmd.Context(), generateReq)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}
