package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go-news-inspector/pkg/models"

	"github.com/spf13/cobra"
)

var (
	detectMethod string
	detectFile   string
)

// detectCmd classifies an article as real or fake
var detectCmd = &cobra.Command{
	Use:   "detect [text...]",
	Short: "Classify an article as real or fake",
	Long: `Classify an article with the custom classifier or the generative model.

The text is taken from the arguments, from --file, or from stdin when
neither is given. HTML is reduced to its visible text.`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVarP(&detectMethod, "method", "m", string(models.MethodCustom), "Detection method: custom or llm")
	detectCmd.Flags().StringVarP(&detectFile, "file", "f", "", "Read the article from a file ('-' for stdin)")
}

func runDetect(cmd *cobra.Command, args []string) error {
	text, err := readArticle(args, detectFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	result, err := app.Service().Detect(cmd.Context(), models.AnalysisRequest{
		Text:   text,
		Method: models.DetectionMethod(detectMethod),
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

// readArticle prefers positional text, then the file, then stdin
func readArticle(args []string, file string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	var (
		data []byte
		err  error
	)
	switch file {
	case "", "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("reading article: %w", err)
	}
	return string(data), nil
}
