package main

import (
	"fmt"
	"os"

	"go-news-inspector/pkg/models"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	batchFile  string
	batchLimit int
)

// batchCmd generates many articles concurrently
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate articles for every request in a YAML or JSON file",
	Long: `Generate articles for every request in a file of the form

  requests:
    - topic: Local elections
      category: Politics
      tone: neutral
  limit: 2

Failed entries are dropped from the results and listed under failures.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "Batch file (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "Concurrent generations; overrides the file and config (0 keeps them)")
	_ = batchCmd.MarkFlagRequired("file")
}

func runBatch(cmd *cobra.Command, args []string) error {
	req, err := loadBatchFile(batchFile)
	if err != nil {
		return err
	}
	if batchLimit > 0 {
		req.Limit = batchLimit
	}

	result, err := app.Service().GenerateBatch(cmd.Context(), req.Requests, req.Limit)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

// loadBatchFile reads a batch request; JSON files parse as YAML
func loadBatchFile(path string) (models.BatchRequest, error) {
	var req models.BatchRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("reading batch file: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parsing batch file %s: %w", path, err)
	}
	if req.Limit < 0 {
		return req, fmt.Errorf("batch file %s: limit must not be negative", path)
	}
	return req, nil
}
