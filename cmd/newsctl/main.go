package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go-news-inspector/internal/config"
	"go-news-inspector/internal/container"
	apperrors "go-news-inspector/internal/errors"
	"go-news-inspector/internal/logger"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	logLevel   string

	app *container.Container
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "newsctl",
	Short: "Detect fake news and generate illustrated articles",
	Long: `newsctl runs the news inspector pipelines from the command line.

Results are printed to stdout as JSON; logs go to stderr.
Configuration is read the same way as the API server: defaults, then the YAML
file named by --config or NEWS_INSPECTOR_CONFIG, then .env and the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetOutput(os.Stderr)

		path := configFile
		if path == "" {
			path = os.Getenv(config.ConfigFileEnv)
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		app, err = container.NewContainer(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (or set "+config.ConfigFileEnv+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// describe renders classified failures with their kind and stage
func describe(err error) string {
	var classified *apperrors.ClassifiedError
	if errors.As(err, &classified) {
		return fmt.Sprintf("Error [%s/%s]: %s", classified.Stage, classified.Kind, classified.Message)
	}
	return "Error: " + err.Error()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
