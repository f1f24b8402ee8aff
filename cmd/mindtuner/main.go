// Package main implements the mindtuner CLI for generating personalized
// meditations and managing ratings from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mindtuner/mindtuner-go/pkg/core"
)

var (
	// envFile is an explicit .env file to load.
	envFile string
	// configFile is a JSON or YAML configuration file.
	configFile string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mindtuner",
	Short: "Personalized guided meditations driven by user feedback",
	Long: `mindtuner generates guided meditation scripts, records user ratings and
uses the rating history to personalize the next meditation.

Configuration is read from a JSON or YAML file (--config), an explicit
.env file (--env-file) or the environment.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a JSON or YAML config file")
}

func loadConfig() (*core.Config, error) {
	switch {
	case configFile != "":
		return core.LoadConfigFromFile(configFile)
	case envFile != "":
		return core.LoadConfigFromEnvFile(envFile)
	default:
		return core.LoadConfigFromEnv()
	}
}

// withClient builds a client for the duration of fn.
func withClient(ctx context.Context, fn func(*core.Client) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := core.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, err := core.NewClient(ctx, cfg, core.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close client", zap.Error(err))
		}
	}()

	return fn(client)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// parseTags splits a comma separated tag list, dropping blanks.
func parseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
