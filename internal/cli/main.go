package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ndelia/storycut/internal/logging"
	"github.com/ndelia/storycut/internal/pipeline"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "storycut",
		Short:        "Turn a folder of raw clips into an AI-planned edit",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newShotListCmd())
	root.AddCommand(newRenderCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.New(level)
}

// serviceConfig assembles the endpoint configuration from environment
// variables, with the --api-key flag taking precedence over the environment.
func serviceConfig(cmd *cobra.Command) pipeline.ServiceConfig {
	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = os.Getenv("AZURE_OPENAI_API_KEY")
	}

	var suffixes []string
	if hosts := os.Getenv("AZURE_OPENAI_ALLOWED_DOMAINS"); hosts != "" {
		for _, h := range strings.Split(hosts, ",") {
			if h = strings.TrimSpace(h); h != "" {
				suffixes = append(suffixes, h)
			}
		}
	}

	return pipeline.ServiceConfig{
		Endpoint:                os.Getenv("AZURE_OPENAI_ENDPOINT"),
		APIKey:                  apiKey,
		Deployment:              getenvDefault("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-mini"),
		APIVersion:              getenvDefault("AZURE_OPENAI_API_VERSION", "2024-12-01-preview"),
		AllowedEndpointSuffixes: suffixes,
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
