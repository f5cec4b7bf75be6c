package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ndelia/storycut/internal/pipeline"
)

func newShotListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shotlist <analysis.json>",
		Short: "Generate an ordered shot list from an analysis report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShotList(cmd, args[0])
		},
	}

	cmd.Flags().StringP("output", "o", "", "Path for the shot list JSON (defaults to <input>_shot_list.json)")
	cmd.Flags().String("api-key", "", "Azure OpenAI API key (overrides AZURE_OPENAI_API_KEY)")
	cmd.Flags().StringP("storyline", "s", "", "Creative direction for the storyline")
	cmd.Flags().String("storyline-file", "", "Path to a text file with storyline guidance")
	return cmd
}

func runShotList(cmd *cobra.Command, inputJSON string) error {
	output, _ := cmd.Flags().GetString("output")

	guidance, err := storylineGuidance(cmd)
	if err != nil {
		return err
	}

	cfg := pipeline.ShotListConfig{
		InputJSON:  inputJSON,
		OutputPath: output,
		Guidance:   guidance,
		Service:    serviceConfig(cmd),
		Log:        newLogger(cmd),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Minute)
	defer cancel()

	outcome, err := pipeline.RunShotList(ctx, cfg)
	if err != nil {
		return err
	}

	if !outcome.Valid {
		cmd.Println("Warning: shot list still has format issues; saved as-is")
	}
	cmd.Printf("Shot list saved to: %s\n", outcome.OutputPath)
	return nil
}

func storylineGuidance(cmd *cobra.Command) (string, error) {
	storyline, _ := cmd.Flags().GetString("storyline")
	if storyline != "" {
		return storyline, nil
	}
	file, _ := cmd.Flags().GetString("storyline-file")
	if file == "" {
		return "", nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read storyline file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
