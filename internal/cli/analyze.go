package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ndelia/storycut/internal/pipeline"
	"github.com/ndelia/storycut/internal/ports/adapters/openai"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <folder>",
		Short: "Probe and describe every clip in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0])
		},
	}

	cmd.Flags().StringP("output", "o", "", "Path for the analysis JSON (defaults to <folder>/<folder>_analysis.json)")
	cmd.Flags().String("api-key", "", "Azure OpenAI API key (overrides AZURE_OPENAI_API_KEY)")
	cmd.Flags().Bool("test-only", false, "Only test the API connection, do not analyze")
	cmd.Flags().Bool("shot-list", false, "Also generate a shot list from the fresh analysis")
	cmd.Flags().StringP("storyline", "s", "", "Creative direction for the chained shot list")
	return cmd
}

func runAnalyze(cmd *cobra.Command, folder string) error {
	output, _ := cmd.Flags().GetString("output")
	testOnly, _ := cmd.Flags().GetBool("test-only")
	withShotList, _ := cmd.Flags().GetBool("shot-list")
	storyline, _ := cmd.Flags().GetString("storyline")

	svc := serviceConfig(cmd)
	log := newLogger(cmd)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Hour)
	defer cancel()

	if testOnly {
		if err := svc.Validate(); err != nil {
			return err
		}
		llm := openai.New(openai.Config{
			Endpoint:   svc.Endpoint,
			APIKey:     svc.APIKey,
			Deployment: svc.Deployment,
			APIVersion: svc.APIVersion,
		})
		if err := llm.Ping(ctx); err != nil {
			return fmt.Errorf("API connection test failed: %w", err)
		}
		cmd.Println("Successfully connected to the inference endpoint")
		return nil
	}

	cfg := pipeline.AnalyzeConfig{
		Folder:       folder,
		OutputPath:   output,
		WithShotList: withShotList,
		Guidance:     storyline,
		Service:      svc,
		Log:          log,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	outcome, err := pipeline.RunAnalyze(ctx, cfg)
	if err != nil {
		return err
	}

	cmd.Println("Video Analysis Summary:")
	cmd.Printf("Total videos analyzed: %d\n", outcome.Report.TotalVideos)
	for _, v := range outcome.Report.Videos {
		cmd.Printf("\n--- %s ---\n", v.Filename)
		if v.Error != "" {
			cmd.Println(v.Error)
			continue
		}
		if v.VideoDescription != "" {
			cmd.Println(v.VideoDescription)
		} else {
			cmd.Println("No analysis available")
		}
	}
	cmd.Printf("\nFull analysis saved to: %s\n", outcome.OutputPath)
	if outcome.ShotListPath != "" {
		cmd.Printf("Shot list saved to: %s\n", outcome.ShotListPath)
	}
	return nil
}
