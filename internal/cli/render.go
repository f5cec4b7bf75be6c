package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ndelia/storycut/internal/pipeline"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <shotlist.json>",
		Short: "Cut and assemble the final video from a shot list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0])
		},
	}

	cmd.Flags().String("clips", "", "Folder containing the source clips (required)")
	cmd.Flags().StringP("output", "o", "", "Path for the rendered video (defaults to final_cut.mp4)")
	cmd.Flags().String("music", "", "Background music file to mux over the final cut")
	cmd.Flags().String("resolution", "", "Normalize all parts to a named resolution (e.g. 1080p, 720p)")
	return cmd
}

func runRender(cmd *cobra.Command, shotListPath string) error {
	clips, _ := cmd.Flags().GetString("clips")
	output, _ := cmd.Flags().GetString("output")
	music, _ := cmd.Flags().GetString("music")
	resolution, _ := cmd.Flags().GetString("resolution")

	cfg := pipeline.RenderConfig{
		ShotListPath: shotListPath,
		ClipsDir:     clips,
		OutputPath:   output,
		Music:        music,
		Resolution:   resolution,
		Log:          newLogger(cmd),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Hour)
	defer cancel()

	res, err := pipeline.RunRender(ctx, cfg)
	if err != nil {
		return err
	}

	if res.ShotsSkipped > 0 {
		cmd.Printf("Warning: %d shot(s) skipped\n", res.ShotsSkipped)
	}
	cmd.Printf("Rendered %d shot(s) to: %s\n", res.ShotsRendered, res.OutFile)
	return nil
}
