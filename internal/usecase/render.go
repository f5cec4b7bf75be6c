package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ndelia/storycut/internal/logging"
	"github.com/ndelia/storycut/internal/types"
)

type RenderInput struct {
	ShotList types.ShotList
	ClipsDir string
	WorkDir  string
	OutFile  string
	Music    string
	// Resolution normalizes all trimmed parts to a named resolution before
	// concatenation. Empty skips normalization.
	Resolution string
}

type RenderResult struct {
	OutFile       string
	ShotsRendered int
	ShotsSkipped  int
}

// Render cuts each shot from its source clip and assembles the final edit:
// trim (stream copy), optional resolution normalization, concat, optional
// background-music mux. A shot whose source is missing or whose trim fails is
// skipped with a log; rendering fails only when nothing could be cut.
func (u Usecase) Render(ctx context.Context, in RenderInput) (RenderResult, error) {
	if len(in.ShotList.Shots) == 0 {
		return RenderResult{}, fmt.Errorf("shot list has no shots")
	}

	var parts []string
	skipped := 0
	for i, shot := range in.ShotList.Shots {
		log := logging.WithClip(u.d.Log, shot.Filename)
		src := filepath.Join(in.ClipsDir, shot.Filename)
		if _, err := os.Stat(src); err != nil {
			log.Error("source clip not found, skipping shot", "index", i+1)
			skipped++
			continue
		}

		trimmed := filepath.Join(in.WorkDir, fmt.Sprintf("trimmed_%03d%s", i+1, filepath.Ext(shot.Filename)))
		log.Info("trimming shot", "index", i+1, "start", shot.StartTime, "end", shot.EndTime)
		if err := u.d.Video.Trim(ctx, src, shot.StartTime, shot.EndTime, trimmed); err != nil {
			log.Error("trim failed, skipping shot", "index", i+1, "error", err)
			skipped++
			continue
		}

		part := trimmed
		if in.Resolution != "" {
			normalized, err := u.normalize(ctx, trimmed, in.Resolution, i+1, in.WorkDir)
			if err != nil {
				log.Error("normalization failed, using trimmed part as is", "error", err)
			} else {
				part = normalized
			}
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return RenderResult{}, fmt.Errorf("no shots could be rendered")
	}

	combined := in.OutFile
	if in.Music != "" {
		combined = filepath.Join(in.WorkDir, "combined"+filepath.Ext(in.OutFile))
	}
	u.d.Log.Info("combining shots", "parts", len(parts), "out", combined)
	if err := u.d.Video.Concat(ctx, parts, combined); err != nil {
		return RenderResult{}, err
	}

	if in.Music != "" {
		u.d.Log.Info("adding background music", "audio", in.Music)
		if err := u.d.Video.AddAudio(ctx, combined, in.Music, in.OutFile); err != nil {
			return RenderResult{}, err
		}
	}

	return RenderResult{
		OutFile:       in.OutFile,
		ShotsRendered: len(parts),
		ShotsSkipped:  skipped,
	}, nil
}

// normalize re-encodes a part to the target resolution unless it already
// matches, keeping concat inputs uniform.
func (u Usecase) normalize(ctx context.Context, part, resolution string, idx int, workDir string) (string, error) {
	meta, err := u.d.Video.Probe(ctx, part)
	if err != nil {
		return "", err
	}
	if meta.ResolutionName == resolution {
		return part, nil
	}
	out := filepath.Join(workDir, fmt.Sprintf("normalized_%03d%s", idx, filepath.Ext(part)))
	if err := u.d.Video.Scale(ctx, part, out, resolution); err != nil {
		return "", err
	}
	return out, nil
}
