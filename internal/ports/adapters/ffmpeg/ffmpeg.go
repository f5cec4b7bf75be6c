package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ndelia/storycut/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// probeOutput mirrors the subset of `ffprobe -of json` output we read.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		Width              int    `json:"width"`
		Height             int    `json:"height"`
		CodecName          string `json:"codec_name"`
		CodecType          string `json:"codec_type"`
		AvgFrameRate       string `json:"avg_frame_rate"`
		DisplayAspectRatio string `json:"display_aspect_ratio"`
	} `json:"streams"`
}

func (a *Adapter) Probe(ctx context.Context, path string) (types.ClipMetadata, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration,bit_rate,size:stream=width,height,codec_name,codec_type,avg_frame_rate,display_aspect_ratio",
		"-of", "json",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.ClipMetadata{}, &types.ToolError{
			Op:  "ffprobe metadata",
			Err: fmt.Errorf("%w\n%s", err, string(b)),
		}
	}

	var raw probeOutput
	if err := json.Unmarshal(b, &raw); err != nil {
		return types.ClipMetadata{}, &types.ToolError{
			Op:  "ffprobe metadata",
			Err: fmt.Errorf("parse output: %w", err),
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	meta := types.ClipMetadata{
		Filename:          filepath.Base(path),
		Filepath:          abs,
		DurationFormatted: "00:00:00",
		Resolution:        "unknown",
		ResolutionName:    "unknown",
		AspectRatio:       "unknown",
		VideoCodec:        "unknown",
		AudioCodec:        "unknown",
		Bitrate:           "unknown",
	}

	if sec, err := strconv.ParseFloat(raw.Format.Duration, 64); err == nil {
		meta.Duration = sec
		meta.DurationFormatted = FormatDuration(sec)
	}
	if size, err := strconv.ParseInt(raw.Format.Size, 10, 64); err == nil {
		meta.FilesizeMB = round2(float64(size) / (1024 * 1024))
	}
	if bps, err := strconv.ParseInt(raw.Format.BitRate, 10, 64); err == nil {
		meta.Bitrate = fmt.Sprintf("%v Mbps", round2(float64(bps)/1_000_000))
	}

	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			if s.Width > 0 && s.Height > 0 {
				meta.Resolution = fmt.Sprintf("%dx%d", s.Width, s.Height)
				meta.ResolutionName = resolutionName(s.Width, s.Height)
			}
			if s.DisplayAspectRatio != "" {
				meta.AspectRatio = s.DisplayAspectRatio
			}
			if s.CodecName != "" {
				meta.VideoCodec = s.CodecName
			}
			if fps, ok := parseFrameRate(s.AvgFrameRate); ok {
				meta.FPS = fps
			}
		case "audio":
			if s.CodecName != "" {
				meta.AudioCodec = s.CodecName
			}
		}
	}

	return meta, nil
}

func (a *Adapter) ExtractFrame(ctx context.Context, path string, offsetSec float64, outJPG string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", path,
		"-ss", strconv.FormatFloat(offsetSec, 'f', 3, 64),
		"-frames:v", "1",
		outJPG,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return &types.ToolError{Op: "ffmpeg extract frame", Err: fmt.Errorf("%w\n%s", err, string(b))}
	}
	return nil
}

// Trim copies the given range without re-encoding, so cut points land on the
// nearest keyframes.
func (a *Adapter) Trim(ctx context.Context, in, start, end, out string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-ss", start,
		"-to", end,
		"-c", "copy",
		out,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return &types.ToolError{Op: "ffmpeg trim", Err: fmt.Errorf("%w\n%s", err, string(b))}
	}
	return nil
}

func (a *Adapter) Concat(ctx context.Context, parts []string, out string) error {
	list, err := os.CreateTemp(filepath.Dir(out), "concat-*.txt")
	if err != nil {
		return &types.ToolError{Op: "ffmpeg concat", Err: err}
	}
	defer os.Remove(list.Name())

	for _, p := range parts {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if _, err := fmt.Fprintf(list, "file '%s'\n", abs); err != nil {
			list.Close()
			return &types.ToolError{Op: "ffmpeg concat", Err: err}
		}
	}
	if err := list.Close(); err != nil {
		return &types.ToolError{Op: "ffmpeg concat", Err: err}
	}

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", list.Name(),
		"-c", "copy",
		out,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return &types.ToolError{Op: "ffmpeg concat", Err: fmt.Errorf("%w\n%s", err, string(b))}
	}
	return nil
}

func (a *Adapter) AddAudio(ctx context.Context, in, audio, out string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-i", audio,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:v:0",
		"-map", "1:a:0",
		out,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return &types.ToolError{Op: "ffmpeg add audio", Err: fmt.Errorf("%w\n%s", err, string(b))}
	}
	return nil
}

func (a *Adapter) Scale(ctx context.Context, in, out, resolutionName string) error {
	w, h := ResolutionDims(resolutionName)
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		w, h, w, h,
	)
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-vf", filter,
		"-c:a", "copy",
		out,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return &types.ToolError{Op: "ffmpeg scale", Err: fmt.Errorf("%w\n%s", err, string(b))}
	}
	return nil
}

// FormatDuration renders seconds as zero-padded HH:MM:SS, truncating
// fractional seconds.
func FormatDuration(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ResolutionDims maps a common resolution name to pixel dimensions,
// defaulting to 1080p for unrecognized names.
func ResolutionDims(name string) (int, int) {
	switch strings.ToLower(name) {
	case "480p":
		return 854, 480
	case "720p":
		return 1280, 720
	case "1080p":
		return 1920, 1080
	case "2k":
		return 2048, 1080
	case "4k":
		return 3840, 2160
	case "8k":
		return 7680, 4320
	default:
		return 1920, 1080
	}
}

func resolutionName(width, height int) string {
	switch {
	case width >= 7680 && height >= 4320:
		return "8K"
	case width >= 3840 && height >= 2160:
		return "4K"
	case width >= 2560 && height >= 1440:
		return "2K"
	case width >= 1920 && height >= 1080:
		return "1080p"
	case width >= 1280 && height >= 720:
		return "720p"
	case width >= 854 && height >= 480:
		return "480p"
	default:
		return "SD"
	}
}

// parseFrameRate resolves ffprobe's fractional avg_frame_rate ("30000/1001")
// to a two-decimal fps value.
func parseFrameRate(s string) (float64, bool) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return round2(n / d), true
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
