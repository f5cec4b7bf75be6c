package ports

import (
	"context"

	"github.com/ndelia/storycut/internal/types"
)

// VideoTool is the ffmpeg/ffprobe boundary. Every method shells out to the
// external tool; a non-zero exit or unparsable output surfaces as a
// *types.ToolError.
type VideoTool interface {
	// Probe returns the metadata record for one clip.
	Probe(ctx context.Context, path string) (types.ClipMetadata, error)
	// ExtractFrame writes a single still image taken at offsetSec to outJPG.
	ExtractFrame(ctx context.Context, path string, offsetSec float64, outJPG string) error
	// Trim copies the [start, end] range of in to out without re-encoding.
	Trim(ctx context.Context, in, start, end, out string) error
	// Concat joins the parts in order into out using the concat demuxer.
	Concat(ctx context.Context, parts []string, out string) error
	// AddAudio muxes the video stream of in with the audio file.
	AddAudio(ctx context.Context, in, audio, out string) error
	// Scale re-encodes in to the named resolution, padding to preserve
	// aspect ratio.
	Scale(ctx context.Context, in, out, resolutionName string) error
}

// Describer is the vision side of the inference endpoint.
type Describer interface {
	// Ping verifies credentials and connectivity with a minimal request.
	Ping(ctx context.Context) error
	// DescribeImage returns a short description of a still frame.
	DescribeImage(ctx context.Context, imagePath string) (string, error)
	// AnalyzeFootage infers what happens in a clip from its first and last
	// frame descriptions plus probe metadata.
	AnalyzeFootage(ctx context.Context, firstFrame, lastFrame string, meta types.ClipMetadata) (string, error)
}

// Narrator asks the inference endpoint for an ordered shot list covering the
// given clips. The return value is raw model text: probably JSON, possibly
// fenced, with no stronger contract.
type Narrator interface {
	ShotListNarrative(ctx context.Context, briefs []types.ClipBrief, guidance string) (string, error)
}
