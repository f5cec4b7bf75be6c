package types

import "fmt"

// ClipMetadata is the ffprobe-derived record for one input clip. Fields that
// cannot be determined carry sentinel values ("unknown", 0) instead of being
// omitted, so downstream JSON consumers always see the full shape.
type ClipMetadata struct {
	Filename          string  `json:"filename"`
	Filepath          string  `json:"filepath"`
	FilesizeMB        float64 `json:"filesize_mb"`
	Duration          float64 `json:"duration"`
	DurationFormatted string  `json:"duration_formatted"`
	Resolution        string  `json:"resolution"`
	ResolutionName    string  `json:"resolution_name"`
	AspectRatio       string  `json:"aspect_ratio"`
	VideoCodec        string  `json:"video_codec"`
	AudioCodec        string  `json:"audio_codec"`
	Bitrate           string  `json:"bitrate"`
	FPS               float64 `json:"fps"`
}

// FrameAnalysis holds a single extracted still and its model description.
// The image path is a local temp artifact and is never persisted.
type FrameAnalysis struct {
	Path        string `json:"-"`
	Description string `json:"description"`
}

// ClipAnalysis is the per-clip analysis result. A clip that failed probing
// keeps its filename and an error string; the batch continues without it.
type ClipAnalysis struct {
	Filename         string        `json:"filename"`
	Metadata         *ClipMetadata `json:"metadata,omitempty"`
	Error            string        `json:"error,omitempty"`
	FirstFrame       FrameAnalysis `json:"first_frame"`
	LastFrame        FrameAnalysis `json:"last_frame"`
	VideoDescription string        `json:"video_description"`
}

// AnalysisReport is the persisted analysis document for one folder scan.
type AnalysisReport struct {
	Folder      string         `json:"folder"`
	ScanDate    string         `json:"scan_date"`
	Error       string         `json:"error,omitempty"`
	TotalVideos int            `json:"total_videos"`
	Videos      []ClipAnalysis `json:"videos"`
}

// ClipBrief is the narrative-generator input tuple for one clip.
type ClipBrief struct {
	Filename          string
	DurationFormatted string
	DurationSeconds   float64
	Content           string
}

// ShotList is the structured edit plan the narrative generator is asked to
// produce. Validation and repair operate on the raw decoded document since
// the generator may return arbitrary shapes; this typed form exists for
// synthesis and for callers that already hold a conforming document.
type ShotList struct {
	ProjectName    string `json:"project_name"`
	NarrativeTheme string `json:"narrative_theme"`
	Shots          []Shot `json:"shots"`
}

// Shot is one planned segment of a clip within the final edit.
type Shot struct {
	Filename      string `json:"filename"`
	Description   string `json:"description"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Duration      string `json:"duration"`
	TransitionIn  string `json:"transition_in"`
	TransitionOut string `json:"transition_out"`
}

// ToolError reports a media-tool subprocess that exited non-zero or produced
// unparsable output. Callers substitute a placeholder and continue.
type ToolError struct {
	Op  string
	Err error
}

func (e *ToolError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *ToolError) Unwrap() error { return e.Err }

// ServiceError reports a failed inference-endpoint call. Hint carries an
// endpoint-specific diagnosis for common auth/not-found/rate-limit statuses.
type ServiceError struct {
	Op   string
	Hint string
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Hint, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
