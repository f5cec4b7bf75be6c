package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndelia/storycut/internal/logging"
	"github.com/ndelia/storycut/internal/ports"
	"github.com/ndelia/storycut/internal/shotlist"
	"github.com/ndelia/storycut/internal/types"
)

// Fixed placeholder strings recorded when an external call fails. The batch
// always continues; one clip's failure never aborts the fold.
const (
	errNoMetadata    = "Could not extract metadata"
	errNoDescription = "Error: Could not generate description."
	errNoAnalysis    = "Error: Could not generate analysis."
)

var mediaExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".avi": {}, ".mov": {},
	".wmv": {}, ".flv": {}, ".webm": {}, ".m4v": {},
}

type Deps struct {
	Video     ports.VideoTool
	Describer ports.Describer
	Narrator  ports.Narrator
	Log       *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return Usecase{d: d}
}

// ListMediaFiles returns the media files directly under folder, sorted by
// name. An empty result is not an error: the caller emits a zero-count
// report.
func ListMediaFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read folder: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if _, ok := mediaExtensions[ext]; ok {
			files = append(files, filepath.Join(folder, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

type AnalyzeInput struct {
	Folder   string
	FrameDir string
}

// Analyze probes, frames and describes every clip in the folder, strictly
// sequentially. The connection test runs first; its failure is the only
// condition that aborts the scan.
func (u Usecase) Analyze(ctx context.Context, in AnalyzeInput) (types.AnalysisReport, error) {
	absFolder, err := filepath.Abs(in.Folder)
	if err != nil {
		absFolder = in.Folder
	}
	report := types.AnalysisReport{
		Folder:   absFolder,
		ScanDate: time.Now().Format("2006-01-02 15:04:05"),
		Videos:   []types.ClipAnalysis{},
	}

	if err := u.d.Describer.Ping(ctx); err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("api connection test: %w", err)
	}
	u.d.Log.Info("api connection verified")

	files, err := ListMediaFiles(in.Folder)
	if err != nil {
		return report, err
	}
	report.TotalVideos = len(files)
	if len(files) == 0 {
		u.d.Log.Warn("no video files found", "folder", in.Folder)
		return report, nil
	}
	u.d.Log.Info("scanning folder", "folder", absFolder, "videos", len(files))

	for i, path := range files {
		u.d.Log.Info("processing video", "index", i+1, "total", len(files), "clip", filepath.Base(path))
		report.Videos = append(report.Videos, u.analyzeClip(ctx, path, in.FrameDir))
	}
	return report, nil
}

func (u Usecase) analyzeClip(ctx context.Context, path, frameDir string) types.ClipAnalysis {
	log := logging.WithClip(u.d.Log, filepath.Base(path))
	result := types.ClipAnalysis{Filename: filepath.Base(path)}

	meta, err := u.d.Video.Probe(ctx, path)
	if err != nil {
		log.Error("probe failed", "error", err)
		result.Error = errNoMetadata
		return result
	}
	result.Metadata = &meta

	result.FirstFrame.Path = u.extractFrame(ctx, log, path, 0, frameDir)
	lastOffset := meta.Duration - 1
	if lastOffset < 0 {
		lastOffset = 0
	}
	result.LastFrame.Path = u.extractFrame(ctx, log, path, lastOffset, frameDir)

	if result.FirstFrame.Path != "" {
		log.Info("describing first frame")
		result.FirstFrame.Description = u.describeFrame(ctx, log, result.FirstFrame.Path)
	}
	if result.LastFrame.Path != "" {
		log.Info("describing last frame")
		result.LastFrame.Description = u.describeFrame(ctx, log, result.LastFrame.Path)
	}

	if result.FirstFrame.Description != "" && result.LastFrame.Description != "" {
		log.Info("analyzing footage")
		desc, err := u.d.Describer.AnalyzeFootage(ctx, result.FirstFrame.Description, result.LastFrame.Description, meta)
		if err != nil {
			log.Error("footage analysis failed", "error", err)
			desc = errNoAnalysis
		}
		result.VideoDescription = desc
	}
	return result
}

func (u Usecase) extractFrame(ctx context.Context, log *slog.Logger, path string, offsetSec float64, frameDir string) string {
	out := filepath.Join(frameDir, uuid.NewString()+".jpg")
	if err := u.d.Video.ExtractFrame(ctx, path, offsetSec, out); err != nil {
		log.Error("frame extraction failed", "offset_sec", offsetSec, "error", err)
		return ""
	}
	return out
}

func (u Usecase) describeFrame(ctx context.Context, log *slog.Logger, framePath string) string {
	desc, err := u.d.Describer.DescribeImage(ctx, framePath)
	if err != nil {
		log.Error("frame description failed", "error", err)
		return errNoDescription
	}
	return desc
}

type ShotListInput struct {
	Analysis map[string]any
	Guidance string
}

type ShotListResult struct {
	Document map[string]any
	Valid    bool
}

// GenerateShotList turns an analysis document into a validated (or at least
// repaired) shot-list document. A document that still fails validation after
// repair is returned anyway; the caller persists it with its defects.
func (u Usecase) GenerateShotList(ctx context.Context, in ShotListInput) (ShotListResult, error) {
	briefs, allFilenames, info, err := BuildBriefs(in.Analysis)
	if err != nil {
		return ShotListResult{}, err
	}
	u.d.Log.Info("generating shot list", "videos", len(briefs))
	if in.Guidance != "" {
		u.d.Log.Info("using storyline guidance")
	}

	raw, err := u.d.Narrator.ShotListNarrative(ctx, briefs, in.Guidance)
	if err != nil {
		return ShotListResult{}, err
	}

	doc, err := shotlist.Parse(raw)
	if err != nil {
		u.d.Log.Error("unparsable shot list response", "error", err, "raw", raw)
		return ShotListResult{}, err
	}

	valid := true
	if err := shotlist.Validate(doc, allFilenames); err != nil {
		u.d.Log.Warn("shot list does not match expected format, repairing", "error", err)
		doc = shotlist.Repair(doc, allFilenames, info)
		if err := shotlist.Validate(doc, allFilenames); err != nil {
			u.d.Log.Warn("could not fix format issues, proceeding anyway", "error", err)
			valid = false
		} else {
			u.d.Log.Info("shot list repaired successfully")
		}
	} else {
		u.d.Log.Info("shot list format validation successful")
	}

	covered := 0
	if shots, ok := doc["shots"].([]any); ok {
		covered = len(shots)
	}
	u.d.Log.Info("shot list coverage", "shots", covered, "videos", len(allFilenames))

	return ShotListResult{Document: doc, Valid: valid}, nil
}

// BuildBriefs extracts the narrative-generator inputs from a raw analysis
// document. Older reports used different field names for the synthesized
// narrative, so several aliases are probed before falling back to the frame
// descriptions.
func BuildBriefs(analysis map[string]any) ([]types.ClipBrief, []string, map[string]types.ClipMetadata, error) {
	videos, ok := analysis["videos"].([]any)
	if !ok || len(videos) == 0 {
		return nil, nil, nil, errors.New("no video data found in the analysis document")
	}

	var briefs []types.ClipBrief
	var allFilenames []string
	info := make(map[string]types.ClipMetadata)

	for _, v := range videos {
		video, ok := v.(map[string]any)
		if !ok {
			continue
		}
		filename, _ := video["filename"].(string)
		if filename == "" {
			continue
		}
		allFilenames = append(allFilenames, filename)

		durationFormatted := "unknown"
		durationSeconds := 0.0
		if meta, ok := video["metadata"].(map[string]any); ok {
			if s, ok := meta["duration_formatted"].(string); ok && s != "" {
				durationFormatted = s
				info[filename] = types.ClipMetadata{Filename: filename, DurationFormatted: s}
			}
			if d, ok := meta["duration"].(float64); ok {
				durationSeconds = d
			}
		}

		content := clipDescription(video)
		if content == "" {
			continue
		}
		briefs = append(briefs, types.ClipBrief{
			Filename:          filename,
			DurationFormatted: durationFormatted,
			DurationSeconds:   durationSeconds,
			Content:           content,
		})
	}

	if len(briefs) == 0 {
		return nil, nil, nil, errors.New("no usable video descriptions found in the analysis document")
	}
	return briefs, allFilenames, info, nil
}

// descriptionAliases are probed in order; both video_description and
// content_analysis are legacy names for the same concept.
var descriptionAliases = []string{"video_description", "content_analysis", "description", "content"}

func clipDescription(video map[string]any) string {
	for _, field := range descriptionAliases {
		if s, ok := video[field].(string); ok && s != "" {
			return s
		}
	}
	first := frameDescription(video, "first_frame")
	last := frameDescription(video, "last_frame")
	if first != "" && last != "" {
		return fmt.Sprintf("First frame: %s\n\nLast frame: %s", first, last)
	}
	return ""
}

func frameDescription(video map[string]any, key string) string {
	frame, ok := video[key].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := frame["description"].(string)
	return s
}
