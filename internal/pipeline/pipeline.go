// Package pipeline wires adapters into the usecases and owns run artifacts:
// config validation, cache directories for extracted frames, output-path
// defaulting and JSON persistence.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ndelia/storycut/internal/logging"
	"github.com/ndelia/storycut/internal/ports"
	"github.com/ndelia/storycut/internal/ports/adapters/ffmpeg"
	"github.com/ndelia/storycut/internal/ports/adapters/openai"
	"github.com/ndelia/storycut/internal/shotlist"
	"github.com/ndelia/storycut/internal/types"
	"github.com/ndelia/storycut/internal/usecase"
)

// ServiceConfig is the inference-endpoint configuration shared by the
// analyze and shotlist pipelines, scoped to one CLI invocation.
type ServiceConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	// AllowedEndpointSuffixes overrides the default Azure endpoint domains.
	AllowedEndpointSuffixes []string
}

func (c ServiceConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("API key is required (set AZURE_OPENAI_API_KEY in .env or pass --api-key)")
	}
	return openai.ValidateEndpoint(c.Endpoint, c.AllowedEndpointSuffixes)
}

type AnalyzeConfig struct {
	Folder       string
	OutputPath   string
	WithShotList bool
	Guidance     string

	CacheDir    string
	FFmpegPath  string
	FFprobePath string

	Service ServiceConfig
	Log     *slog.Logger
}

func (c AnalyzeConfig) Validate() error {
	if c.Folder == "" {
		return errors.New("folder is empty")
	}
	info, err := os.Stat(c.Folder)
	if err != nil {
		return fmt.Errorf("stat folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", c.Folder)
	}
	return c.Service.Validate()
}

type AnalyzeOutcome struct {
	Report       types.AnalysisReport
	OutputPath   string
	ShotListPath string
}

// RunAnalyze scans the folder, persists the analysis report and optionally
// chains shot-list generation off the fresh report. A failed connection test
// aborts before anything is written.
func RunAnalyze(ctx context.Context, cfg AnalyzeConfig) (AnalyzeOutcome, error) {
	log := logging.WithComponent(ensureLogger(cfg.Log), "analyze")
	uc := buildUsecase(cfg.FFmpegPath, cfg.FFprobePath, cfg.Service, log)

	frameDir := filepath.Join(cacheRoot(cfg.CacheDir), "runs", hash(cfg.Folder), "frames")
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		return AnalyzeOutcome{}, err
	}
	log.Debug("frame cache ready", "dir", frameDir)

	report, err := uc.Analyze(ctx, usecase.AnalyzeInput{Folder: cfg.Folder, FrameDir: frameDir})
	if err != nil {
		return AnalyzeOutcome{Report: report}, err
	}

	outPath := cfg.OutputPath
	if outPath == "" {
		outPath = DefaultAnalysisPath(cfg.Folder)
	}
	if err := writeJSON(outPath, report); err != nil {
		return AnalyzeOutcome{Report: report}, err
	}
	log.Info("analysis saved", "path", outPath, "videos", report.TotalVideos)

	outcome := AnalyzeOutcome{Report: report, OutputPath: outPath}
	if !cfg.WithShotList || len(report.Videos) == 0 {
		return outcome, nil
	}

	// Chain shot-list generation off the report we just built.
	doc, err := reportDocument(report)
	if err != nil {
		return outcome, err
	}
	res, err := uc.GenerateShotList(ctx, usecase.ShotListInput{Analysis: doc, Guidance: cfg.Guidance})
	if err != nil {
		return outcome, err
	}
	outcome.ShotListPath = ShotListPathFor(outPath)
	if err := writeJSON(outcome.ShotListPath, res.Document); err != nil {
		return outcome, err
	}
	log.Info("shot list saved", "path", outcome.ShotListPath, "valid", res.Valid)
	return outcome, nil
}

type ShotListConfig struct {
	InputJSON  string
	OutputPath string
	Guidance   string

	Service ServiceConfig
	Log     *slog.Logger
}

func (c ShotListConfig) Validate() error {
	if c.InputJSON == "" {
		return errors.New("input JSON path is empty")
	}
	if _, err := os.Stat(c.InputJSON); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	return c.Service.Validate()
}

type ShotListOutcome struct {
	Document   map[string]any
	Valid      bool
	OutputPath string
}

// RunShotList loads a previously written analysis report and produces the
// shot-list document. Documents that still fail validation after repair are
// persisted anyway.
func RunShotList(ctx context.Context, cfg ShotListConfig) (ShotListOutcome, error) {
	log := logging.WithComponent(ensureLogger(cfg.Log), "shotlist")
	uc := buildUsecase("", "", cfg.Service, log)

	log.Info("loading video descriptions", "path", cfg.InputJSON)
	analysis, err := readJSONDocument(cfg.InputJSON)
	if err != nil {
		return ShotListOutcome{}, err
	}

	res, err := uc.GenerateShotList(ctx, usecase.ShotListInput{Analysis: analysis, Guidance: cfg.Guidance})
	if err != nil {
		return ShotListOutcome{}, err
	}

	outPath := cfg.OutputPath
	if outPath == "" {
		outPath = ShotListPathFor(cfg.InputJSON)
	}
	if err := writeJSON(outPath, res.Document); err != nil {
		return ShotListOutcome{}, err
	}
	log.Info("shot list saved", "path", outPath, "valid", res.Valid)

	return ShotListOutcome{Document: res.Document, Valid: res.Valid, OutputPath: outPath}, nil
}

type RenderConfig struct {
	ShotListPath string
	ClipsDir     string
	OutputPath   string
	Music        string
	Resolution   string

	CacheDir    string
	FFmpegPath  string
	FFprobePath string
	Log         *slog.Logger
}

func (c RenderConfig) Validate() error {
	if c.ShotListPath == "" {
		return errors.New("shot list path is empty")
	}
	if _, err := os.Stat(c.ShotListPath); err != nil {
		return fmt.Errorf("stat shot list: %w", err)
	}
	if c.ClipsDir == "" {
		return errors.New("clips directory is required (--clips)")
	}
	if info, err := os.Stat(c.ClipsDir); err != nil {
		return fmt.Errorf("stat clips dir: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", c.ClipsDir)
	}
	return nil
}

// RunRender assembles the final video from a shot-list document.
func RunRender(ctx context.Context, cfg RenderConfig) (usecase.RenderResult, error) {
	log := logging.WithComponent(ensureLogger(cfg.Log), "render")

	doc, err := readJSONDocument(cfg.ShotListPath)
	if err != nil {
		return usecase.RenderResult{}, err
	}
	if err := shotlist.Validate(doc, nil); err != nil {
		return usecase.RenderResult{}, fmt.Errorf("shot list %s: %w", cfg.ShotListPath, err)
	}
	var sl types.ShotList
	if err := decodeDocument(doc, &sl); err != nil {
		return usecase.RenderResult{}, err
	}

	workDir := filepath.Join(cacheRoot(cfg.CacheDir), "runs", hash(cfg.ShotListPath), "render")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return usecase.RenderResult{}, err
	}

	outPath := cfg.OutputPath
	if outPath == "" {
		outPath = "final_cut.mp4"
	}

	uc := usecase.New(usecase.Deps{
		Video: ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
		Log:   log,
	})
	return uc.Render(ctx, usecase.RenderInput{
		ShotList:   sl,
		ClipsDir:   cfg.ClipsDir,
		WorkDir:    workDir,
		OutFile:    outPath,
		Music:      cfg.Music,
		Resolution: cfg.Resolution,
	})
}

func buildUsecase(ffmpegPath, ffprobePath string, svc ServiceConfig, log *slog.Logger) usecase.Usecase {
	llm := openai.New(openai.Config{
		Endpoint:   svc.Endpoint,
		APIKey:     svc.APIKey,
		Deployment: svc.Deployment,
		APIVersion: svc.APIVersion,
	})
	return usecase.New(usecase.Deps{
		Video:     ffmpeg.New(ffmpegPath, ffprobePath),
		Describer: llm,
		Narrator:  llm,
		Log:       log,
	})
}

// DefaultAnalysisPath places the report inside the scanned folder, named
// after it.
func DefaultAnalysisPath(folder string) string {
	base := filepath.Base(filepath.Clean(folder))
	return filepath.Join(folder, base+"_analysis.json")
}

// ShotListPathFor derives the shot-list path from an analysis path by
// swapping the extension for a _shot_list.json suffix.
func ShotListPathFor(analysisPath string) string {
	return strings.TrimSuffix(analysisPath, filepath.Ext(analysisPath)) + "_shot_list.json"
}

func cacheRoot(dir string) string {
	if dir == "" {
		return ".cache"
	}
	return dir
}

// writeJSON persists a document with 2-space indentation and a trailing
// newline.
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func readJSONDocument(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// reportDocument round-trips the typed report through JSON so the shot-list
// usecase sees the same shape it would load from disk.
func reportDocument(report types.AnalysisReport) (map[string]any, error) {
	b, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeDocument(doc map[string]any, v any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func ensureLogger(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return log
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Describer = (*openai.Adapter)(nil)
var _ ports.Narrator = (*openai.Adapter)(nil)
