package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndelia/storycut/internal/shotlist"
	"github.com/ndelia/storycut/internal/types"
)

type fakeVideo struct {
	probeErr    map[string]error
	probeMeta   map[string]types.ClipMetadata
	extractErr  error
	frameOffset []float64
	trimmed     []string
	trimErr     map[string]error
	concatParts []string
	audioAdded  bool
}

func (f *fakeVideo) Probe(_ context.Context, path string) (types.ClipMetadata, error) {
	name := filepath.Base(path)
	if err := f.probeErr[name]; err != nil {
		return types.ClipMetadata{}, err
	}
	if meta, ok := f.probeMeta[name]; ok {
		return meta, nil
	}
	return types.ClipMetadata{Filename: name, Duration: 10, DurationFormatted: "00:00:10", ResolutionName: "1080p"}, nil
}

func (f *fakeVideo) ExtractFrame(_ context.Context, _ string, offsetSec float64, _ string) error {
	if f.extractErr != nil {
		return f.extractErr
	}
	f.frameOffset = append(f.frameOffset, offsetSec)
	return nil
}

func (f *fakeVideo) Trim(_ context.Context, in, _, _, out string) error {
	if err := f.trimErr[filepath.Base(in)]; err != nil {
		return err
	}
	f.trimmed = append(f.trimmed, out)
	return nil
}

func (f *fakeVideo) Concat(_ context.Context, parts []string, _ string) error {
	f.concatParts = parts
	return nil
}

func (f *fakeVideo) AddAudio(_ context.Context, _, _, _ string) error {
	f.audioAdded = true
	return nil
}

func (f *fakeVideo) Scale(_ context.Context, _, _, _ string) error { return nil }

type fakeDescriber struct {
	pingErr     error
	describeErr error
	analyzeErr  error
	describes   int
}

func (f *fakeDescriber) Ping(_ context.Context) error { return f.pingErr }

func (f *fakeDescriber) DescribeImage(_ context.Context, _ string) (string, error) {
	if f.describeErr != nil {
		return "", f.describeErr
	}
	f.describes++
	return fmt.Sprintf("frame description %d", f.describes), nil
}

func (f *fakeDescriber) AnalyzeFootage(_ context.Context, first, last string, _ types.ClipMetadata) (string, error) {
	if f.analyzeErr != nil {
		return "", f.analyzeErr
	}
	return "footage: " + first + " -> " + last, nil
}

type fakeNarrator struct {
	response string
	err      error
	briefs   []types.ClipBrief
}

func (f *fakeNarrator) ShotListNarrative(_ context.Context, briefs []types.ClipBrief, _ string) (string, error) {
	f.briefs = briefs
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func writeClips(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	return dir
}

func TestAnalyze_HappyPath(t *testing.T) {
	t.Parallel()

	folder := writeClips(t, "b.mp4", "a.mp4", "notes.txt")
	video := &fakeVideo{}
	describer := &fakeDescriber{}
	uc := New(Deps{Video: video, Describer: describer, Narrator: &fakeNarrator{}})

	report, err := uc.Analyze(context.Background(), AnalyzeInput{Folder: folder, FrameDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalVideos)
	require.Len(t, report.Videos, 2)
	// Files are processed in sorted order; non-media files are ignored.
	assert.Equal(t, "a.mp4", report.Videos[0].Filename)
	assert.Equal(t, "b.mp4", report.Videos[1].Filename)

	first := report.Videos[0]
	require.NotNil(t, first.Metadata)
	assert.NotEmpty(t, first.FirstFrame.Description)
	assert.NotEmpty(t, first.LastFrame.Description)
	assert.Contains(t, first.VideoDescription, "footage:")

	// First frame at zero, last frame one second before the end.
	require.Len(t, video.frameOffset, 4)
	assert.Equal(t, 0.0, video.frameOffset[0])
	assert.Equal(t, 9.0, video.frameOffset[1])
}

func TestAnalyze_ProbeFailureIsContained(t *testing.T) {
	t.Parallel()

	folder := writeClips(t, "bad.mp4", "good.mp4")
	video := &fakeVideo{probeErr: map[string]error{
		"bad.mp4": &types.ToolError{Op: "ffprobe metadata", Err: errors.New("exit status 1")},
	}}
	uc := New(Deps{Video: video, Describer: &fakeDescriber{}, Narrator: &fakeNarrator{}})

	report, err := uc.Analyze(context.Background(), AnalyzeInput{Folder: folder, FrameDir: t.TempDir()})
	require.NoError(t, err)
	require.Len(t, report.Videos, 2)

	bad := report.Videos[0]
	assert.Equal(t, "bad.mp4", bad.Filename)
	assert.Equal(t, "Could not extract metadata", bad.Error)
	assert.Nil(t, bad.Metadata)

	good := report.Videos[1]
	assert.Empty(t, good.Error)
	assert.NotNil(t, good.Metadata)
}

func TestAnalyze_DescribeFailureUsesPlaceholder(t *testing.T) {
	t.Parallel()

	folder := writeClips(t, "a.mp4")
	describer := &fakeDescriber{describeErr: &types.ServiceError{Op: "describe image", Err: errors.New("boom")}}
	uc := New(Deps{Video: &fakeVideo{}, Describer: describer, Narrator: &fakeNarrator{}})

	report, err := uc.Analyze(context.Background(), AnalyzeInput{Folder: folder, FrameDir: t.TempDir()})
	require.NoError(t, err)
	require.Len(t, report.Videos, 1)
	assert.Equal(t, "Error: Could not generate description.", report.Videos[0].FirstFrame.Description)
	assert.Equal(t, "Error: Could not generate description.", report.Videos[0].LastFrame.Description)
	// Error placeholders still feed the footage analysis, like the rest of
	// the lenient pipeline.
	assert.Contains(t, report.Videos[0].VideoDescription, "footage:")
}

func TestAnalyze_PingFailureAborts(t *testing.T) {
	t.Parallel()

	folder := writeClips(t, "a.mp4")
	describer := &fakeDescriber{pingErr: &types.ServiceError{Op: "connection test", Hint: "authentication error: check the API key", Err: errors.New("401")}}
	uc := New(Deps{Video: &fakeVideo{}, Describer: describer, Narrator: &fakeNarrator{}})

	report, err := uc.Analyze(context.Background(), AnalyzeInput{Folder: folder, FrameDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, report.Error, "authentication error")
	assert.Empty(t, report.Videos)
}

func TestAnalyze_EmptyFolderYieldsZeroCountReport(t *testing.T) {
	t.Parallel()

	folder := writeClips(t, "readme.md")
	uc := New(Deps{Video: &fakeVideo{}, Describer: &fakeDescriber{}, Narrator: &fakeNarrator{}})

	report, err := uc.Analyze(context.Background(), AnalyzeInput{Folder: folder, FrameDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalVideos)
	assert.Empty(t, report.Videos)
}

func analysisDoc() map[string]any {
	return map[string]any{
		"videos": []any{
			map[string]any{
				"filename":          "a.mp4",
				"video_description": "a sunrise over the bay",
				"metadata": map[string]any{
					"duration_formatted": "00:00:30",
					"duration":           30.0,
				},
			},
			map[string]any{
				"filename":         "b.mp4",
				"content_analysis": "kids building a sandcastle",
				"metadata": map[string]any{
					"duration_formatted": "00:01:10",
					"duration":           70.0,
				},
			},
		},
	}
}

func TestGenerateShotList_ValidResponse(t *testing.T) {
	t.Parallel()

	narrator := &fakeNarrator{response: "```json\n" + `{
		"project_name": "Beach Day",
		"narrative_theme": "Morning at the shore",
		"shots": [
			{"filename": "a.mp4", "description": "open", "start_time": "00:00:00", "end_time": "00:00:10", "duration": "00:00:10", "transition_in": "fade in", "transition_out": "cut"},
			{"filename": "b.mp4", "description": "play", "start_time": "00:00:05", "end_time": "00:00:45", "duration": "00:00:40", "transition_in": "cut", "transition_out": "fade out"}
		]
	}` + "\n```"}
	uc := New(Deps{Video: &fakeVideo{}, Describer: &fakeDescriber{}, Narrator: narrator})

	res, err := uc.GenerateShotList(context.Background(), ShotListInput{Analysis: analysisDoc()})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "Beach Day", res.Document["project_name"])
	require.Len(t, narrator.briefs, 2)
	assert.Equal(t, "a sunrise over the bay", narrator.briefs[0].Content)
	assert.Equal(t, "kids building a sandcastle", narrator.briefs[1].Content)
}

func TestGenerateShotList_RepairsDroppedClip(t *testing.T) {
	t.Parallel()

	// The generator covered only a.mp4; repair must top up b.mp4.
	narrator := &fakeNarrator{response: `{
		"project_name": "Beach Day",
		"narrative_theme": "Morning at the shore",
		"shots": [
			{"filename": "a.mp4", "description": "open", "start_time": "00:00:00", "end_time": "00:00:10", "duration": "00:00:10", "transition_in": "fade in", "transition_out": "cut"}
		]
	}`}
	uc := New(Deps{Video: &fakeVideo{}, Describer: &fakeDescriber{}, Narrator: narrator})

	res, err := uc.GenerateShotList(context.Background(), ShotListInput{Analysis: analysisDoc()})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	shots := res.Document["shots"].([]any)
	require.Len(t, shots, 2)
	added := shots[1].(map[string]any)
	assert.Equal(t, "b.mp4", added["filename"])
	assert.Equal(t, "00:00:00", added["start_time"])
	assert.Equal(t, "00:01:10", added["end_time"])
	assert.Equal(t, "cut", added["transition_in"])
	assert.Equal(t, "cut", added["transition_out"])

	assert.NoError(t, shotlist.Validate(res.Document, []string{"a.mp4", "b.mp4"}))
}

func TestGenerateShotList_UnparsableResponse(t *testing.T) {
	t.Parallel()

	narrator := &fakeNarrator{response: "I'm sorry, I can't produce a shot list."}
	uc := New(Deps{Video: &fakeVideo{}, Describer: &fakeDescriber{}, Narrator: narrator})

	_, err := uc.GenerateShotList(context.Background(), ShotListInput{Analysis: analysisDoc()})
	assert.Error(t, err)
}

func TestBuildBriefs_FrameFallbackAndAliases(t *testing.T) {
	t.Parallel()

	analysis := map[string]any{
		"videos": []any{
			map[string]any{
				"filename":    "frames.mp4",
				"first_frame": map[string]any{"description": "a door"},
				"last_frame":  map[string]any{"description": "an open door"},
			},
			map[string]any{
				"filename": "silent.mp4",
			},
		},
	}

	briefs, all, _, err := BuildBriefs(analysis)
	require.NoError(t, err)

	// Clips without any usable description still count toward coverage.
	assert.Equal(t, []string{"frames.mp4", "silent.mp4"}, all)
	require.Len(t, briefs, 1)
	assert.Equal(t, "First frame: a door\n\nLast frame: an open door", briefs[0].Content)
}

func TestBuildBriefs_NoVideos(t *testing.T) {
	t.Parallel()

	_, _, _, err := BuildBriefs(map[string]any{})
	assert.Error(t, err)

	_, _, _, err = BuildBriefs(map[string]any{"videos": []any{}})
	assert.Error(t, err)
}
