package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndelia/storycut/internal/types"
)

func renderShotList() types.ShotList {
	return types.ShotList{
		ProjectName:    "Beach Day",
		NarrativeTheme: "Morning at the shore",
		Shots: []types.Shot{
			{Filename: "a.mp4", Description: "open", StartTime: "00:00:00", EndTime: "00:00:10", Duration: "00:00:10", TransitionIn: "cut", TransitionOut: "cut"},
			{Filename: "b.mp4", Description: "play", StartTime: "00:00:05", EndTime: "00:00:45", Duration: "00:00:40", TransitionIn: "cut", TransitionOut: "cut"},
		},
	}
}

func TestRender_TrimsAndConcats(t *testing.T) {
	t.Parallel()

	clips := writeClips(t, "a.mp4", "b.mp4")
	video := &fakeVideo{}
	uc := New(Deps{Video: video, Describer: &fakeDescriber{}, Narrator: &fakeNarrator{}})

	out := filepath.Join(t.TempDir(), "final_cut.mp4")
	res, err := uc.Render(context.Background(), RenderInput{
		ShotList: renderShotList(),
		ClipsDir: clips,
		WorkDir:  t.TempDir(),
		OutFile:  out,
	})
	require.NoError(t, err)

	assert.Equal(t, out, res.OutFile)
	assert.Equal(t, 2, res.ShotsRendered)
	assert.Equal(t, 0, res.ShotsSkipped)
	assert.Len(t, video.trimmed, 2)
	assert.Equal(t, video.trimmed, video.concatParts)
	assert.False(t, video.audioAdded)
}

func TestRender_SkipsMissingAndFailedShots(t *testing.T) {
	t.Parallel()

	// b.mp4 exists but fails to trim; c.mp4 is missing entirely.
	clips := writeClips(t, "a.mp4", "b.mp4")
	sl := renderShotList()
	sl.Shots = append(sl.Shots, types.Shot{
		Filename: "c.mp4", Description: "end", StartTime: "00:00:00", EndTime: "00:00:05",
		Duration: "00:00:05", TransitionIn: "cut", TransitionOut: "cut",
	})
	video := &fakeVideo{trimErr: map[string]error{"b.mp4": errors.New("exit status 1")}}
	uc := New(Deps{Video: video, Describer: &fakeDescriber{}, Narrator: &fakeNarrator{}})

	res, err := uc.Render(context.Background(), RenderInput{
		ShotList: sl,
		ClipsDir: clips,
		WorkDir:  t.TempDir(),
		OutFile:  filepath.Join(t.TempDir(), "final_cut.mp4"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ShotsRendered)
	assert.Equal(t, 2, res.ShotsSkipped)
}

func TestRender_NothingRenderable(t *testing.T) {
	t.Parallel()

	uc := New(Deps{Video: &fakeVideo{}, Describer: &fakeDescriber{}, Narrator: &fakeNarrator{}})

	_, err := uc.Render(context.Background(), RenderInput{
		ShotList: renderShotList(),
		ClipsDir: t.TempDir(), // no source clips
		WorkDir:  t.TempDir(),
		OutFile:  filepath.Join(t.TempDir(), "final_cut.mp4"),
	})
	assert.Error(t, err)

	_, err = uc.Render(context.Background(), RenderInput{ShotList: types.ShotList{}})
	assert.Error(t, err)
}

func TestRender_WithMusicMuxesAudio(t *testing.T) {
	t.Parallel()

	clips := writeClips(t, "a.mp4", "b.mp4")
	video := &fakeVideo{}
	uc := New(Deps{Video: video, Describer: &fakeDescriber{}, Narrator: &fakeNarrator{}})

	_, err := uc.Render(context.Background(), RenderInput{
		ShotList: renderShotList(),
		ClipsDir: clips,
		WorkDir:  t.TempDir(),
		OutFile:  filepath.Join(t.TempDir(), "final_cut.mp4"),
		Music:    "bgm.mp3",
	})
	require.NoError(t, err)
	assert.True(t, video.audioAdded)
}
