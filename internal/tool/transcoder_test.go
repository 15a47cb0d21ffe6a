package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunVideoCreatesVideoDirectoryAndSucceeds(t *testing.T) {
	outDir := t.TempDir()
	tc := NewTranscoder("true", 4, 2)

	err := tc.RunVideo(context.Background(), "input.mp4", outDir)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(outDir, "video"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestRunVideoPropagatesCommandFailure(t *testing.T) {
	outDir := t.TempDir()
	tc := NewTranscoder("false", 4, 2)

	err := tc.RunVideo(context.Background(), "input.mp4", outDir)
	require.Error(t, err)
}

func TestRunPitchShiftsCreatesOneDirectoryPerSemitone(t *testing.T) {
	outDir := t.TempDir()
	tc := NewTranscoder("true", 4, 2)

	err := tc.RunPitchShifts(context.Background(), "input.mp4", outDir, []int{0, 1, -1})
	require.NoError(t, err)

	for _, dir := range []string{"pitch1", "pitch2", "pitch5"} {
		info, err := os.Stat(filepath.Join(outDir, dir))
		require.NoError(t, err, "expected %s to exist", dir)
		require.True(t, info.IsDir())
	}
}

func TestRunPitchShiftsAggregatesFailuresAcrossOffsets(t *testing.T) {
	outDir := t.TempDir()
	tc := NewTranscoder("false", 4, 2)

	err := tc.RunPitchShifts(context.Background(), "input.mp4", outDir, []int{0, 1, 2})
	require.Error(t, err)
	require.Contains(t, err.Error(), "3 of 3 renditions failed")
}

func TestRunPitchShiftsSucceedsWithConcurrencyOfOne(t *testing.T) {
	outDir := t.TempDir()
	tc := NewTranscoder("true", 4, 1)

	err := tc.RunPitchShifts(context.Background(), "input.mp4", outDir, []int{0, 1, -1, 2, -2, 3, -3})
	require.NoError(t, err)
}
