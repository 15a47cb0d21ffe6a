package dash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsCompleteFalseWithoutSentinel(t *testing.T) {
	outDir := t.TempDir()
	require.False(t, IsComplete(outDir))
}

func TestIsCompleteFalseWhenFinalChunkMissing(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, WriteSentinel(outDir, 5))
	require.False(t, IsComplete(outDir))
}

func TestIsCompleteTrueWhenFinalChunkPresent(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, WriteSentinel(outDir, 5))

	pitchDir := filepath.Join(outDir, "pitch1")
	require.NoError(t, os.MkdirAll(pitchDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pitchDir, "chunk-stream1-00005.m4s"), []byte("x"), 0o644))

	require.True(t, IsComplete(outDir))
}

func TestIsCompleteIgnoresEarlierChunks(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, WriteSentinel(outDir, 5))

	pitchDir := filepath.Join(outDir, "pitch1")
	require.NoError(t, os.MkdirAll(pitchDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pitchDir, "chunk-stream1-00003.m4s"), []byte("x"), 0o644))

	require.False(t, IsComplete(outDir))
}
