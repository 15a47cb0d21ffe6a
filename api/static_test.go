package api

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeJoinAllowsPathsWithinBaseDir(t *testing.T) {
	base := "/data/songs"
	path, ok := safeJoin(base, "africa", "stream.mpd")
	require.True(t, ok)
	require.Equal(t, filepath.Join(base, "africa", "stream.mpd"), path)
}

func TestSafeJoinRejectsTraversalOutsideBaseDir(t *testing.T) {
	base := "/data/songs"
	_, ok := safeJoin(base, "..", "..", "etc", "passwd")
	require.False(t, ok)
}

func TestSafeJoinAllowsExactBaseDir(t *testing.T) {
	base := "/data/songs"
	path, ok := safeJoin(base)
	require.True(t, ok)
	require.Equal(t, base, path)
}
