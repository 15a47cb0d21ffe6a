package dash

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	karerrors "github.com/livepeer/karaoke-dash-server/errors"
)

// RenameSegments renames every file under outDir/pitch{k}/ whose name
// contains the substring "stream0" to use "stream{k}" instead, so segment
// names don't collide once every rendition is served from one composite
// manifest. Files under video/ are left alone. Idempotent: running it again
// on an already-renamed tree is a no-op, since the original "stream0"
// substring no longer exists to match.
func RenameSegments(outDir string, pitchIndex int) error {
	dirName := fmt.Sprintf("pitch%d", pitchIndex)
	pitchDir := filepath.Join(outDir, dirName)

	entries, err := os.ReadDir(pitchDir)
	if err != nil {
		return karerrors.VideoExtractError{Detail: fmt.Sprintf("reading %s: %s", pitchDir, err)}
	}

	from := "stream0"
	to := fmt.Sprintf("stream%d", pitchIndex)

	for _, e := range entries {
		name := e.Name()
		if !strings.Contains(name, from) {
			continue
		}
		renamed := strings.ReplaceAll(name, from, to)
		if renamed == name {
			continue
		}
		oldPath := filepath.Join(pitchDir, name)
		newPath := filepath.Join(pitchDir, renamed)
		if err := os.Rename(oldPath, newPath); err != nil {
			return karerrors.VideoExtractError{Detail: fmt.Sprintf("renaming %s: %s", oldPath, err)}
		}
	}
	return nil
}

// RenameAllSegments renames segments in every pitch{k} directory under
// outDir for the given set of pitch indexes.
func RenameAllSegments(outDir string, pitchIndexes []int) error {
	for _, idx := range pitchIndexes {
		if err := RenameSegments(outDir, idx); err != nil {
			return err
		}
	}
	return nil
}
