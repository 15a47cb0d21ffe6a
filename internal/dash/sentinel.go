package dash

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const sentinelFilename = "segments.txt"

// WriteSentinel writes the completeness sentinel: the decimal count of
// segments the artifact should contain once fully rendered. Written
// immediately after the downloader returns, before C1/C2 begin transcoding,
// so a later reincarnation of the server can resume idempotently.
func WriteSentinel(outDir string, expectedSegments int) error {
	return os.WriteFile(filepath.Join(outDir, sentinelFilename), []byte(strconv.Itoa(expectedSegments)), 0o644)
}

// IsComplete reports whether outDir already holds a finished artifact: the
// sentinel file exists and its numeric content matches an existing
// chunk-stream1-{NNNNN}.m4s segment. Only the highest-numbered chunk is
// checked, not every expected chunk (§9 open question, decided in
// DESIGN.md).
func IsComplete(outDir string) bool {
	raw, err := os.ReadFile(filepath.Join(outDir, sentinelFilename))
	if err != nil {
		return false
	}
	expected, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return false
	}
	finalChunk := filepath.Join(outDir, "pitch1", fmt.Sprintf("chunk-stream1-%05d.m4s", expected))
	_, err = os.Stat(finalChunk)
	return err == nil
}
