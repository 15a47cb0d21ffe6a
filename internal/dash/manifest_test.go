package dash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleRendition = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" minBufferTime="PT2S">
  <Period id="0" start="PT0S">
    <AdaptationSet id="0" contentType="audio">
      <Representation id="0" mimeType="audio/mp4" codecs="aac">
        <SegmentTemplate timescale="48000" initialization="init-stream0.m4s" media="chunk-stream0-$Number%05d$.m4s" startNumber="1">
          <SegmentTimeline>
            <S t="0" d="192000" r="4"/>
          </SegmentTimeline>
        </SegmentTemplate>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

func writeRendition(t *testing.T, outDir, dirName string) {
	t.Helper()
	dir := filepath.Join(outDir, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stream.mpd"), []byte(sampleRendition), 0o644))
}

func TestParseMPDRoundTripsSegmentTemplate(t *testing.T) {
	outDir := t.TempDir()
	writeRendition(t, outDir, "video")

	m, err := ParseMPD(filepath.Join(outDir, "video", "stream.mpd"))
	require.NoError(t, err)
	require.Len(t, m.Period.AdaptationSets, 1)
	require.Equal(t, "init-stream0.m4s", m.Period.AdaptationSets[0].Representation.SegmentTemplate.Initialization)
}

func TestParseMPDMissingFileReturnsError(t *testing.T) {
	_, err := ParseMPD(filepath.Join(t.TempDir(), "missing.mpd"))
	require.Error(t, err)
}

func TestFindRenditionDirsSortsAndFiltersByManifestPresence(t *testing.T) {
	outDir := t.TempDir()
	writeRendition(t, outDir, "video")
	writeRendition(t, outDir, "pitch1")
	writeRendition(t, outDir, "pitch5")
	require.NoError(t, os.MkdirAll(filepath.Join(outDir, "pitch2"), 0o755)) // no stream.mpd yet
	require.NoError(t, os.MkdirAll(filepath.Join(outDir, "not-a-rendition"), 0o755))

	dirs, err := FindRenditionDirs(outDir)
	require.NoError(t, err)
	require.Equal(t, []string{"pitch1", "pitch5", "video"}, dirs)
}

func TestFindRenditionDirsErrorsWhenNoneComplete(t *testing.T) {
	outDir := t.TempDir()
	_, err := FindRenditionDirs(outDir)
	require.Error(t, err)
}

func TestMergeRewritesIDsAndPathPrefixesAndConcatenates(t *testing.T) {
	outDir := t.TempDir()
	writeRendition(t, outDir, "video")
	writeRendition(t, outDir, "pitch1")

	require.NoError(t, Merge(outDir, "my-song"))

	m, err := ParseMPD(filepath.Join(outDir, "my-song.mpd"))
	require.NoError(t, err)
	require.Len(t, m.Period.AdaptationSets, 2)

	byID := map[string]AdaptationSet{}
	for _, as := range m.Period.AdaptationSets {
		byID[as.ID] = as
	}
	require.Contains(t, byID, "0")
	require.Contains(t, byID, "1")
	require.Equal(t, "video/init-stream0.m4s", byID["0"].Representation.SegmentTemplate.Initialization)
	require.Equal(t, "pitch1/init-stream0.m4s", byID["1"].Representation.SegmentTemplate.Initialization)
}
