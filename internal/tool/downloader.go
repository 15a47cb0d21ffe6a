// Package tool shells out to the external downloader and transcoder (C1).
// Both adapters are stateless: given inputs they spawn a child process with
// a fixed argument set and parse its textual output into a structured
// result.
package tool

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	karerrors "github.com/livepeer/karaoke-dash-server/errors"
	"github.com/livepeer/karaoke-dash-server/log"
	ffprobe "gopkg.in/vansante/go-ffprobe.v2"
)

// DownloadResult is C1's output contract for a successful download.
type DownloadResult struct {
	Directory  string
	Name       string
	Extension  string
	DurationS  float64
}

// FullPath is the path to the downloaded source media file.
func (r DownloadResult) FullPath() string {
	return filepath.Join(r.Directory, r.Name+"."+r.Extension)
}

// Downloader shells out to yt-dlp. It is stateless and safe for concurrent
// use.
type Downloader struct {
	Bin     string
	BaseDir string
}

func NewDownloader(bin, baseDir string) *Downloader {
	return &Downloader{Bin: bin, BaseDir: baseDir}
}

// Download fetches sourceLink into baseDir/name/, restricting filenames to
// an ASCII-safe charset, capping video to 720p H.264 + best audio, and
// merging to a single mp4 container. It returns the parsed
// directory/name/extension plus a duration obtained from a follow-up
// ffprobe call, since yt-dlp's stdout contract only promises the filename.
func (d *Downloader) Download(ctx context.Context, requestID, sourceLink, name string) (DownloadResult, error) {
	outDir := filepath.Join(d.BaseDir, name)
	args := []string{
		"-f", "bestvideo[height<=720][vcodec^=avc1]+bestaudio",
		"-o", filepath.Join(outDir, name+".%(ext)s"),
		"--merge-output-format", "mp4",
		"--restrict-filenames",
		"--get-filename",
		"--no-simulate",
		sourceLink,
	}

	cmd := exec.CommandContext(ctx, d.Bin, args...)
	log.LogCtx(ctx, "running downloader", "bin", d.Bin, "args", args)
	stdout, err := cmd.Output()
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = string(ee.Stderr)
			return DownloadResult{}, karerrors.DownloadError{Stderr: stderr}
		}
		return DownloadResult{}, karerrors.CommandError{Cause: err}
	}

	res, err := parseFilename(strings.TrimSpace(string(stdout)))
	if err != nil {
		return DownloadResult{}, err
	}

	duration, err := d.probeDuration(ctx, requestID, res.FullPath())
	if err != nil {
		log.LogCtx(ctx, "ffprobe duration lookup failed, proceeding without it", "err", err)
	}
	res.DurationS = duration
	return res, nil
}

// parseFilename splits the downloader's printed path into directory, name,
// and extension. It must split on the rightmost path separator and then the
// rightmost '.'; any other shape fails with FilenameError.
func parseFilename(line string) (DownloadResult, error) {
	if line == "" {
		return DownloadResult{}, karerrors.FilenameError{Detail: "empty downloader output"}
	}
	lines := strings.Split(line, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])

	dir := filepath.Dir(last)
	base := filepath.Base(last)
	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return DownloadResult{}, karerrors.FilenameError{Detail: fmt.Sprintf("no extension separator in %q", base)}
	}
	return DownloadResult{
		Directory: dir,
		Name:      base[:idx],
		Extension: base[idx+1:],
	}, nil
}

// probeDuration retries the ffprobe call with bounded backoff, mirroring
// the teacher's video.Probe retry policy, since a freshly-muxed file can
// transiently fail to open.
func (d *Downloader) probeDuration(ctx context.Context, requestID, path string) (float64, error) {
	var data *ffprobe.ProbeData
	operation := func() error {
		probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		var err error
		data, err = ffprobe.ProbeURL(probeCtx, path)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second

	if err := backoff.Retry(operation, backoff.WithMaxRetries(b, 3)); err != nil {
		return 0, fmt.Errorf("probing %s: %w", path, err)
	}
	if data.Format == nil {
		return 0, fmt.Errorf("probing %s: no format data", path)
	}
	return data.Format.DurationSeconds, nil
}

// ExpectedSegments computes the completeness-sentinel value: the number of
// fixed-duration segments the transcoder should produce for a media file of
// the given duration.
func ExpectedSegments(durationS float64, segmentDurationS int64) int {
	if segmentDurationS <= 0 {
		return 0
	}
	return int(math.Ceil(durationS / float64(segmentDurationS)))
}
