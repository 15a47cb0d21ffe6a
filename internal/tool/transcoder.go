package tool

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/livepeer/karaoke-dash-server/config"
	karerrors "github.com/livepeer/karaoke-dash-server/errors"
	"github.com/livepeer/karaoke-dash-server/log"
	"github.com/livepeer/karaoke-dash-server/subprocess"
)

// Mode names the two kinds of output the Transcoder produces: RunVideo
// produces Copy output and RunPitchShifts produces PitchShift output.
type Mode int

const (
	// Copy stream-copies the video track into video/stream.mpd.
	Copy Mode = iota
	// PitchShift produces one pitch-adjusted audio rendition per semitone
	// offset, writing into pitch{index}/stream.mpd.
	PitchShift
)

// Transcoder shells out to ffmpeg. Stateless, safe for concurrent use.
type Transcoder struct {
	Bin                 string
	SegmentDurationSecs int64
	PitchConcurrency    int
}

func NewTranscoder(bin string, segmentDurationSecs int64, pitchConcurrency int) *Transcoder {
	return &Transcoder{Bin: bin, SegmentDurationSecs: segmentDurationSecs, PitchConcurrency: pitchConcurrency}
}

// RunVideo stream-copies the video track of inputPath into outDir/video/.
func (t *Transcoder) RunVideo(ctx context.Context, inputPath, outDir string) error {
	videoDir := filepath.Join(outDir, "video")
	if err := os.MkdirAll(videoDir, 0o755); err != nil {
		return karerrors.CommandError{Cause: err}
	}

	args := []string{
		"-i", inputPath,
		"-threads", "16",
		"-thread_type", "frame",
		"-map", "0:v",
		"-c:v", "copy",
		"-f", "dash",
		"-adaptation_sets", "id=0,streams=0",
		"-seg_duration", fmt.Sprintf("%d", t.SegmentDurationSecs),
		filepath.Join(videoDir, "stream.mpd"),
	}
	return t.exec(ctx, args)
}

// RunPitchShifts produces one audio rendition per semitone offset in
// semitones, writing into outDir/pitch{index}/, bounded by
// t.PitchConcurrency in-flight ffmpeg invocations at a time. Completion
// order is irrelevant; all offsets must finish before the caller proceeds
// to the DASH merge step (C2).
func (t *Transcoder) RunPitchShifts(ctx context.Context, inputPath, outDir string, semitones []int) error {
	sem := make(chan struct{}, t.PitchConcurrency)
	var wg sync.WaitGroup
	errs := make([]error, len(semitones))

	for i, n := range semitones {
		i, n := i, n
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = t.runOneShift(ctx, inputPath, outDir, n)
		}()
	}
	wg.Wait()

	var details []string
	for i, err := range errs {
		if err != nil {
			details = append(details, fmt.Sprintf("semitones %d: %s", semitones[i], err))
		}
	}
	if len(details) > 0 {
		return karerrors.PitchShiftError{Detail: fmt.Sprintf("%d of %d renditions failed:\n%s", len(details), len(semitones), joinLines(details))}
	}
	return nil
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func (t *Transcoder) runOneShift(ctx context.Context, inputPath, outDir string, semitones int) error {
	index := config.PitchIndex[semitones]
	pitchDir := filepath.Join(outDir, fmt.Sprintf("pitch%d", index))
	if err := os.MkdirAll(pitchDir, 0o755); err != nil {
		return err
	}

	rate := math.Pow(2, float64(semitones)/12.0)
	filterComplex := fmt.Sprintf("[0:a]rubberband=pitch=%f:threads=16[p0]", rate)

	args := []string{
		"-i", inputPath,
		"-threads", "16",
		"-filter_threads", "16",
		"-filter_complex_threads", "16",
		"-thread_type", "frame",
		"-filter_complex", filterComplex,
		"-map", "[p0]",
		"-c:a", "aac",
		"-b:a", "128k",
		"-f", "dash",
		"-adaptation_sets", "id=0,streams=0",
		"-seg_duration", fmt.Sprintf("%d", t.SegmentDurationSecs),
		filepath.Join(pitchDir, "stream.mpd"),
	}
	return t.exec(ctx, args)
}

func (t *Transcoder) exec(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, t.Bin, args...)
	log.LogCtx(ctx, "running transcoder", "bin", t.Bin, "args", args)

	if err := subprocess.LogOutputs(cmd); err != nil {
		return karerrors.CommandError{Cause: err}
	}
	if err := cmd.Start(); err != nil {
		return karerrors.CommandError{Cause: err}
	}
	if err := cmd.Wait(); err != nil {
		return karerrors.PitchShiftError{Detail: err.Error()}
	}
	return nil
}
