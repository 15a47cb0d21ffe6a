// Package pool implements the worker pool (C3): a bounded multi-consumer
// job channel drained by a fixed number of identical worker goroutines,
// each running the C1 download + C2 merge steps for one job.
package pool

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/livepeer/karaoke-dash-server/config"
	"github.com/livepeer/karaoke-dash-server/internal/dash"
	"github.com/livepeer/karaoke-dash-server/internal/tool"
	"github.com/livepeer/karaoke-dash-server/log"
	"github.com/livepeer/karaoke-dash-server/metrics"
)

// Job is one queued download+transcode request.
type Job struct {
	RequestID  string
	Name       string
	SourceLink string
	Reply      chan Result
}

// Result is the one-shot reply a worker sends back, Go's substitute for a
// oneshot::Sender<Result<T, E>>.
type Result struct {
	OutputDir string
	Err       error
}

// Downloader is the C1 download adapter's contract, narrowed to what the
// pool needs so tests can substitute a stub, the same way the teacher's
// video.Prober interface lets callers substitute a fake ffprobe.
type Downloader interface {
	Download(ctx context.Context, requestID, sourceLink, name string) (tool.DownloadResult, error)
}

// Transcoder is the C1 transcode adapter's contract.
type Transcoder interface {
	RunVideo(ctx context.Context, inputPath, outDir string) error
	RunPitchShifts(ctx context.Context, inputPath, outDir string, semitones []int) error
}

// Pool is NUM_CONSUMERS identical workers draining a shared bounded job
// channel.
type Pool struct {
	jobs                chan Job
	baseDir             string
	segmentDurationSecs int64
	downloader          Downloader
	transcoder          Transcoder
}

// New starts numWorkers goroutines draining a channel of capacity
// queueCapacity. Producers suspend at the send site once the channel is
// full — the backpressure C6 relies on.
func New(ctx context.Context, numWorkers, queueCapacity int, downloader *tool.Downloader, transcoder *tool.Transcoder) *Pool {
	return NewWithAdapters(ctx, numWorkers, queueCapacity, downloader.BaseDir, transcoder.SegmentDurationSecs, downloader, transcoder)
}

// NewWithAdapters is New generalised over the Downloader/Transcoder
// interfaces, letting tests substitute stub adapters.
func NewWithAdapters(ctx context.Context, numWorkers, queueCapacity int, baseDir string, segmentDurationSecs int64, downloader Downloader, transcoder Transcoder) *Pool {
	p := &Pool{
		jobs:                make(chan Job, queueCapacity),
		baseDir:             baseDir,
		segmentDurationSecs: segmentDurationSecs,
		downloader:          downloader,
		transcoder:          transcoder,
	}
	for i := 0; i < numWorkers; i++ {
		go p.worker(ctx, i)
	}
	return p
}

// Submit enqueues a job and blocks until the job channel has room for it or
// ctx is cancelled. The caller reads job.Reply for the result.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case p.jobs <- job:
		metrics.Metrics.JobQueueDepth.Set(float64(len(p.jobs)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			metrics.Metrics.JobQueueDepth.Set(float64(len(p.jobs)))
			metrics.Metrics.WorkersBusy.Inc()
			metrics.Metrics.JobsInFlight.Inc()
			start := time.Now()
			outDir, err := p.runJob(ctx, job)
			metrics.Metrics.WorkersBusy.Dec()
			metrics.Metrics.JobsInFlight.Dec()
			outcome := "success"
			if err != nil {
				outcome = "failure"
			}
			metrics.Metrics.JobDurationSec.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
			job.Reply <- Result{OutputDir: outDir, Err: err}
		}
	}
}

// runJob performs C1 then C2 for one job: download, per-offset pitch-shift
// transcode plus a video copy, segment rename, and manifest merge. Before
// touching any external tool it checks the completeness sentinel and skips
// straight to success if the artifact is already durable.
func (p *Pool) runJob(ctx context.Context, job Job) (string, error) {
	outDir := filepath.Join(p.baseDir, job.Name)

	if dash.IsComplete(outDir) {
		log.LogCtx(ctx, "artifact already complete, skipping pipeline", "name", job.Name)
		return outDir, nil
	}

	dl, err := p.downloader.Download(ctx, job.RequestID, job.SourceLink, job.Name)
	if err != nil {
		metrics.Metrics.JobFailureCount.WithLabelValues("download").Inc()
		return "", err
	}

	expected := tool.ExpectedSegments(dl.DurationS, p.segmentDurationSecs)
	if err := dash.WriteSentinel(outDir, expected); err != nil {
		log.LogCtx(ctx, "failed to write completeness sentinel, continuing", "err", err)
	}

	if err := p.transcoder.RunVideo(ctx, dl.FullPath(), outDir); err != nil {
		metrics.Metrics.JobFailureCount.WithLabelValues("video").Inc()
		return "", err
	}
	if err := p.transcoder.RunPitchShifts(ctx, dl.FullPath(), outDir, config.Semitones()); err != nil {
		metrics.Metrics.JobFailureCount.WithLabelValues("pitch_shift").Inc()
		return "", err
	}

	indexes := make([]int, 0, len(config.PitchIndex))
	for _, idx := range config.PitchIndex {
		indexes = append(indexes, idx)
	}
	if err := dash.RenameAllSegments(outDir, indexes); err != nil {
		metrics.Metrics.JobFailureCount.WithLabelValues("rename").Inc()
		return "", err
	}

	if err := dash.Merge(outDir, job.Name); err != nil {
		metrics.Metrics.JobFailureCount.WithLabelValues("merge").Inc()
		return "", err
	}

	return outDir, nil
}

// DeleteSource removes the intermediate source media after a successful
// job, C6's responsibility per §4.3. Failure is logged, not propagated.
func DeleteSource(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.LogCtx(ctx, "failed to delete intermediate source media", "path", path, "err", err)
	}
}
