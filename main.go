package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/peterbourgon/ff/v3"
	"golang.org/x/sync/errgroup"

	"github.com/livepeer/karaoke-dash-server/api"
	"github.com/livepeer/karaoke-dash-server/config"
	"github.com/livepeer/karaoke-dash-server/internal/bus"
	"github.com/livepeer/karaoke-dash-server/internal/pool"
	"github.com/livepeer/karaoke-dash-server/internal/queue"
	"github.com/livepeer/karaoke-dash-server/internal/tool"
	"github.com/livepeer/karaoke-dash-server/log"
)

func main() {
	if err := flag.Set("logtostderr", "true"); err != nil {
		glog.Fatal(err)
	}
	vFlag := flag.Lookup("v")

	fs := flag.NewFlagSet("karaoke-dash-server", flag.ExitOnError)
	cli := config.Cli{}

	version := fs.Bool("version", false, "print application version")
	verbosity := fs.String("v", "", "log verbosity")
	_ = fs.String("config", "", "config file (optional)")

	fs.StringVar(&cli.HTTPAddress, "http-addr", config.DefaultHTTPAddress, "Address to bind for the public HTTP API")
	fs.StringVar(&cli.HTTPInternalAddress, "http-internal-addr", config.DefaultHTTPInternalAddress, "Address to bind for internal metrics/pprof")
	fs.StringVar(&cli.BaseDir, "base-dir", config.DefaultBaseDir, "Directory where per-song DASH output is written")
	fs.StringVar(&cli.DownloaderBin, "downloader-bin", config.DefaultDownloaderBin, "Path to the yt-dlp binary")
	fs.StringVar(&cli.TranscoderBin, "transcoder-bin", config.DefaultTranscoderBin, "Path to the ffmpeg binary")
	fs.IntVar(&cli.NumWorkers, "num-workers", config.DefaultNumWorkers, "Number of worker goroutines draining the job queue")
	fs.IntVar(&cli.JobQueueCapacity, "job-queue-capacity", config.DefaultJobQueueCapacity, "Capacity of the worker pool's job channel")
	fs.IntVar(&cli.MailboxCapacity, "mailbox-capacity", config.DefaultMailboxCapacity, "Capacity of the queue coordinator's command mailbox")
	fs.IntVar(&cli.EventBacklog, "event-backlog", config.DefaultEventBacklog, "Per-subscriber backlog on the event bus")
	fs.Int64Var(&cli.SegmentDurationSecs, "segment-duration-secs", config.DefaultSegmentDurationSecs, "DASH segment duration in seconds")
	fs.IntVar(&cli.PitchConcurrency, "pitch-concurrency", config.DefaultPitchConcurrency, "Maximum pitch-shift renditions transcoded in parallel per job")

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("KARAOKE"),
	); err != nil {
		glog.Fatalf("error parsing cli: %s", err)
	}
	if len(fs.Args()) > 0 {
		glog.Fatalf("unexpected extra arguments on command line: %v", fs.Args())
	}

	if *version {
		fmt.Printf("karaoke-dash-server version: %s", config.Version)
		return
	}
	if *verbosity != "" {
		if err := vFlag.Value.Set(*verbosity); err != nil {
			glog.Fatal(err)
		}
	}

	if err := os.MkdirAll(cli.BaseDir, 0o755); err != nil {
		glog.Fatalf("failed to create base dir: %s", err)
	}

	group, ctx := errgroup.WithContext(context.Background())

	eventBus := bus.New(cli.EventBacklog)
	coordinator := queue.New(ctx, cli.MailboxCapacity, eventBus)
	downloader := tool.NewDownloader(cli.DownloaderBin, cli.BaseDir)
	transcoder := tool.NewTranscoder(cli.TranscoderBin, cli.SegmentDurationSecs, cli.PitchConcurrency)
	workerPool := pool.New(ctx, cli.NumWorkers, cli.JobQueueCapacity, downloader, transcoder)

	group.Go(func() error {
		return handleSignals(ctx)
	})

	group.Go(func() error {
		return api.ListenAndServe(ctx, cli, coordinator, eventBus, workerPool)
	})

	group.Go(func() error {
		return api.ListenAndServeInternal(ctx, cli)
	})

	err := group.Wait()
	log.LogNoRequestID("shutdown complete", "reason", err)
}

func handleSignals(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	for {
		select {
		case s := <-c:
			glog.Errorf("caught signal=%v, attempting clean shutdown", s)
			return fmt.Errorf("caught signal=%v", s)
		case <-ctx.Done():
			return nil
		}
	}
}
