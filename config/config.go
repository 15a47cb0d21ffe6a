package config

var Version string

// Used so that we can generate fixed timestamps in tests
var Clock TimestampGenerator = RealTimestampGenerator{}

// Default bind addresses for the two HTTP listeners: one public, one
// loopback-only for metrics/pprof, mirroring the teacher's split between
// api/http.go and api/http_internal.go.
const (
	DefaultHTTPAddress         = "0.0.0.0:8000"
	DefaultHTTPInternalAddress = "127.0.0.1:7979"
)

// DefaultBaseDir is where per-song DASH output directories are created.
const DefaultBaseDir = "./assets"

const (
	DefaultDownloaderBin = "yt-dlp"
	DefaultTranscoderBin = "ffmpeg"
)

// DefaultNumWorkers is the number of identical consumers draining the job queue (C3).
const DefaultNumWorkers = 3

// DefaultJobQueueCapacity bounds how many queue_song jobs can be in flight
// waiting for a worker before producers (HTTP handlers) suspend at the send site.
const DefaultJobQueueCapacity = 5

// DefaultMailboxCapacity bounds the coordinator's (C4) command mailbox.
const DefaultMailboxCapacity = 32

// DefaultEventBacklog bounds the per-subscriber backlog on the event bus (C5).
const DefaultEventBacklog = 16

// DefaultSegmentDurationSecs is the DASH segment duration requested of the transcoder.
const DefaultSegmentDurationSecs = 4

// DefaultPitchConcurrency bounds how many pitch-shift renditions a single
// worker transcodes in parallel.
const DefaultPitchConcurrency = 3

// MinKey and MaxKey bound the global pitch key (§3 Queue State invariant).
const (
	MinKey = -3
	MaxKey = 3
)

// PitchIndex is the fixed {semitone -> directory index} map from §4.1. It
// must never change or cached artifacts will mis-route audio URLs.
var PitchIndex = map[int]int{
	0:  1,
	1:  2,
	2:  3,
	3:  4,
	-1: 5,
	-2: 6,
	-3: 7,
}

// Semitones returns the fixed ordered list of pitch offsets the transcoder renders.
func Semitones() []int {
	return []int{-3, -2, -1, 0, 1, 2, 3}
}
