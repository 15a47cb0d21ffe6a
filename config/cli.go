package config

// Cli holds every flag the server accepts, populated by main() via
// peterbourgon/ff (flags, or KARAOKE_-prefixed env vars).
type Cli struct {
	HTTPAddress         string
	HTTPInternalAddress string
	BaseDir             string
	DownloaderBin       string
	TranscoderBin       string
	NumWorkers          int
	JobQueueCapacity    int
	MailboxCapacity     int
	EventBacklog        int
	SegmentDurationSecs int64
	PitchConcurrency    int
}
