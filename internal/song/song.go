// Package song defines the unit of queued work the coordinator (C4) and the
// worker pool (C3) pass between them.
package song

import (
	"time"

	"github.com/google/uuid"
	"github.com/livepeer/karaoke-dash-server/config"
)

// Status is the lifecycle state of a Song. C6 normally drives it forward
// from InProgress to Success or Failed, but the coordinator does not
// enforce monotonicity: UpdateSongStatus permits regressing a song that
// already reached Success back to InProgress.
type Status string

const (
	InProgress Status = "InProgress"
	Success    Status = "Success"
	Failed     Status = "Failed"
)

// InputInfo is read-only metadata about the source media, attached with
// Coordinator.SetInput. The download pipeline does not probe codecs or
// resolution and does not call SetInput, so it is empty unless a caller sets
// it. It is never required by any invariant and its absence never blocks the
// pipeline.
type InputInfo struct {
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	VideoCodec string `json:"video_codec,omitempty"`
	AudioCodec string `json:"audio_codec,omitempty"`
}

// Song is the unit of queued work.
type Song struct {
	ID         string     `json:"uuid"`
	Name       string     `json:"name"`
	SourceLink string     `json:"yt_link"`
	Status     Status     `json:"status"`
	Input      *InputInfo `json:"input,omitempty"`
	QueuedAt   time.Time  `json:"queued_at"`
}

// New creates a Song in InProgress with a freshly-assigned id. QueuedAt is
// taken from config.Clock, not time.Now directly, so callers can inject a
// FixedTimestampGenerator in tests.
func New(name, sourceLink string) Song {
	return Song{
		ID:         uuid.NewString(),
		Name:       name,
		SourceLink: sourceLink,
		Status:     InProgress,
		QueuedAt:   config.Clock.GetTime(),
	}
}

// Clone returns a deep copy safe to hand to a reader outside the owning
// goroutine.
func (s Song) Clone() Song {
	out := s
	if s.Input != nil {
		cp := *s.Input
		out.Input = &cp
	}
	return out
}
