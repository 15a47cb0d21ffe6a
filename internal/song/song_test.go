package song

import (
	"testing"
	"time"

	"github.com/livepeer/karaoke-dash-server/config"
	"github.com/stretchr/testify/require"
)

func TestNewAssignsUniqueIDAndInProgressStatus(t *testing.T) {
	a := New("bohemian-rhapsody", "https://youtube.com/watch?v=abc")
	b := New("bohemian-rhapsody", "https://youtube.com/watch?v=abc")

	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, InProgress, a.Status)
	require.Equal(t, "bohemian-rhapsody", a.Name)
	require.Equal(t, "https://youtube.com/watch?v=abc", a.SourceLink)
}

func TestCloneIsIndependentOfSourceInput(t *testing.T) {
	s := New("dont-stop-believing", "https://youtube.com/watch?v=xyz")
	s.Input = &InputInfo{Width: 1280, Height: 720, VideoCodec: "h264", AudioCodec: "aac"}

	clone := s.Clone()
	require.Equal(t, s.Input, clone.Input)

	clone.Input.Width = 1920
	require.Equal(t, 1280, s.Input.Width, "mutating the clone's Input must not affect the original")
}

func TestCloneWithNilInput(t *testing.T) {
	s := New("dont-stop-believing", "https://youtube.com/watch?v=xyz")
	clone := s.Clone()
	require.Nil(t, clone.Input)
}

func TestNewTakesQueuedAtFromConfigClock(t *testing.T) {
	original := config.Clock
	defer func() { config.Clock = original }()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	config.Clock = config.FixedTimestampGenerator{Timestamp: fixed}

	s := New("africa", "https://youtube.com/watch?v=abc")
	require.True(t, s.QueuedAt.Equal(fixed))
}
