package bus

import (
	"testing"
	"time"

	"github.com/livepeer/karaoke-dash-server/internal/song"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	b := New(4)
	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(Event{Type: KeyChange, CurrentKey: 2})

	select {
	case e := <-sub.Events():
		require.Equal(t, KeyChange, e.Type)
		require.Equal(t, 2, e.CurrentKey)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	b := New(4)
	a := b.Subscribe()
	c := b.Subscribe()
	defer a.Close()
	defer c.Close()

	b.Publish(Event{Type: TogglePlayback})

	for _, sub := range []*Subscriber{a, c} {
		select {
		case e := <-sub.Events():
			require.Equal(t, TogglePlayback, e.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestPublishNeverBlocksOnFullSubscriberInbox(t *testing.T) {
	b := New(1)
	sub := b.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(Event{Type: QueueUpdated, Queue: []song.Song{song.New("x", "y")}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	var sawLag bool
	drain := true
	for drain {
		select {
		case e := <-sub.Events():
			if e.Type == SubscriberLag {
				sawLag = true
			}
		default:
			drain = false
		}
	}
	require.True(t, sawLag, "slow subscriber should have received a lag marker")
}

func TestCloseIsIdempotentAndStopsFurtherDelivery(t *testing.T) {
	b := New(4)
	sub := b.Subscribe()

	sub.Close()
	require.NotPanics(t, func() { sub.Close() })

	b.Publish(Event{Type: KeyChange})

	_, ok := <-sub.Events()
	require.False(t, ok, "channel should be closed")
}

func TestUnsubscribeRemovesFromActiveSet(t *testing.T) {
	b := New(4)
	sub := b.Subscribe()
	require.Len(t, b.subs, 1)

	sub.Close()
	require.Len(t, b.subs, 0)
}
