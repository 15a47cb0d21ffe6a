// Package queue implements the queue coordinator (C4): a single-owner actor
// serving a bounded command mailbox, holding the pending queue, the current
// song, and the global pitch key.
package queue

import (
	"context"

	"github.com/livepeer/karaoke-dash-server/config"
	"github.com/livepeer/karaoke-dash-server/errors"
	"github.com/livepeer/karaoke-dash-server/internal/bus"
	"github.com/livepeer/karaoke-dash-server/internal/song"
	"github.com/livepeer/karaoke-dash-server/metrics"
)

// state is the Queue State owned exclusively by the coordinator goroutine.
type state struct {
	pending []song.Song
	current *song.Song
	key     int
}

func newState() state {
	return state{pending: make([]song.Song, 0)}
}

// command is the mailbox message shape: every command carries its own reply
// channel, Go's rendering of the original Rust actor's oneshot replies.
type command struct {
	run func(*state) any
	reply chan any
}

// Coordinator is the handle callers use to talk to the actor goroutine. It
// is safe for concurrent use by any number of callers.
type Coordinator struct {
	mailbox chan command
	bus     *bus.Bus
}

// New starts the coordinator goroutine and returns a handle to it. The
// goroutine runs until ctx is cancelled.
func New(ctx context.Context, mailboxCapacity int, b *bus.Bus) *Coordinator {
	c := &Coordinator{
		mailbox: make(chan command, mailboxCapacity),
		bus:     b,
	}
	go c.run(ctx)
	return c
}

func (c *Coordinator) run(ctx context.Context) {
	st := newState()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.mailbox:
			metrics.Metrics.MailboxDepth.Set(float64(len(c.mailbox)))
			result := cmd.run(&st)
			metrics.Metrics.QueueDepth.Set(float64(len(st.pending)))
			metrics.Metrics.CurrentKey.Set(float64(st.key))
			cmd.reply <- result
		}
	}
}

// send dispatches run on the actor goroutine and blocks until it replies.
// Sending itself suspends when the mailbox is full, the coordinator's share
// of the backpressure model in §5.
func (c *Coordinator) send(ctx context.Context, run func(*state) any) any {
	reply := make(chan any, 1)
	select {
	case c.mailbox <- command{run: run, reply: reply}:
	case <-ctx.Done():
		return errors.CoordinatorError{Kind: errors.NotFound}
	}
	select {
	case res := <-reply:
		return res
	case <-ctx.Done():
		return errors.CoordinatorError{Kind: errors.NotFound}
	}
}

func snapshotQueue(st *state) []song.Song {
	out := make([]song.Song, len(st.pending))
	for i, s := range st.pending {
		out[i] = s.Clone()
	}
	return out
}

// QueueSong appends a Song to the pending queue and emits QueueUpdated.
// Returns CoordinatorError{Duplicate} if a song with the same id already
// exists in pending ∪ {current}: every id in that set must be unique.
func (c *Coordinator) QueueSong(ctx context.Context, s song.Song) error {
	res := c.send(ctx, func(st *state) any {
		if st.current != nil && st.current.ID == s.ID {
			return errors.CoordinatorError{Kind: errors.Duplicate}
		}
		for _, existing := range st.pending {
			if existing.ID == s.ID {
				return errors.CoordinatorError{Kind: errors.Duplicate}
			}
		}
		st.pending = append(st.pending, s)
		c.bus.Publish(bus.Event{Type: bus.QueueUpdated, Queue: snapshotQueue(st)})
		return nil
	})
	if res == nil {
		return nil
	}
	return res.(error)
}

// RemoveSong removes the first pending song with the given id, if any. It
// is a no-op, not an error, if the id is absent.
func (c *Coordinator) RemoveSong(ctx context.Context, id string) error {
	res := c.send(ctx, func(st *state) any {
		for i, s := range st.pending {
			if s.ID == id {
				st.pending = append(st.pending[:i], st.pending[i+1:]...)
				c.bus.Publish(bus.Event{Type: bus.QueueUpdated, Queue: snapshotQueue(st)})
				return nil
			}
		}
		return nil
	})
	if res == nil {
		return nil
	}
	return res.(error)
}

// PopSong pops the head of pending into current, replacing any previous
// current song. If pending is empty, current becomes nil.
func (c *Coordinator) PopSong(ctx context.Context) (*song.Song, error) {
	res := c.send(ctx, func(st *state) any {
		if len(st.pending) == 0 {
			st.current = nil
			c.bus.Publish(bus.Event{Type: bus.QueueUpdated, Queue: snapshotQueue(st)})
			return (*song.Song)(nil)
		}
		next := st.pending[0].Clone()
		st.pending = st.pending[1:]
		st.current = &next
		c.bus.Publish(bus.Event{Type: bus.QueueUpdated, Queue: snapshotQueue(st)})
		out := next.Clone()
		return &out
	})
	if s, ok := res.(*song.Song); ok {
		return s, nil
	}
	return nil, res.(error)
}

// Reposition moves the song with the given id to min(pos, len(pending)). If
// the id is absent the queue is left unchanged and CoordinatorError{NotFound}
// is returned.
func (c *Coordinator) Reposition(ctx context.Context, id string, pos int) error {
	res := c.send(ctx, func(st *state) any {
		idx := -1
		for i, s := range st.pending {
			if s.ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return errors.CoordinatorError{Kind: errors.NotFound}
		}
		s := st.pending[idx]
		st.pending = append(st.pending[:idx], st.pending[idx+1:]...)
		newPos := pos
		if newPos > len(st.pending) {
			newPos = len(st.pending)
		}
		if newPos < 0 {
			newPos = 0
		}
		st.pending = append(st.pending, song.Song{})
		copy(st.pending[newPos+1:], st.pending[newPos:])
		st.pending[newPos] = s
		c.bus.Publish(bus.Event{Type: bus.QueueUpdated, Queue: snapshotQueue(st)})
		return nil
	})
	if res == nil {
		return nil
	}
	return res.(error)
}

// CurrentSong returns a snapshot of the current song, or nil.
func (c *Coordinator) CurrentSong(ctx context.Context) *song.Song {
	res := c.send(ctx, func(st *state) any {
		if st.current == nil {
			return (*song.Song)(nil)
		}
		out := st.current.Clone()
		return &out
	})
	if s, ok := res.(*song.Song); ok {
		return s
	}
	return nil
}

// GetQueue returns a snapshot of the pending queue.
func (c *Coordinator) GetQueue(ctx context.Context) []song.Song {
	res := c.send(ctx, func(st *state) any {
		return snapshotQueue(st)
	})
	if q, ok := res.([]song.Song); ok {
		return q
	}
	return nil
}

// KeyUp increments the global pitch key, emitting KeyChange. Returns
// CoordinatorError{OutOfRange} if already at config.MaxKey.
func (c *Coordinator) KeyUp(ctx context.Context) (int, error) {
	res := c.send(ctx, func(st *state) any {
		if st.key >= config.MaxKey {
			return errors.CoordinatorError{Kind: errors.OutOfRange}
		}
		st.key++
		c.bus.Publish(bus.Event{Type: bus.KeyChange, CurrentKey: st.key})
		return st.key
	})
	if err, ok := res.(error); ok {
		return 0, err
	}
	return res.(int), nil
}

// KeyDown decrements the global pitch key, emitting KeyChange. Returns
// CoordinatorError{OutOfRange} if already at config.MinKey.
func (c *Coordinator) KeyDown(ctx context.Context) (int, error) {
	res := c.send(ctx, func(st *state) any {
		if st.key <= config.MinKey {
			return errors.CoordinatorError{Kind: errors.OutOfRange}
		}
		st.key--
		c.bus.Publish(bus.Event{Type: bus.KeyChange, CurrentKey: st.key})
		return st.key
	})
	if err, ok := res.(error); ok {
		return 0, err
	}
	return res.(int), nil
}

// GetKey returns the current global pitch key.
func (c *Coordinator) GetKey(ctx context.Context) int {
	res := c.send(ctx, func(st *state) any {
		return st.key
	})
	if k, ok := res.(int); ok {
		return k
	}
	return 0
}

// UpdateSongStatus mutates the status of the song matching id, wherever it
// currently lives (pending or current), and emits QueueUpdated on success.
// Regressions (e.g. Success back to InProgress) are permitted, per the
// open question in §9 — the source this was distilled from permits it and
// in practice only one writer (C6) ever updates a given song's status.
func (c *Coordinator) UpdateSongStatus(ctx context.Context, id string, status song.Status) error {
	res := c.send(ctx, func(st *state) any {
		if st.current != nil && st.current.ID == id {
			st.current.Status = status
			c.bus.Publish(bus.Event{Type: bus.QueueUpdated, Queue: snapshotQueue(st)})
			return nil
		}
		for i, s := range st.pending {
			if s.ID == id {
				st.pending[i].Status = status
				c.bus.Publish(bus.Event{Type: bus.QueueUpdated, Queue: snapshotQueue(st)})
				return nil
			}
		}
		return errors.CoordinatorError{Kind: errors.NotFound}
	})
	if res == nil {
		return nil
	}
	return res.(error)
}

// SetInput attaches source-media metadata to a song, wherever it
// currently lives. It is a supplemental, best-effort update: failure to
// find the song is not an error worth surfacing to callers.
func (c *Coordinator) SetInput(ctx context.Context, id string, info song.InputInfo) {
	c.send(ctx, func(st *state) any {
		if st.current != nil && st.current.ID == id {
			st.current.Input = &info
			return nil
		}
		for i, s := range st.pending {
			if s.ID == id {
				st.pending[i].Input = &info
				return nil
			}
		}
		return nil
	})
}
