package api

import (
	"context"
	"testing"

	"github.com/livepeer/karaoke-dash-server/config"
	"github.com/livepeer/karaoke-dash-server/internal/bus"
	"github.com/livepeer/karaoke-dash-server/internal/pool"
	"github.com/livepeer/karaoke-dash-server/internal/queue"
	"github.com/stretchr/testify/require"
)

func TestRouterWiresEveryEndpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.New(8)
	coordinator := queue.New(ctx, 8, b)
	baseDir := t.TempDir()
	p := pool.NewWithAdapters(ctx, 1, 4, baseDir, 4, stubDownloader{}, stubTranscoder{})

	router := NewRouter(config.Cli{BaseDir: baseDir}, coordinator, b, p)

	cases := []struct {
		method string
		path   string
	}{
		{"GET", "/api/healthcheck"},
		{"POST", "/queue_song"},
		{"POST", "/play_next"},
		{"GET", "/song_list"},
		{"GET", "/current_song"},
		{"POST", "/reposition_song"},
		{"POST", "/remove_song"},
		{"POST", "/key_up"},
		{"POST", "/key_down"},
		{"GET", "/get_key"},
		{"POST", "/toggle_playback"},
		{"GET", "/sse"},
		{"GET", "/dash/africa/africa.mpd"},
		{"GET", "/dash/africa/pitch1/stream.mpd"},
	}
	for _, c := range cases {
		handle, _, _ := router.Lookup(c.method, c.path)
		require.NotNilf(t, handle, "expected a route for %s %s", c.method, c.path)
	}
}
