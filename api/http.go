package api

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/livepeer/karaoke-dash-server/config"
	"github.com/livepeer/karaoke-dash-server/internal/bus"
	"github.com/livepeer/karaoke-dash-server/internal/pool"
	"github.com/livepeer/karaoke-dash-server/internal/queue"
	"github.com/livepeer/karaoke-dash-server/log"
	"github.com/livepeer/karaoke-dash-server/metrics"
	"github.com/livepeer/karaoke-dash-server/middleware"
)

// ListenAndServe starts the public HTTP listener and blocks until ctx is
// cancelled, then shuts the server down gracefully.
func ListenAndServe(ctx context.Context, cli config.Cli, coordinator *queue.Coordinator, b *bus.Bus, p *pool.Pool) error {
	router := NewRouter(cli, coordinator, b, p)
	server := http.Server{Addr: cli.HTTPAddress, Handler: router}
	ctx, cancel := context.WithCancel(ctx)

	log.LogNoRequestID(
		"Starting karaoke server",
		"version", config.Version,
		"host", cli.HTTPAddress,
	)

	var err error
	go func() {
		err = server.ListenAndServe()
		cancel()
	}()

	<-ctx.Done()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// NewRouter wires every endpoint in §6 to its handler, wrapped in the
// logging + CORS middleware chain, matching the teacher's one-route-per-call
// router construction style.
func NewRouter(cli config.Cli, coordinator *queue.Coordinator, b *bus.Bus, p *pool.Pool) *httprouter.Router {
	router := httprouter.New()
	withLogging := middleware.LogRequest()
	withCORS := middleware.AllowCORS()
	wrap := func(h httprouter.Handle) httprouter.Handle { return withLogging(withCORS(h)) }

	h := NewHandlersCollection(coordinator, b, p, cli.BaseDir)

	router.GET("/api/healthcheck", wrap(inFlight(h.Healthcheck())))
	router.POST("/queue_song", wrap(inFlight(h.QueueSong())))
	router.POST("/play_next", wrap(inFlight(h.PlayNext())))
	router.GET("/song_list", wrap(inFlight(h.SongList())))
	router.GET("/current_song", wrap(inFlight(h.CurrentSong())))
	router.POST("/reposition_song", wrap(inFlight(h.RepositionSong())))
	router.POST("/remove_song", wrap(inFlight(h.RemoveSong())))
	router.POST("/key_up", wrap(inFlight(h.KeyUp())))
	router.POST("/key_down", wrap(inFlight(h.KeyDown())))
	router.GET("/get_key", wrap(inFlight(h.GetKey())))
	router.POST("/toggle_playback", wrap(inFlight(h.TogglePlayback())))
	router.GET("/sse", wrap(h.Subscribe()))
	router.GET("/dash/:name/:file", wrap(inFlight(h.ServeManifest())))
	// httprouter allows only one wildcard name per path position, so the
	// rendition directory arrives as :file and the segment as :segment and
	// is renamed here to the params ServeSegment reads.
	serveSegment := h.ServeSegment()
	router.GET("/dash/:name/:file/:segment", wrap(inFlight(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		serveSegment(w, r, httprouter.Params{
			{Key: "name", Value: ps.ByName("name")},
			{Key: "stream", Value: ps.ByName("file")},
			{Key: "file", Value: ps.ByName("segment")},
		})
	})))

	return router
}

// inFlight tracks HTTPRequestsInFlight around a handler, mirroring the
// teacher's JobsInFlight/HTTPRequestsInFlight gauge pattern.
func inFlight(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		metrics.Metrics.HTTPRequestsInFlight.Inc()
		defer metrics.Metrics.HTTPRequestsInFlight.Dec()
		next(w, r, ps)
	}
}
