package api

import (
	"context"

	"github.com/livepeer/karaoke-dash-server/config"
	"github.com/livepeer/karaoke-dash-server/metrics"
)

// ListenAndServeInternal starts the loopback-only /metrics + pprof
// listener, mirroring the teacher's split between api/http.go (public) and
// api/http_internal.go (internal/admin).
func ListenAndServeInternal(ctx context.Context, cli config.Cli) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- metrics.ListenAndServeInternal(cli.HTTPInternalAddress)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
