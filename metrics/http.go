package metrics

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/livepeer/karaoke-dash-server/config"
	"github.com/livepeer/karaoke-dash-server/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ListenAndServeInternal serves /metrics and the net/http/pprof endpoints on
// a loopback-only listener, mirroring the teacher's split between the public
// API listener and its internal pprof/metrics one.
func ListenAndServeInternal(addr string) error {
	http.Handle("/metrics", promhttp.Handler())

	log.LogNoRequestID(
		"Starting internal metrics/pprof listener",
		"version", config.Version,
		"host", addr,
	)
	return http.ListenAndServe(addr, nil)
}
