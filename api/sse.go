package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/livepeer/karaoke-dash-server/log"
)

// Subscribe binds the request to a C5 subscriber and serves each received
// event as a server-sent event whose data payload is its JSON encoding.
// Dropping the client connection terminates the subscription; no
// coordinator state changes as a result.
func (h *HandlersCollection) Subscribe() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		sub := h.Bus.Subscribe()
		defer sub.Close()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case event, open := <-sub.Events():
				if !open {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					log.LogNoRequestID("failed to marshal SSE event", "err", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
