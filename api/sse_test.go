package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/livepeer/karaoke-dash-server/internal/bus"
	"github.com/stretchr/testify/require"
)

func TestSubscribeStreamsPublishedEventsAsSSE(t *testing.T) {
	h := newTestHandlers(t)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	r := httptest.NewRequest("GET", "/sse", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.Subscribe()(w, r, nil)
		close(done)
	}()

	// give the handler a moment to subscribe before publishing.
	time.Sleep(20 * time.Millisecond)
	h.Bus.Publish(bus.Event{Type: bus.KeyChange, CurrentKey: 1})

	<-done

	require.Equal(t, 200, w.Code)
	require.Contains(t, w.Body.String(), `"type":"KeyChange"`)
	require.True(t, strings.Contains(w.Body.String(), "data: "))
}
