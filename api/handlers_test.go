package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/livepeer/karaoke-dash-server/internal/bus"
	"github.com/livepeer/karaoke-dash-server/internal/pool"
	"github.com/livepeer/karaoke-dash-server/internal/queue"
	"github.com/livepeer/karaoke-dash-server/internal/song"
	"github.com/livepeer/karaoke-dash-server/internal/tool"
	"github.com/stretchr/testify/require"
)

// stubDownloader/stubTranscoder satisfy the pool package's Downloader/
// Transcoder interfaces without shelling out, so QueueSong's detached
// processQueuedSong goroutine has somewhere safe to land.
type stubDownloader struct{}

func (stubDownloader) Download(ctx context.Context, requestID, sourceLink, name string) (tool.DownloadResult, error) {
	return tool.DownloadResult{Directory: "/tmp", Name: name, Extension: "mp4", DurationS: 4}, nil
}

type stubTranscoder struct{}

func (stubTranscoder) RunVideo(ctx context.Context, inputPath, outDir string) error { return nil }

func (stubTranscoder) RunPitchShifts(ctx context.Context, inputPath, outDir string, semitones []int) error {
	return nil
}

func newTestHandlers(t *testing.T) *HandlersCollection {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	b := bus.New(8)
	coordinator := queue.New(ctx, 8, b)
	baseDir := t.TempDir()
	p := pool.NewWithAdapters(ctx, 1, 4, baseDir, 4, stubDownloader{}, stubTranscoder{})
	return NewHandlersCollection(coordinator, b, p, baseDir)
}

func call(t *testing.T, handle httprouter.Handle, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	handle(w, r, nil)
	return w
}

func TestHealthcheckReturnsOK(t *testing.T) {
	h := newTestHandlers(t)
	w := call(t, h.Healthcheck(), http.MethodGet, "/api/healthcheck", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCurrentSongReturnsNoContentWhenEmpty(t *testing.T) {
	h := newTestHandlers(t)
	w := call(t, h.CurrentSong(), http.MethodGet, "/current_song", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestSongListReturnsQueuedSongs(t *testing.T) {
	h := newTestHandlers(t)
	body, _ := json.Marshal(queueSongRequest{Name: "africa", YoutubeLink: "https://youtube.com/watch?v=1"})
	w := call(t, h.QueueSong(), http.MethodPost, "/queue_song", body)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = call(t, h.SongList(), http.MethodGet, "/song_list", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var songs []song.Song
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &songs))
	require.Len(t, songs, 1)
	require.Equal(t, "africa", songs[0].Name)
}

func TestQueueSongRejectsInvalidBody(t *testing.T) {
	h := newTestHandlers(t)
	w := call(t, h.QueueSong(), http.MethodPost, "/queue_song", []byte("not json"))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRepositionSongRejectsMalformedUUID(t *testing.T) {
	h := newTestHandlers(t)
	body, _ := json.Marshal(repositionRequest{SongUUID: "missing", Position: 0})
	w := call(t, h.RepositionSong(), http.MethodPost, "/reposition_song", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRepositionSongReturnsNotModifiedForWellFormedUnknownUUID(t *testing.T) {
	h := newTestHandlers(t)
	body, _ := json.Marshal(repositionRequest{SongUUID: uuid.NewString(), Position: 0})
	w := call(t, h.RepositionSong(), http.MethodPost, "/reposition_song", body)
	require.Equal(t, http.StatusNotModified, w.Code)
}

func TestRemoveSongReturnsOKForUnknownID(t *testing.T) {
	h := newTestHandlers(t)
	body, _ := json.Marshal(removeRequest{SongUUID: "missing"})
	w := call(t, h.RemoveSong(), http.MethodPost, "/remove_song", body)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestKeyUpAndGetKeyRoundTrip(t *testing.T) {
	h := newTestHandlers(t)
	w := call(t, h.KeyUp(), http.MethodPost, "/key_up", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var key int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &key))
	require.Equal(t, 1, key)

	w = call(t, h.GetKey(), http.MethodGet, "/get_key", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &key))
	require.Equal(t, 1, key)
}

func TestKeyDownReturnsNotModifiedAtMinKey(t *testing.T) {
	h := newTestHandlers(t)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, call(t, h.KeyDown(), http.MethodPost, "/key_down", nil).Code)
	}
	require.Equal(t, http.StatusNotModified, call(t, h.KeyDown(), http.MethodPost, "/key_down", nil).Code)
}

func TestTogglePlaybackPublishesOnBusWithoutTouchingCoordinator(t *testing.T) {
	h := newTestHandlers(t)
	sub := h.Bus.Subscribe()
	defer sub.Close()

	w := call(t, h.TogglePlayback(), http.MethodPost, "/toggle_playback", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case e := <-sub.Events():
		require.Equal(t, bus.TogglePlayback, e.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a TogglePlayback event")
	}
}

func TestPlayNextPopsEmptyQueueWithoutError(t *testing.T) {
	h := newTestHandlers(t)
	w := call(t, h.PlayNext(), http.MethodPost, "/play_next", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
