// Package api implements the request orchestrator (C6): thin per-endpoint
// handlers binding HTTP to the queue coordinator (C4) and the worker pool
// (C3).
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/livepeer/karaoke-dash-server/errors"
	"github.com/livepeer/karaoke-dash-server/internal/bus"
	"github.com/livepeer/karaoke-dash-server/internal/pool"
	"github.com/livepeer/karaoke-dash-server/internal/queue"
	"github.com/livepeer/karaoke-dash-server/internal/song"
	"github.com/livepeer/karaoke-dash-server/log"
)

// HandlersCollection groups the dependencies every handler needs, matching
// the teacher's *HandlersCollection idiom (e.g. CatalystAPIHandlersCollection).
type HandlersCollection struct {
	Coordinator *queue.Coordinator
	Bus         *bus.Bus
	Pool        *pool.Pool
	BaseDir     string
}

func NewHandlersCollection(coordinator *queue.Coordinator, b *bus.Bus, p *pool.Pool, baseDir string) *HandlersCollection {
	return &HandlersCollection{Coordinator: coordinator, Bus: b, Pool: p, BaseDir: baseDir}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Healthcheck always returns 200, per §6.
func (h *HandlersCollection) Healthcheck() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	}
}

type queueSongRequest struct {
	Name      string `json:"name"`
	YoutubeLink string `json:"yt_link"`
}

// QueueSong creates a Song in InProgress, inserts it via C4, responds 202
// immediately, then spawns a detached task that runs C3 and back-patches
// the song's status via C4. The spawned task never blocks the response and
// never fails the handler if the status update is lost after C3 succeeds.
func (h *HandlersCollection) QueueSong() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req queueSongRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errors.WriteHTTPBadRequest(w, "invalid request body", err)
			return
		}

		s := song.New(req.Name, req.YoutubeLink)
		ctx := r.Context()
		if err := h.Coordinator.QueueSong(ctx, s); err != nil {
			errors.WriteHTTPInternalServerError(w, "failed to queue song", err)
			return
		}

		w.WriteHeader(http.StatusAccepted)

		go h.processQueuedSong(s)
	}
}

// processQueuedSong runs detached from the request that accepted it, so it
// uses a background context rather than the request's (which is cancelled
// the moment the handler returns).
func (h *HandlersCollection) processQueuedSong(s song.Song) {
	ctx := context.Background()
	reply := make(chan pool.Result, 1)
	job := pool.Job{RequestID: s.ID, Name: s.Name, SourceLink: s.SourceLink, Reply: reply}

	if err := h.Pool.Submit(ctx, job); err != nil {
		log.LogNoRequestID("failed to submit job", "song", s.ID, "err", err)
		_ = h.Coordinator.UpdateSongStatus(ctx, s.ID, song.Failed)
		return
	}

	result := <-reply
	if result.Err != nil {
		log.LogNoRequestID("song processing failed", "song", s.ID, "err", result.Err)
		_ = h.Coordinator.UpdateSongStatus(ctx, s.ID, song.Failed)
		return
	}

	_ = h.Coordinator.UpdateSongStatus(ctx, s.ID, song.Success)
	pool.DeleteSource(ctx, result.OutputDir)
}

// PlayNext forwards PopSong to C4 and responds 200 whether or not the queue
// was empty; the pop result is conveyed through the event stream, not the
// response body. A coordinator error yields 500.
func (h *HandlersCollection) PlayNext() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, err := h.Coordinator.PopSong(r.Context()); err != nil {
			errors.WriteHTTPInternalServerError(w, "failed to pop song", err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// SongList returns a snapshot of the pending queue.
func (h *HandlersCollection) SongList() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		songs := h.Coordinator.GetQueue(r.Context())
		writeJSON(w, http.StatusOK, songs)
	}
}

// CurrentSong returns the current song, or 204 if none.
func (h *HandlersCollection) CurrentSong() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s := h.Coordinator.CurrentSong(r.Context())
		if s == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

type repositionRequest struct {
	SongUUID string `json:"song_uuid"`
	Position int    `json:"position"`
}

// RepositionSong forwards to C4: 400 if song_uuid isn't a well-formed uuid,
// 200 on success, 304 if the id was well-formed but absent from the queue.
func (h *HandlersCollection) RepositionSong() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req repositionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errors.WriteHTTPBadRequest(w, "invalid request body", err)
			return
		}
		if _, err := uuid.Parse(req.SongUUID); err != nil {
			errors.WriteHTTPBadRequest(w, "song_uuid is not a valid uuid", err)
			return
		}
		if err := h.Coordinator.Reposition(r.Context(), req.SongUUID, req.Position); err != nil {
			errors.WriteHTTPNotModified(w)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

type removeRequest struct {
	SongUUID string `json:"song_uuid"`
}

// RemoveSong forwards to C4. Removing an unknown id is a no-op that still
// returns 200 (deliberately tolerant, per §8).
func (h *HandlersCollection) RemoveSong() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req removeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errors.WriteHTTPBadRequest(w, "invalid request body", err)
			return
		}
		if err := h.Coordinator.RemoveSong(r.Context(), req.SongUUID); err != nil {
			errors.WriteHTTPNotModified(w)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// KeyUp forwards to C4: 200 with the new key, or 304 at config.MaxKey.
func (h *HandlersCollection) KeyUp() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		key, err := h.Coordinator.KeyUp(r.Context())
		if err != nil {
			errors.WriteHTTPNotModified(w)
			return
		}
		writeJSON(w, http.StatusOK, key)
	}
}

// KeyDown forwards to C4: 200 with the new key, or 304 at config.MinKey.
func (h *HandlersCollection) KeyDown() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		key, err := h.Coordinator.KeyDown(r.Context())
		if err != nil {
			errors.WriteHTTPNotModified(w)
			return
		}
		writeJSON(w, http.StatusOK, key)
	}
}

// GetKey returns the current global pitch key.
func (h *HandlersCollection) GetKey() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, h.Coordinator.GetKey(r.Context()))
	}
}

// TogglePlayback emits TogglePlayback directly on C5, bypassing C4 — per
// the open question in §9, playback is not part of the coordinator's state.
func (h *HandlersCollection) TogglePlayback() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.Bus.Publish(bus.Event{Type: bus.TogglePlayback})
		w.WriteHeader(http.StatusAccepted)
	}
}
