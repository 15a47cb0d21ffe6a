package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/livepeer/karaoke-dash-server/errors"
)

// safeJoin joins baseDir with the given path components, rejecting any
// result that escapes baseDir after cleaning — the defensive pattern the
// teacher's static-serving glue applies implicitly via http.FileServer.
func safeJoin(baseDir string, parts ...string) (string, bool) {
	joined := filepath.Join(append([]string{baseDir}, parts...)...)
	cleaned := filepath.Clean(joined)
	if cleaned != baseDir && !strings.HasPrefix(cleaned, baseDir+string(filepath.Separator)) {
		return "", false
	}
	return cleaned, true
}

// ServeManifest serves /dash/{name}/{file} — the composite manifest or a
// top-level artifact file.
func (h *HandlersCollection) ServeManifest() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		path, ok := safeJoin(h.BaseDir, ps.ByName("name"), ps.ByName("file"))
		if !ok {
			errors.WriteHTTPNotFound(w, "invalid path", nil)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// ServeSegment serves /dash/{name}/{stream}/{file} — a per-rendition
// manifest or media segment under video/ or pitch{k}/.
func (h *HandlersCollection) ServeSegment() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		path, ok := safeJoin(h.BaseDir, ps.ByName("name"), ps.ByName("stream"), ps.ByName("file"))
		if !ok {
			errors.WriteHTTPNotFound(w, "invalid path", nil)
			return
		}
		http.ServeFile(w, r, path)
	}
}
