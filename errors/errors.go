package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/livepeer/karaoke-dash-server/log"
)

// APIError is returned by the Write* helpers below so callers can log or
// test against the status/cause without re-parsing the HTTP response.
type APIError struct {
	Msg    string `json:"message"`
	Status int    `json:"status"`
	Err    error  `json:"-"`
}

func (e APIError) Error() string {
	return e.Msg
}

func writeHttpError(w http.ResponseWriter, msg string, status int, err error) APIError {
	w.WriteHeader(status)

	var errorDetail string
	if err != nil {
		errorDetail = err.Error()
	}

	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": msg, "error_detail": errorDetail}); encErr != nil {
		log.LogNoRequestID("error writing HTTP error", "http_error_msg", msg, "error", encErr)
	}
	return APIError{msg, status, err}
}

func WriteHTTPBadRequest(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusBadRequest, err)
}

func WriteHTTPNotFound(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusNotFound, err)
}

// WriteHTTPNotModified writes a bare 304, used by the reposition/remove/
// key-change handlers when the coordinator reports nothing changed.
func WriteHTTPNotModified(w http.ResponseWriter) APIError {
	w.WriteHeader(http.StatusNotModified)
	return APIError{Msg: "not modified", Status: http.StatusNotModified}
}

func WriteHTTPInternalServerError(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusInternalServerError, err)
}

// Domain error kinds (§7 of the spec). No hierarchy — each is a distinct
// type so callers can errors.As() for the one they care about.

// DownloadError wraps a failed external fetch (C1 Downloader), carrying the
// tool's captured stderr.
type DownloadError struct {
	Stderr string
}

func (e DownloadError) Error() string {
	return fmt.Sprintf("download failed: %s", e.Stderr)
}

// FilenameError is returned when the downloader's stdout contract is
// violated: no parseable "<name>.<ext>" tail.
type FilenameError struct {
	Detail string
}

func (e FilenameError) Error() string {
	return fmt.Sprintf("could not parse downloader output: %s", e.Detail)
}

// PitchShiftError wraps a failed transcode, carrying the tool's stderr.
type PitchShiftError struct {
	Detail string
}

func (e PitchShiftError) Error() string {
	return fmt.Sprintf("pitch shift failed: %s", e.Detail)
}

// VideoExtractError is returned when the DASH merge step (C2) fails, e.g.
// an unparseable per-rendition manifest.
type VideoExtractError struct {
	Detail string
}

func (e VideoExtractError) Error() string {
	return fmt.Sprintf("dash merge failed: %s", e.Detail)
}

// CommandError wraps a process-spawn or local I/O failure, as distinct from
// the external tool itself reporting failure.
type CommandError struct {
	Cause error
}

func (e CommandError) Error() string {
	return fmt.Sprintf("command error: %s", e.Cause)
}

func (e CommandError) Unwrap() error {
	return e.Cause
}

// CoordinatorErrorKind enumerates the ways a C4 command can fail.
type CoordinatorErrorKind int

const (
	NotFound CoordinatorErrorKind = iota
	QueueFull
	OutOfRange
	Duplicate
)

func (k CoordinatorErrorKind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case QueueFull:
		return "QueueFull"
	case OutOfRange:
		return "OutOfRange"
	case Duplicate:
		return "Duplicate"
	default:
		return "Unknown"
	}
}

// CoordinatorError is returned by the queue coordinator (C4) for any
// command that cannot complete as requested.
type CoordinatorError struct {
	Kind CoordinatorErrorKind
}

func (e CoordinatorError) Error() string {
	return fmt.Sprintf("coordinator error: %s", e.Kind)
}

func IsCoordinatorError(err error, kind CoordinatorErrorKind) bool {
	var ce CoordinatorError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}
