package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedCatalog is returned when an artist catalog is empty or one
	// of its records lacks a required field.
	ErrMalformedCatalog = errors.New("malformed catalog")

	// ErrUnsupportedURL is returned for links that do not point at a
	// supported catalog item.
	ErrUnsupportedURL = errors.New("unsupported url")

	// ErrNotStreamable is returned for albums the catalog refuses to stream.
	ErrNotStreamable = errors.New("album is not streamable")

	// ErrTrackUnavailable is returned when no full-length file URL exists for a track.
	ErrTrackUnavailable = errors.New("track not available for download")

	// ErrDownloadCancelled is returned when the user explicitly cancels a download operation.
	ErrDownloadCancelled = errors.New("download cancelled by user")

	// ErrNoItemsSelected is returned when no items are selected for download.
	ErrNoItemsSelected = errors.New("no items selected for download")
)

// MalformedRecordError identifies the record and field that made a catalog
// unusable. It matches ErrMalformedCatalog with errors.Is.
type MalformedRecordError struct {
	Index int // -1 when the catalog itself is at fault
	Title string
	Field string
}

func (e *MalformedRecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed catalog: artist is missing %s", e.Field)
	}
	if e.Title != "" {
		return fmt.Sprintf("malformed catalog: album %d (%q) is missing %s", e.Index, e.Title, e.Field)
	}
	return fmt.Sprintf("malformed catalog: album %d is missing %s", e.Index, e.Field)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedCatalog
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, e.Message)
}

// IsRetryableHTTPError checks if an HTTP error should be retried
func IsRetryableHTTPError(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	switch httpErr.StatusCode {
	case http.StatusServiceUnavailable,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
