package repository

import (
	"net/http"
	"time"
)

// Fixed-width fraction keeps lexical order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// parseTime parses a stored timestamp, returning the zero time on malformed input.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatTime converts t to its UTC storage form.
func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

// sniffMime fills in a MIME type for blobs stored without one.
func sniffMime(declared string, data []byte) string {
	if declared != "" {
		return declared
	}
	return http.DetectContentType(data)
}
