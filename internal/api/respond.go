package api

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

const defaultCacheControl = "public, max-age=300"

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// encodeJSON marshals v without HTML escaping. Slashes and non-ASCII
// runes are written as is.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// weakETag returns W/"<sha1 of body>".
func weakETag(body []byte) string {
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

// writeJSON encodes v and writes it with an ETag. When the request's
// If-None-Match carries the same tag, a bodiless 304 with the same
// headers is sent instead. Headers already set on w are kept.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	body, err := encodeJSON(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to encode response"}`))
		return
	}

	h := w.Header()
	etag := weakETag(body)
	h.Set("Content-Type", "application/json; charset=utf-8")
	if h.Get("Cache-Control") == "" {
		h.Set("Cache-Control", defaultCacheControl)
	}
	h.Set("ETag", etag)

	if strings.TrimSpace(r.Header.Get("If-None-Match")) == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, errCode, message string) {
	writeJSON(w, r, code, errorResponse{Error: errCode, Message: message})
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return defaultVal
	}
	return i
}

// queryBool parses an optional boolean flag; anything unparseable is false.
func queryBool(r *http.Request, name string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(name)))
	return err == nil && b
}
