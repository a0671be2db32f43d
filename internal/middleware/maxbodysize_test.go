package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/wanderlust/backend/internal/middleware"
)

// decodingHandler decodes a JSON string body the way the API handlers do and
// answers 413 when the body was cut off by the limit.
var decodingHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	var v string
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
})

func TestNewMaxBodySizeHandler(t *testing.T) {
	const limit = 64
	body := func(n int) string { return `"` + strings.Repeat("x", n) + `"` }

	tests := []struct {
		name          string
		body          string
		contentLength int64
		want          int
	}{
		{"within limit", body(10), 12, http.StatusOK},
		{"declared length over limit", body(100), 102, http.StatusRequestEntityTooLarge},
		{"unknown length over limit", body(100), -1, http.StatusRequestEntityTooLarge},
		{"unknown length within limit", body(10), -1, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := middleware.NewMaxBodySizeHandler(limit)(decodingHandler)
			req := httptest.NewRequest(http.MethodPost, "/trips/t1/expenses", strings.NewReader(tc.body))
			req.ContentLength = tc.contentLength
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestNewMaxBodySizeHandler_NoBody(t *testing.T) {
	called := false
	h := middleware.NewMaxBodySizeHandler(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
