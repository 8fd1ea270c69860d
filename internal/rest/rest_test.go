package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
})

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteData_Envelope(t *testing.T) {
	w := httptest.NewRecorder()

	WriteData(w, http.StatusCreated, []int{})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	t.Run("validation error carries fields", func(t *testing.T) {
		w := httptest.NewRecorder()

		WriteError(w, apperr.Validation("Invalid expense", map[string]string{"amount": "must be greater than 0"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.False(t, body.Success)
		assert.Equal(t, "VALIDATION_ERROR", body.Code)
		assert.Equal(t, "must be greater than 0", body.Fields["amount"])
	})

	t.Run("unknown errors are hidden", func(t *testing.T) {
		w := httptest.NewRecorder()

		WriteError(w, errors.New("pq: secret internals"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "internal server error", body.Error)
		assert.Equal(t, "INTERNAL_ERROR", body.Code)
	})
}

func TestCreateApiHandler(t *testing.T) {
	t.Run("writes data", func(t *testing.T) {
		h := CreateApiHandler(func(r *http.Request) (int, any, error) {
			return http.StatusOK, map[string]int{"count": 3}, nil
		})
		w := httptest.NewRecorder()

		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.JSONEq(t, `{"success":true,"data":{"count":3}}`, w.Body.String())
	})

	t.Run("writes no content", func(t *testing.T) {
		h := CreateApiHandler(func(r *http.Request) (int, any, error) {
			return http.StatusNoContent, nil, nil
		})
		w := httptest.NewRecorder()

		h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("writes error", func(t *testing.T) {
		h := CreateApiHandler(func(r *http.Request) (int, any, error) {
			return 0, nil, apperr.NotFound("wizard session not found", nil)
		})
		w := httptest.NewRecorder()

		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
	})
}

func TestWithMethods(t *testing.T) {
	h := WithMethods(http.MethodGet, http.MethodPost)(okHandler)

	t.Run("allowed method passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other method is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, w).Code)
	})
}

func TestWithJsonBody(t *testing.T) {
	h := WithJsonBody(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := DecodeJSON(r, &payload); err != nil {
			WriteError(w, err)
			return
		}
		WriteData(w, http.StatusOK, payload)
	}))

	t.Run("rejects non json body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("amount=5"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("accepts json with charset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"description":"far too long for the limit"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "BODY_TOO_LARGE", decodeError(t, w).Code)
	})

	t.Run("get requests are untouched", func(t *testing.T) {
		w := httptest.NewRecorder()
		WithJsonBody(16)(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestPathId(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/budget/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := PathId(r, "id")
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteData(w, http.StatusOK, id)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/budget/42", nil))
	assert.JSONEq(t, `{"success":true,"data":42}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/budget/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimiter(t *testing.T) {
	clock := &utils.MockClock{FixedNow: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	t.Run("refuses after burst and refills over time", func(t *testing.T) {
		limiter := NewRateLimiter(60, 2, time.Minute, clock)

		ok1, _ := limiter.Allow("10.0.0.1")
		ok2, _ := limiter.Allow("10.0.0.1")
		ok3, wait := limiter.Allow("10.0.0.1")

		assert.True(t, ok1)
		assert.True(t, ok2)
		assert.False(t, ok3)
		assert.Equal(t, time.Second, wait)

		clock.Advance(time.Second)
		ok4, _ := limiter.Allow("10.0.0.1")
		assert.True(t, ok4)
	})

	t.Run("buckets are per client", func(t *testing.T) {
		limiter := NewRateLimiter(60, 1, time.Minute, clock)

		okA, _ := limiter.Allow("10.0.0.1")
		okB, _ := limiter.Allow("10.0.0.2")

		assert.True(t, okA)
		assert.True(t, okB)
	})

	t.Run("idle buckets are evicted", func(t *testing.T) {
		limiter := NewRateLimiter(60, 1, time.Minute, clock)
		limiter.Allow("10.0.0.1")
		limiter.Allow("10.0.0.2")
		require.Equal(t, 2, limiter.Size())

		clock.Advance(2 * time.Minute)
		limiter.Allow("10.0.0.3")

		assert.Equal(t, 1, limiter.Size())
	})

	t.Run("middleware writes 429 with retry after", func(t *testing.T) {
		limiter := NewRateLimiter(60, 1, time.Minute, clock)
		h := limiter.WithRateLimit(okHandler)

		first := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.10:5555"
		h.ServeHTTP(first, req)

		second := httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.10:6666"
		h.ServeHTTP(second, req)

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.Equal(t, "1", second.Header().Get("Retry-After"))
		assert.Equal(t, "RATE_LIMITED", decodeError(t, second).Code)
	})
}
