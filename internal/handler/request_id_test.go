package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DMarby/filterlab/internal/handler"
	"github.com/google/uuid"
)

func TestAddRequestID(t *testing.T) {
	var seen string
	h := handler.AddRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = handler.GetReqID(r.Context())
	}))

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		if _, err := uuid.Parse(seen); err != nil {
			t.Fatalf("invalid request id %q", seen)
		}

		if w.Header().Get(handler.RequestIDHeader) != seen {
			t.Error("request id header doesn't match")
		}
	})

	t.Run("reuses a valid incoming id", func(t *testing.T) {
		id := uuid.NewString()
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(handler.RequestIDHeader, id)

		h.ServeHTTP(httptest.NewRecorder(), r)
		if seen != id {
			t.Errorf("wrong request id %q", seen)
		}
	})

	t.Run("replaces an invalid incoming id", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(handler.RequestIDHeader, "<script>")

		h.ServeHTTP(httptest.NewRecorder(), r)
		if seen == "<script>" {
			t.Error("invalid id was kept")
		}
	})

	if id := handler.GetReqID(httptest.NewRequest("GET", "/", nil).Context()); id != "" {
		t.Errorf("unexpected request id %q", id)
	}
}
