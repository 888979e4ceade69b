package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DMarby/filterlab/internal/handler"
	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/tracing/test"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func TestTracer(t *testing.T) {
	log := logger.New(zap.FatalLevel)
	tracer, recorder := test.Recorder(log)

	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	router := mux.NewRouter()
	router.Handle("/health", noop)
	router.Handle("/id/{id}/{tag:[a-zA-Z_]+}{extension:\\..*}", noop)

	h := handler.AddRequestID(handler.Tracer(tracer, router, &handler.MuxRouteMatcher{Router: router}))

	for _, url := range []string{"/health", "/id/1/gray.png"} {
		req, _ := http.NewRequest("GET", url, nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("wrong amount of spans %d", len(spans))
	}

	if name := spans[0].Name(); name != "GET /id/{id}/{tag}{extension}" {
		t.Errorf("wrong span name %s", name)
	}

	found := false
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "http.request_id" && attr.Value.AsString() != "" {
			found = true
		}
	}
	if !found {
		t.Error("request id attribute missing")
	}
}

func TestNilTracer(t *testing.T) {
	called := false
	h := handler.Tracer(nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), nil)

	req, _ := http.NewRequest("GET", "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("handler was not called")
	}
}
