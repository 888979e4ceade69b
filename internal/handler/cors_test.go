package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DMarby/filterlab/internal/handler"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		Name            string
		Method          string
		Headers         map[string]string
		ExpectedHeaders map[string]string
	}{
		{
			Name:   "sets correct headers for non-option requests",
			Method: "GET",
			Headers: map[string]string{
				"Origin": "http://www.example.com",
			},
			ExpectedHeaders: map[string]string{
				"Access-Control-Allow-Origin":   "*",
				"Access-Control-Expose-Headers": "Filterlab-Tag",
			},
		},
		{
			Name:   "allows preflight requests for saving",
			Method: "OPTIONS",
			Headers: map[string]string{
				"Origin":                        "http://www.example.com",
				"Access-Control-Request-Method": "POST",
			},
			ExpectedHeaders: map[string]string{
				"Access-Control-Allow-Origin":  "*",
				"Access-Control-Allow-Methods": "POST",
			},
		},
		{
			Name:   "rejects preflight requests for other methods",
			Method: "OPTIONS",
			Headers: map[string]string{
				"Origin":                        "http://www.example.com",
				"Access-Control-Request-Method": "DELETE",
			},
			ExpectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "",
			},
		},
	}

	h := handler.CORS([]string{"Filterlab-Tag"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, test := range tests {
		r := httptest.NewRequest(test.Method, "/", nil)
		for key, value := range test.Headers {
			r.Header.Set(key, value)
		}

		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		for key, expected := range test.ExpectedHeaders {
			if value := w.Header().Get(key); value != expected {
				t.Errorf("%s: wrong %s header %q", test.Name, key, value)
			}
		}
	}
}
