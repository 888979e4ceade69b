package handler

import (
	"encoding/json"
	"net/http"
	"strings"
)

const jsonMediaType = "application/json"

// Error is an error response, carrying the message shown to the client and the http status code
type Error struct {
	Message string
	Code    int
}

func (e *Error) Error() string {
	return e.Message
}

// InternalServerError hides the underlying failure from the client
func InternalServerError() *Error {
	return &Error{
		Message: "Something went wrong",
		Code:    http.StatusInternalServerError,
	}
}

// BadRequest is returned for invalid ids, tags, parameters and extensions
func BadRequest(message string) *Error {
	return &Error{
		Message: message,
		Code:    http.StatusBadRequest,
	}
}

// NotFound is returned when a source image or route does not exist
func NotFound(message string) *Error {
	return &Error{
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// Unauthorized is returned when a request signature does not match
func Unauthorized(message string) *Error {
	return &Error{
		Message: message,
		Code:    http.StatusUnauthorized,
	}
}

// Handler is an http handler that returns its failure instead of writing it
type Handler func(w http.ResponseWriter, r *http.Request) *Error

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		writeError(w, r, err)
	}
}

// writeError renders err as json for clients that accept it, and as plain text otherwise
func writeError(w http.ResponseWriter, r *http.Request, err *Error) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if !acceptsJSON(r) {
		http.Error(w, err.Message, err.Code)
		return
	}

	if jsonErr := JSONStatus(w, err.Code, struct {
		Error string `json:"error"`
	}{err.Message}); jsonErr != nil {
		http.Error(w, jsonErr.Message, jsonErr.Code)
	}
}

func acceptsJSON(r *http.Request) bool {
	for _, accept := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, _ := strings.Cut(accept, ";")
		if strings.TrimSpace(mediaType) == jsonMediaType {
			return true
		}
	}

	return false
}

// JSON writes data as a json response
func JSON(w http.ResponseWriter, data interface{}) *Error {
	return JSONStatus(w, http.StatusOK, data)
}

// JSONStatus writes data as a json response with the given status code
func JSONStatus(w http.ResponseWriter, code int, data interface{}) *Error {
	body, err := json.Marshal(data)
	if err != nil {
		return InternalServerError()
	}

	w.Header().Set("Content-Type", jsonMediaType)
	w.WriteHeader(code)
	w.Write(append(body, '\n'))

	return nil
}
