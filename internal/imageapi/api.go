package imageapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/DMarby/filterlab/internal/handler"
	"github.com/DMarby/filterlab/internal/health"
	"github.com/DMarby/filterlab/internal/hmac"
	"github.com/DMarby/filterlab/internal/image"
	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/DMarby/filterlab/internal/storage"
	"github.com/DMarby/filterlab/internal/tracing"
	"github.com/DMarby/filterlab/internal/transform"
	"github.com/gorilla/mux"
)

// TagHeader is the response header naming the tag a variant was rendered for
const TagHeader = "Filterlab-Tag"

// maxParamsBody bounds the size of a parameter update
const maxParamsBody = 64 << 10

// ParamsStore holds the live filter parameters
type ParamsStore interface {
	pipeline.ParamsSource
	Set(p params.Params) error
}

// API is a http api
type API struct {
	ImageProcessor image.Processor
	Storage        storage.Provider
	Params         ParamsStore
	HealthChecker  *health.Checker
	Log            *logger.Logger
	Tracer         *tracing.Tracer
	HandlerTimeout time.Duration
	HMAC           *hmac.HMAC // Saving and parameter updates require a signed request when set
}

// Utility methods for logging
func (a *API) logError(r *http.Request, message string, err error) {
	a.Log.Errorw(message, handler.LogFields(r, "error", err)...)
}

// Router returns a http router
func (a *API) Router() http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = handler.Handler(a.notFoundHandler)

	// Redirect trailing slashes
	router.StrictSlash(true)

	// Healthcheck
	router.Handle("/health", handler.Health(a.HealthChecker)).Methods("GET")

	// Listings
	router.Handle("/v1/tags", handler.Handler(a.tagsHandler)).Methods("GET")
	router.Handle("/v1/images", handler.Handler(a.listHandler)).Methods("GET")
	router.Handle("/v1/params", handler.Handler(a.paramsHandler)).Methods("GET")
	router.Handle("/v1/params", handler.Handler(a.updateParamsHandler)).Methods("PUT")

	// Variant routes
	router.Handle("/id/{id}/{tag:[a-zA-Z_]+}/save", handler.Handler(a.saveHandler)).Methods("POST")
	router.Handle("/id/{id}/{tag:[a-zA-Z_]+}{extension:\\..*}", handler.Handler(a.imageHandler)).Methods("GET")

	// Query parameters:
	// ?gaussian_ksize, ?sobel_ksize, ?sobel_dx, ?sobel_dy, ?sobel_dir, ?laplacian_ksize, ?canny_lower, ?canny_upper,
	// ?hough_mode, ?hough_threshold, ?hough_min_len, ?hough_max_gap, ?channel - Override the current filter parameters
	// ?size={size} - Scale the variant down to fit within size×size
	// ?format={jpg,png} - Format to save a variant in
	// ?hmac - HMAC signature of the path and URL parameters, required for saving when a key is configured.
	// Parameter updates sign the path and the query form of the new parameters instead.

	routeMatcher := &handler.MuxRouteMatcher{Router: router}

	// Set up handlers for adding a request id, handling panics, request logging, setting CORS headers, and handler execution timeout
	timeout := http.TimeoutHandler(router, a.HandlerTimeout, "Something went wrong. Timed out.")
	return handler.AddRequestID(
		handler.Tracer(a.Tracer,
			handler.Metrics(
				handler.Recovery(a.Log,
					handler.Logger(a.Log,
						handler.CORS([]string{TagHeader}, timeout),
						TagHeader,
					),
				),
				routeMatcher,
			),
			routeMatcher,
		),
	)
}

// Handle not found errors
var notFoundError = &handler.Error{
	Message: "page not found",
	Code:    http.StatusNotFound,
}

func (a *API) notFoundHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return notFoundError
}

func (a *API) tagsHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return handler.JSON(w, pipeline.Tags())
}

func (a *API) paramsHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	return handler.JSON(w, a.currentParameters())
}

// updateParamsHandler replaces the live parameters, fields missing from the body take their default value
func (a *API) updateParamsHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	if a.Params == nil {
		return &handler.Error{Message: "Parameters are read only", Code: http.StatusMethodNotAllowed}
	}

	p := params.Defaults()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxParamsBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&p); err != nil {
		return handler.BadRequest(fmt.Sprintf("Invalid parameters: %s", err))
	}

	if a.HMAC != nil {
		signed := p.Query(params.Defaults())
		signed.Set(hmac.QueryParam, r.URL.Query().Get(hmac.QueryParam))

		valid, err := a.HMAC.Verify(r.URL.Path, signed)
		if err != nil {
			a.logError(r, "error verifying signature", err)
			return handler.InternalServerError()
		}

		if !valid {
			return handler.Unauthorized("Invalid signature")
		}
	}

	if err := a.Params.Set(p); err != nil {
		if errors.Is(err, transform.ErrInvalidParameter) {
			return handler.BadRequest(err.Error())
		}

		a.logError(r, "error updating parameters", err)
		return handler.InternalServerError()
	}

	a.Log.Infow("updated filter parameters", handler.LogFields(r, "params", params.BuildQuery(p.Query(params.Defaults())))...)

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	return handler.JSON(w, a.Params.CurrentParameters())
}

func (a *API) listHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	ids, err := a.Storage.List(r.Context())
	if err != nil {
		a.logError(r, "error listing images", err)
		return handler.InternalServerError()
	}

	return handler.JSON(w, ids)
}

func (a *API) currentParameters() params.Params {
	if a.Params == nil {
		return params.Defaults()
	}
	return a.Params.CurrentParameters()
}
