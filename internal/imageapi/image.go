package imageapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/DMarby/filterlab/internal/codec"
	"github.com/DMarby/filterlab/internal/handler"
	"github.com/DMarby/filterlab/internal/image"
	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/DMarby/filterlab/internal/storage"
	"github.com/DMarby/filterlab/internal/transform"
	"github.com/gorilla/mux"
)

// MaxSize is the largest thumbnail size that can be requested
const MaxSize = 5000

const (
	querySize   = "size"
	queryFormat = "format"
)

// variantCacheControl keeps client caches short lived, variants change with the live parameters
const variantCacheControl = "public, max-age=60"

func (a *API) imageHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	vars := mux.Vars(r)

	format, err := codec.ParseFormat(vars["extension"])
	if err != nil {
		return handler.BadRequest("Invalid extension")
	}

	task, handlerErr := a.buildTask(r, format)
	if handlerErr != nil {
		return handlerErr
	}

	etag, err := task.ETag()
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	if matchesETag(r.Header.Get("If-None-Match"), etag) {
		setVariantHeaders(w, task, etag)
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	processedImage, handlerErr := a.process(r, task)
	if handlerErr != nil {
		return handlerErr
	}

	// Set the headers
	setVariantHeaders(w, task, etag)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", buildFilename(task)))
	w.Header().Set("Content-Type", format.ContentType())

	// Return the image
	w.Write(processedImage)

	return nil
}

func (a *API) saveHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	if a.HMAC != nil {
		valid, err := a.HMAC.Verify(r.URL.Path, r.URL.Query())
		if err != nil {
			a.logError(r, "error verifying signature", err)
			return handler.InternalServerError()
		}

		if !valid {
			return handler.Unauthorized("Invalid signature")
		}
	}

	format := codec.JPEG
	if extension := r.URL.Query().Get(queryFormat); extension != "" {
		var err error
		if format, err = codec.ParseFormat(extension); err != nil {
			return handler.BadRequest("Invalid format")
		}
	}

	task, handlerErr := a.buildTask(r, format)
	if handlerErr != nil {
		return handlerErr
	}

	processedImage, handlerErr := a.process(r, task)
	if handlerErr != nil {
		return handlerErr
	}

	name := storage.VariantName(task.ImageID, task.Tag.String(), format.Extension())
	if err := a.Storage.Put(r.Context(), name, processedImage); err != nil {
		a.logError(r, "error saving image", err)
		return handler.InternalServerError()
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set(TagHeader, task.Tag.String())

	return handler.JSONStatus(w, http.StatusCreated, struct {
		Name string `json:"name"`
	}{name})
}

// buildTask reads the image id, tag and parameter overrides of a request
// Unknown tags render the original image
func (a *API) buildTask(r *http.Request, format codec.Format) (*image.Task, *handler.Error) {
	vars := mux.Vars(r)

	imageID := vars["id"]
	if !storage.ValidID(imageID) {
		return nil, handler.BadRequest("Invalid image id")
	}

	tag, _ := pipeline.ParseTag(vars["tag"])

	query := r.URL.Query()
	p, err := params.FromQuery(a.currentParameters(), query)
	if err != nil {
		return nil, handler.BadRequest(err.Error())
	}

	task := image.NewTask(imageID, tag, p, format)

	if query.Has(querySize) {
		size, err := strconv.Atoi(query.Get(querySize))
		if err != nil || size < 1 || size > MaxSize {
			return nil, handler.BadRequest(fmt.Sprintf("Invalid size, must be between 1 and %d", MaxSize))
		}
		task.Thumbnail(size)
	}

	return task, nil
}

func (a *API) process(r *http.Request, task *image.Task) ([]byte, *handler.Error) {
	processedImage, err := a.ImageProcessor.ProcessImage(r.Context(), task)
	switch {
	case err == nil:
		return processedImage, nil
	case errors.Is(err, storage.ErrNotFound):
		return nil, handler.NotFound(storage.ErrNotFound.Error())
	case errors.Is(err, storage.ErrInvalidID):
		return nil, handler.BadRequest(storage.ErrInvalidID.Error())
	case errors.Is(err, transform.ErrInvalidParameter):
		return nil, handler.BadRequest(err.Error())
	}

	a.logError(r, "error processing image", err)
	return nil, handler.InternalServerError()
}

func setVariantHeaders(w http.ResponseWriter, task *image.Task, etag string) {
	w.Header().Set("Cache-Control", variantCacheControl)
	w.Header().Set("ETag", etag)
	w.Header().Set(TagHeader, task.Tag.String())
}

// matchesETag reports whether an If-None-Match header value contains etag
func matchesETag(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}

	return false
}

func buildFilename(task *image.Task) string {
	filename := fmt.Sprintf("%s-%s", task.ImageID, task.Tag)

	if task.Size > 0 {
		filename += fmt.Sprintf("-%d", task.Size)
	}

	return filename + task.Format.Extension()
}
