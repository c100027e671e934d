package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shelfd/shelfd/pkg/httperror"
	"github.com/shelfd/shelfd/pkg/mapping"
	"github.com/shelfd/shelfd/pkg/store"
)

// ResourceHandler serves the stored resources over HTTP: GET/HEAD read,
// PUT creates or replaces, POST adds a document to a container, DELETE
// removes. It is the concrete Handler the dispatcher binds to.
type ResourceHandler struct {
	mapper *mapping.Mapper
	store  *store.FileStore
}

// NewResource creates a ResourceHandler over the given mapper and store.
func NewResource(mapper *mapping.Mapper, fileStore *store.FileStore) *ResourceHandler {
	return &ResourceHandler{mapper: mapper, store: fileStore}
}

// CanHandle accepts the supported methods; everything else is left for
// another handler (or a 404 from the dispatcher).
func (h *ResourceHandler) CanHandle(_ context.Context, input *Input) error {
	switch input.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete:
		return nil
	default:
		return fmt.Errorf("method %s: %w", input.Request.Method, ErrNotSupported)
	}
}

// Handle executes the request and writes the terminal response. Mapper and
// store failures are returned for the dispatcher to translate.
func (h *ResourceHandler) Handle(ctx context.Context, input *Input) error {
	id := h.identify(input.Request)

	var err error
	switch input.Request.Method {
	case http.MethodGet:
		err = h.read(ctx, input, id, true)
	case http.MethodHead:
		err = h.read(ctx, input, id, false)
	case http.MethodPut:
		err = h.write(ctx, input, id)
	case http.MethodPost:
		err = h.add(ctx, input, id)
	case http.MethodDelete:
		err = h.delete(ctx, input, id)
	default:
		err = fmt.Errorf("method %s: %w", input.Request.Method, ErrNotSupported)
	}

	return translateStoreError(err)
}

// identify rebuilds the public identifier of the request target from the
// mapper's base address and the request path.
func (h *ResourceHandler) identify(r *http.Request) mapping.ResourceIdentifier {
	base := strings.TrimSuffix(h.mapper.BaseAddress(), "/")
	return mapping.ResourceIdentifier{Path: base + r.URL.Path}
}

func (h *ResourceHandler) read(ctx context.Context, input *Input, id mapping.ResourceIdentifier, withBody bool) error {
	representation, err := h.store.Get(ctx, id, preferredType(input.Request))
	if err != nil {
		return err
	}
	defer representation.Data.Close()

	w := input.Response
	w.Header().Set("Content-Type", representation.ContentType)
	if representation.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(representation.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if withBody {
		// A copy failure here means the response is already underway;
		// there is nothing meaningful left to send to the client.
		io.Copy(w, representation.Data)
	}
	return nil
}

func (h *ResourceHandler) write(ctx context.Context, input *Input, id mapping.ResourceIdentifier) error {
	created, err := h.store.Set(ctx, id, requestType(input.Request), input.Request.Body)
	if err != nil {
		return err
	}

	if created {
		input.Response.Header().Set("Location", id.Path)
		input.Response.WriteHeader(http.StatusCreated)
	} else {
		input.Response.WriteHeader(http.StatusResetContent)
	}
	return nil
}

func (h *ResourceHandler) add(ctx context.Context, input *Input, id mapping.ResourceIdentifier) error {
	name := input.Request.Header.Get("Slug")
	if name == "" {
		name = uuid.NewString()
	}

	created, err := h.store.Add(ctx, id, name, requestType(input.Request), input.Request.Body)
	if err != nil {
		return err
	}

	input.Response.Header().Set("Location", created.Path)
	input.Response.WriteHeader(http.StatusCreated)
	return nil
}

func (h *ResourceHandler) delete(ctx context.Context, input *Input, id mapping.ResourceIdentifier) error {
	if err := h.store.Delete(ctx, id); err != nil {
		return err
	}
	input.Response.WriteHeader(http.StatusResetContent)
	return nil
}

// requestType extracts the media type of the request body, without
// parameters. Empty when the client sent none.
func requestType(r *http.Request) string {
	header := r.Header.Get("Content-Type")
	if header == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return header
	}
	return mediaType
}

// preferredType extracts a concrete Accept preference. Wildcards and
// multi-type Accept headers mean "no preference"; negotiation beyond
// suffix/type selection is out of scope.
func preferredType(r *http.Request) string {
	accept := r.Header.Get("Accept")
	if accept == "" || strings.Contains(accept, "*") || strings.Contains(accept, ",") {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(accept)
	if err != nil {
		return ""
	}
	return mediaType
}

// translateStoreError maps store sentinels onto the HTTP error taxonomy.
// Typed mapper errors pass through untouched.
func translateStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return httperror.NewNotFound(err.Error())
	case errors.Is(err, store.ErrNotEmpty),
		errors.Is(err, store.ErrExists),
		errors.Is(err, store.ErrIsContainer),
		errors.Is(err, store.ErrNotContainer):
		return httperror.NewBadRequest(err.Error())
	default:
		return err
	}
}
