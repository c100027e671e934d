package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shelfd/shelfd/pkg/httperror"
	"github.com/shelfd/shelfd/pkg/mapping"
	"github.com/shelfd/shelfd/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "http://test.com/"

func newResourceHandler(t *testing.T) *ResourceHandler {
	t.Helper()

	mapper, err := mapping.New(mapping.Config{
		BaseAddress: testBase,
		RootPath:    t.TempDir() + "/",
	}, mapping.SupportedTypes("text/turtle", "text/plain"))
	require.NoError(t, err)

	fileStore, err := store.NewFileStore(context.Background(), mapper)
	require.NoError(t, err)

	return NewResource(mapper, fileStore)
}

func do(t *testing.T, h *ResourceHandler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	request := httptest.NewRequest(method, path, strings.NewReader(body))
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	input := &Input{Request: request, Response: recorder}

	require.NoError(t, h.CanHandle(context.Background(), input))
	return recorder, h.Handle(context.Background(), input)
}

func TestCanHandle(t *testing.T) {
	h := newResourceHandler(t)

	for _, method := range []string{"GET", "HEAD", "PUT", "POST", "DELETE"} {
		input := &Input{Request: httptest.NewRequest(method, "/x", nil)}
		assert.NoError(t, h.CanHandle(context.Background(), input), method)
	}

	input := &Input{Request: httptest.NewRequest("PATCH", "/x", nil)}
	assert.ErrorIs(t, h.CanHandle(context.Background(), input), ErrNotSupported)
}

func TestPutThenGet(t *testing.T) {
	h := newResourceHandler(t)

	recorder, err := do(t, h, "PUT", "/doc", "hello", map[string]string{"Content-Type": "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, testBase+"doc", recorder.Header().Get("Location"))

	recorder, err = do(t, h, "GET", "/doc", "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "hello", recorder.Body.String())
	assert.Equal(t, "text/turtle", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "5", recorder.Header().Get("Content-Length"))
}

func TestPut_Replace(t *testing.T) {
	h := newResourceHandler(t)

	recorder, err := do(t, h, "PUT", "/doc", "first", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, recorder.Code)

	recorder, err = do(t, h, "PUT", "/doc", "second", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusResetContent, recorder.Code)
	assert.Empty(t, recorder.Header().Get("Location"))
}

func TestHead(t *testing.T) {
	h := newResourceHandler(t)

	_, err := do(t, h, "PUT", "/doc", "hello", nil)
	require.NoError(t, err)

	recorder, err := do(t, h, "HEAD", "/doc", "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "5", recorder.Header().Get("Content-Length"))
	assert.Empty(t, recorder.Body.String())
}

func TestGet_Missing(t *testing.T) {
	h := newResourceHandler(t)

	_, err := do(t, h, "GET", "/missing", "", nil)
	require.Error(t, err)

	typed, ok := httperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, typed.StatusCode)
}

func TestGet_ContainerListing(t *testing.T) {
	h := newResourceHandler(t)

	_, err := do(t, h, "PUT", "/dir/doc", "x", nil)
	require.NoError(t, err)

	recorder, err := do(t, h, "GET", "/dir/", "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/plain", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Body.String(), testBase+"dir/doc\n")
}

func TestGet_UnsupportedAccept(t *testing.T) {
	h := newResourceHandler(t)

	_, err := do(t, h, "PUT", "/doc", "x", nil)
	require.NoError(t, err)

	_, err = do(t, h, "GET", "/doc", "", map[string]string{"Accept": "application/json"})
	require.Error(t, err)

	typed, ok := httperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, typed.StatusCode)

	// Wildcards and multi-type Accept headers mean no preference
	recorder, err := do(t, h, "GET", "/doc", "", map[string]string{"Accept": "*/*"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder, err = do(t, h, "GET", "/doc", "", map[string]string{"Accept": "text/turtle, application/json"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestPost_Slug(t *testing.T) {
	h := newResourceHandler(t)

	_, err := do(t, h, "PUT", "/dir/", "", nil)
	require.NoError(t, err)

	recorder, err := do(t, h, "POST", "/dir/", "body", map[string]string{"Slug": "named"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, testBase+"dir/named", recorder.Header().Get("Location"))

	// Same slug twice collides
	_, err = do(t, h, "POST", "/dir/", "body", map[string]string{"Slug": "named"})
	require.Error(t, err)

	typed, ok := httperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, typed.StatusCode)
}

func TestPost_GeneratedName(t *testing.T) {
	h := newResourceHandler(t)

	_, err := do(t, h, "PUT", "/dir/", "", nil)
	require.NoError(t, err)

	recorder, err := do(t, h, "POST", "/dir/", "body", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, recorder.Code)

	location := recorder.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, testBase+"dir/"), location)
	assert.NotEqual(t, testBase+"dir/", location)
}

func TestPost_NotContainer(t *testing.T) {
	h := newResourceHandler(t)

	_, err := do(t, h, "PUT", "/doc", "x", nil)
	require.NoError(t, err)

	_, err = do(t, h, "POST", "/doc", "body", nil)
	require.Error(t, err)

	typed, ok := httperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, typed.StatusCode)
}

func TestDelete(t *testing.T) {
	h := newResourceHandler(t)

	_, err := do(t, h, "PUT", "/doc", "x", nil)
	require.NoError(t, err)

	recorder, err := do(t, h, "DELETE", "/doc", "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusResetContent, recorder.Code)

	_, err = do(t, h, "DELETE", "/doc", "", nil)
	require.Error(t, err)

	typed, ok := httperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, typed.StatusCode)
}

func TestDelete_NonEmptyContainer(t *testing.T) {
	h := newResourceHandler(t)

	_, err := do(t, h, "PUT", "/dir/doc", "x", nil)
	require.NoError(t, err)

	_, err = do(t, h, "DELETE", "/dir/", "", nil)
	require.Error(t, err)

	typed, ok := httperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, typed.StatusCode)
}

func TestMalformedPath(t *testing.T) {
	h := newResourceHandler(t)

	_, err := do(t, h, "GET", "/foo/../bar", "", nil)
	require.Error(t, err)

	typed, ok := httperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, typed.StatusCode)
	assert.Equal(t, "Disallowed /.. segment in URL", typed.Message)
}
