package e2e

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shelfd/shelfd/test/e2e/framework"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, config framework.TestServerConfig) *framework.TestServer {
	t.Helper()

	ts := framework.NewTestServer(t, config)
	require.NoError(t, ts.Start())
	t.Cleanup(func() { _ = ts.Stop() })
	return ts
}

func request(t *testing.T, method, url, body string, headers map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestResourceLifecycle(t *testing.T) {
	ts := startServer(t, framework.TestServerConfig{})

	// Create
	resp := request(t, "PUT", ts.URL("/doc"), "<a> <b> <c>.", map[string]string{"Content-Type": "text/turtle"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, ts.BaseAddress()+"doc", resp.Header.Get("Location"))

	// Read
	resp = request(t, "GET", ts.URL("/doc"), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/turtle", resp.Header.Get("Content-Type"))
	assert.Equal(t, "<a> <b> <c>.", readBody(t, resp))

	// Replace
	resp = request(t, "PUT", ts.URL("/doc"), "<d> <e> <f>.", nil)
	assert.Equal(t, http.StatusResetContent, resp.StatusCode)

	resp = request(t, "GET", ts.URL("/doc"), "", nil)
	assert.Equal(t, "<d> <e> <f>.", readBody(t, resp))

	// Delete
	resp = request(t, "DELETE", ts.URL("/doc"), "", nil)
	assert.Equal(t, http.StatusResetContent, resp.StatusCode)

	resp = request(t, "GET", ts.URL("/doc"), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContainerLifecycle(t *testing.T) {
	ts := startServer(t, framework.TestServerConfig{})

	resp := request(t, "PUT", ts.URL("/dir/"), "", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// POST with a Slug names the new document
	resp = request(t, "POST", ts.URL("/dir/"), "content", map[string]string{"Slug": "named"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, ts.BaseAddress()+"dir/named", resp.Header.Get("Location"))

	// POST without a Slug gets a generated name
	resp = request(t, "POST", ts.URL("/dir/"), "content", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	generated := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(generated, ts.BaseAddress()+"dir/"), generated)

	// The listing exposes both children by public identifier
	resp = request(t, "GET", ts.URL("/dir/"), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	listing := readBody(t, resp)
	assert.Contains(t, listing, ts.BaseAddress()+"dir/named\n")
	assert.Contains(t, listing, generated+"\n")

	// Non-empty containers cannot be deleted
	resp = request(t, "DELETE", ts.URL("/dir/"), "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorResponses(t *testing.T) {
	ts := startServer(t, framework.TestServerConfig{})

	resp := request(t, "GET", ts.URL("/missing"), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = request(t, "GET", ts.URL("/foo/../bar"), "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Disallowed /.. segment in URL", readBody(t, resp))

	// No handler accepts PATCH; empty 404 per the dispatch contract
	resp = request(t, "PATCH", ts.URL("/doc"), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, readBody(t, resp))

	resp = request(t, "PUT", ts.URL("/doc"), "x", map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Unsupported content type application/json")
}

// The suffix configuration changes the on-disk layout but not the public
// interface: identifiers stay stable across suffixed setups.
func TestSuffixedServer(t *testing.T) {
	ts := startServer(t, framework.TestServerConfig{
		PathSuffix: ".ttl",
	})

	resp := request(t, "PUT", ts.URL("/doc"), "data", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, ts.BaseAddress()+"doc", resp.Header.Get("Location"))

	resp = request(t, "GET", ts.URL("/doc"), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "data", readBody(t, resp))

	resp = request(t, "GET", ts.URL("/"), "", nil)
	assert.Contains(t, readBody(t, resp), ts.BaseAddress()+"doc\n")
}
