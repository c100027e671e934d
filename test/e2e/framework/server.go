package framework

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/shelfd/shelfd/internal/logger"
	"github.com/shelfd/shelfd/pkg/handler"
	"github.com/shelfd/shelfd/pkg/mapping"
	"github.com/shelfd/shelfd/pkg/server"
	"github.com/shelfd/shelfd/pkg/store"
)

// TestServerConfig holds configuration for the test server.
type TestServerConfig struct {
	// BaseAddress is the public identifier prefix; defaults to a fixed
	// test address since identification uses the configured base, not the
	// request host.
	BaseAddress string

	// ContentTypes is the supported type set; the first entry is the
	// default. Defaults to text/turtle and text/plain.
	ContentTypes []string

	PathSuffix string
	URLSuffix  string

	LogLevel       string
	StartupTimeout time.Duration
}

// TestServer runs the full resource server stack on a loopback port for
// end-to-end tests.
type TestServer struct {
	t      testing.TB
	config TestServerConfig
	server *server.Server
	mapper *mapping.Mapper
	store  *store.FileStore
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewTestServer creates a new test server instance backed by a per-test
// temporary directory.
func NewTestServer(t testing.TB, config TestServerConfig) *TestServer {
	t.Helper()

	if config.BaseAddress == "" {
		config.BaseAddress = "http://test.com/"
	}
	if len(config.ContentTypes) == 0 {
		config.ContentTypes = []string{"text/turtle", "text/plain"}
	}
	if config.LogLevel == "" {
		config.LogLevel = "ERROR" // Keep tests quiet by default
	}
	if config.StartupTimeout == 0 {
		config.StartupTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TestServer{
		t:      t,
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start builds the mapper, store, handler and dispatcher and serves on a
// free loopback port.
func (ts *TestServer) Start() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.started {
		return fmt.Errorf("server already started")
	}

	ts.t.Helper()

	logger.SetLevel(ts.config.LogLevel)

	mapper, err := mapping.New(mapping.Config{
		BaseAddress: ts.config.BaseAddress,
		RootPath:    ts.t.TempDir() + "/",
		PathSuffix:  ts.config.PathSuffix,
		URLSuffix:   ts.config.URLSuffix,
	}, mapping.SupportedTypes(ts.config.ContentTypes...))
	if err != nil {
		return fmt.Errorf("failed to create mapper: %w", err)
	}
	ts.mapper = mapper

	fileStore, err := store.NewFileStore(ts.ctx, mapper)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	ts.store = fileStore

	// Port 0 lets the OS pick a free port
	ts.server = server.New(server.Config{Port: 0}, handler.NewResource(mapper, fileStore), nil)

	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		if err := ts.server.Serve(ts.ctx); err != nil {
			ts.t.Logf("Server error: %v", err)
		}
	}()

	if err := ts.waitForServer(); err != nil {
		ts.cancel()
		ts.wg.Wait()
		return fmt.Errorf("server failed to start: %w", err)
	}

	ts.started = true
	ts.t.Logf("Server started on %s", ts.server.Addr())
	return nil
}

// Stop stops the test server.
func (ts *TestServer) Stop() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.started {
		return nil
	}

	ts.t.Helper()
	ts.cancel()

	done := make(chan struct{})
	go func() {
		ts.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ts.t.Logf("Server stopped gracefully")
	case <-time.After(5 * time.Second):
		ts.t.Logf("Server stop timeout - forcing shutdown")
	}

	ts.started = false
	return nil
}

// URL joins path onto the server's dial address. Paths start with "/".
func (ts *TestServer) URL(path string) string {
	port := ts.server.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("http://127.0.0.1:%d%s", port, path)
}

// BaseAddress returns the configured public identifier prefix.
func (ts *TestServer) BaseAddress() string {
	return ts.config.BaseAddress
}

// Store returns the underlying file store for direct inspection.
func (ts *TestServer) Store() *store.FileStore {
	return ts.store
}

// waitForServer polls until the dispatcher has bound its listener.
func (ts *TestServer) waitForServer() error {
	deadline := time.Now().Add(ts.config.StartupTimeout)
	for time.Now().Before(deadline) {
		if addr := ts.server.Addr(); addr != nil {
			dial := fmt.Sprintf("127.0.0.1:%d", addr.(*net.TCPAddr).Port)
			conn, err := net.DialTimeout("tcp", dial, 500*time.Millisecond)
			if err == nil {
				_ = conn.Close()
				return nil
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for server to start")
}
