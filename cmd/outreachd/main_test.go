package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/outreach-gate/internal/outreach/config"
)

func testConfig(t *testing.T, port int, cacheSize int) *config.AppConfig {
	t.Helper()
	t.Setenv("OUTREACH_ENV", "dev")
	t.Setenv("OUTREACH_LOG_LEVEL", "debug")
	t.Setenv("OUTREACH_HTTP_PORT", fmt.Sprintf("%d", port))
	t.Setenv("OUTREACH_DB_PATH", filepath.Join(t.TempDir(), "data", "outreach.db"))
	t.Setenv("OUTREACH_BLOCKLIST_CACHE_SIZE", fmt.Sprintf("%d", cacheSize))
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestBuildApplication_WithAndWithoutPrefilter(t *testing.T) {
	for _, size := range []int{0, 8} {
		t.Run(fmt.Sprintf("cache_size=%d", size), func(t *testing.T) {
			app, err := buildApplication(testConfig(t, 8080, size))
			require.NoError(t, err)
			require.NotNil(t, app.server)
			assert.Equal(t, ":8080", app.server.Addr)
			require.NoError(t, app.db.Close())
		})
	}
}

func TestBuildApplication_AppliesSeeds(t *testing.T) {
	seedDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "acme.yaml"), []byte("list_id: acme\npatterns:\n  - example.com\n"), 0o644))
	t.Setenv("OUTREACH_SEED_DIR", seedDir)

	app, err := buildApplication(testConfig(t, 8080, 0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	req := httptest.NewRequest(http.MethodGet, "/ng-list-domains?list_id=acme", nil)
	w := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"normalized":"example.com"`)
}

func TestBuildApplication_BadSeedFails(t *testing.T) {
	seedDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "bad.yaml"), []byte("patterns: [a.com]\n"), 0o644))
	t.Setenv("OUTREACH_SEED_DIR", seedDir)

	_, err := buildApplication(testConfig(t, 8080, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load seeds")
}

func TestApplication_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	port := freePort(t)
	app, err := buildApplication(testConfig(t, port, 16))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	appErr := make(chan error, 1)
	go func() { appErr <- app.Run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	resp, err := http.Post(base+"/ng-list-domains", "application/json",
		bytes.NewBufferString(`{"list_id":"acme","pattern":"*.example.com"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-appErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not shut down")
	}
}
