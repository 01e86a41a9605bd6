package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotag/internal/config"
	"autotag/internal/testutils"
)

func TestSmoke_Startup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smoke test in short mode")
	}

	// 1. Start Infrastructure
	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	ollamaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"models":[{"name":"llava:latest","model":"llava:latest"},{"name":"llama3:latest","model":"llama3:latest"}]}`))
	}))
	defer ollamaSrv.Close()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	// 2. Configure App to use Infrastructure
	cfg := suite.GetAppConfig()
	cfg.ServerPort = port
	cfg.EnableWorker = false
	cfg.MetadataURL = "http://127.0.0.1:1"
	cfg.InferenceProvider = config.ProviderOllama
	cfg.OllamaURL = ollamaSrv.URL
	cfg.InferenceTimeout = 5 * time.Second
	cfg.DescribeModel = "llava"
	cfg.TagModel = "llama3"
	cfg.StorageBackend = config.StorageLocal
	cfg.StorageRoot = t.TempDir()

	// 3. Run App in Background
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, suite.Logger())
	}()

	// 4. Wait for Health Check
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 30*time.Second, 500*time.Millisecond)

	resp, err := http.Get(base + "/disk-usage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("app did not stop")
	}
}
