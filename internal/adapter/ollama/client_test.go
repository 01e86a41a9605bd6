package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotag/internal/adapter/ollama"
)

func newClient(t *testing.T, url string) *ollama.Client {
	t.Helper()
	c, err := ollama.NewClient(url, 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := ollama.NewClient("ollama:11434", time.Second)
	assert.Error(t, err)
}

func TestClient_EnsureModel_Present(t *testing.T) {
	pulled := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"models": []map[string]interface{}{
					{"name": "llava:latest", "model": "llava:latest"},
				},
			})
		case "/api/pull":
			pulled = true
		}
	}))
	defer ts.Close()

	require.NoError(t, newClient(t, ts.URL).EnsureModel(context.Background(), "llava"))
	assert.False(t, pulled)
}

func TestClient_EnsureModel_Pulls(t *testing.T) {
	var pullBody map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]interface{}{"models": []interface{}{}})
		case "/api/pull":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&pullBody))
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.Write([]byte("{\"status\":\"pulling manifest\"}\n{\"status\":\"downloading\",\"total\":10,\"completed\":5}\n{\"status\":\"success\"}\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	require.NoError(t, newClient(t, ts.URL).EnsureModel(context.Background(), "llama3"))
	assert.Equal(t, "llama3", pullBody["model"])
}

func TestClient_EnsureModel_PullFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]interface{}{"models": []interface{}{}})
		case "/api/pull":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"pull model manifest: file does not exist"}`))
		}
	}))
	defer ts.Close()

	err := newClient(t, ts.URL).EnsureModel(context.Background(), "nope")
	assert.Error(t, err)
}

func TestClient_EnsureModel_PullOutlastsInferenceTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]interface{}{"models": []interface{}{}})
		case "/api/pull":
			w.Header().Set("Content-Type", "application/x-ndjson")
			flusher := w.(http.Flusher)
			for _, line := range []string{
				`{"status":"pulling manifest"}`,
				`{"status":"downloading","total":10,"completed":4}`,
				`{"status":"downloading","total":10,"completed":10}`,
			} {
				w.Write([]byte(line + "\n"))
				flusher.Flush()
				time.Sleep(200 * time.Millisecond)
			}
			w.Write([]byte(`{"status":"success"}` + "\n"))
		}
	}))
	defer ts.Close()

	c, err := ollama.NewClient(ts.URL, 250*time.Millisecond)
	require.NoError(t, err)

	assert.NoError(t, c.EnsureModel(context.Background(), "llava"))
}

func TestClient_Complete_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":   "llama3",
			"message": map[string]string{"role": "assistant", "content": "too late"},
			"done":    true,
		})
	}))
	defer ts.Close()

	c, err := ollama.NewClient(ts.URL, 100*time.Millisecond)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "llama3", "tag this")
	assert.Error(t, err)
}

func TestClient_Describe(t *testing.T) {
	var body map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":    "llava",
			"response": " A golden retriever puppy on grass. ",
			"done":     true,
		})
	}))
	defer ts.Close()

	out, err := newClient(t, ts.URL).Describe(context.Background(), "llava", "Describe", "png", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "A golden retriever puppy on grass.", out)
	assert.Equal(t, "llava", body["model"])
	assert.Equal(t, false, body["stream"])
	images, ok := body["images"].([]interface{})
	require.True(t, ok)
	assert.Len(t, images, 1)
}

func TestClient_Describe_Empty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"model": "llava", "response": "", "done": true})
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL).Describe(context.Background(), "llava", "Describe", "jpeg", []byte{1})
	assert.True(t, errors.Is(err, ollama.ErrEmptyResponse))
}

func TestClient_Complete(t *testing.T) {
	var body map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":   "llama3",
			"message": map[string]string{"role": "assistant", "content": "Here are the tags: Sales, Growth"},
			"done":    true,
		})
	}))
	defer ts.Close()

	out, err := newClient(t, ts.URL).Complete(context.Background(), "llama3", "tag this")
	require.NoError(t, err)
	assert.Equal(t, "Here are the tags: Sales, Growth", out)

	msgs := body["messages"].([]interface{})
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]interface{})
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "tag this", msg["content"])
}

func TestClient_Complete_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"llama3\" not found, try pulling it first"}`))
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL).Complete(context.Background(), "llama3", "tag this")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
