package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

var ErrEmptyResponse = errors.New("ollama: empty response")

// Client adapts the Ollama API to the describe / complete calls used by the tagger.
// Inference calls are bounded by the configured timeout. Listing and pulling
// models use a client without one, since a pull streams for as long as the
// download takes; ctx is what stops it.
type Client struct {
	api       *api.Client
	provision *api.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ollama: base url %q needs scheme and host", baseURL)
	}
	return &Client{
		api:       api.NewClient(u, &http.Client{Timeout: timeout}),
		provision: api.NewClient(u, &http.Client{}),
	}, nil
}

// EnsureModel pulls model unless the server already has it. Pulling blocks
// until the download finishes; progress is logged at status changes only.
func (c *Client) EnsureModel(ctx context.Context, model string) error {
	list, err := c.provision.List(ctx)
	if err != nil {
		return fmt.Errorf("ollama list models: %w", err)
	}
	for _, m := range list.Models {
		if sameModel(m.Name, model) || sameModel(m.Model, model) {
			slog.InfoContext(ctx, "model available", "model", model)
			return nil
		}
	}

	slog.InfoContext(ctx, "model missing, pulling", "model", model)
	lastStatus := ""
	err = c.provision.Pull(ctx, &api.PullRequest{Model: model}, func(p api.ProgressResponse) error {
		if p.Status != lastStatus {
			lastStatus = p.Status
			slog.InfoContext(ctx, "pull progress", "model", model, "status", p.Status, "completed", p.Completed, "total", p.Total)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ollama pull %s: %w", model, err)
	}
	slog.InfoContext(ctx, "model pulled", "model", model)
	return nil
}

// Describe asks a multimodal model to describe image. Ollama sniffs the image
// type itself, so the format hint is unused.
func (c *Client) Describe(ctx context.Context, model, prompt, _ string, image []byte) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Images: []api.ImageData{image},
		Stream: &stream,
	}

	var out strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("%w: generate %s", ErrEmptyResponse, model)
	}
	return text, nil
}

// Complete runs a single-turn chat and returns the assistant message.
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
	}

	var out strings.Builder
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("%w: chat %s", ErrEmptyResponse, model)
	}
	return text, nil
}

// sameModel treats "llava" and "llava:latest" as the same model.
func sameModel(have, want string) bool {
	if have == want {
		return true
	}
	if !strings.Contains(want, ":") {
		return have == want+":latest"
	}
	return false
}
