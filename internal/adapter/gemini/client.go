package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrEmptyResponse = errors.New("gemini: empty response")

// Client adapts the Gemini API to the describe / complete calls used by the tagger.
type Client struct {
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnsureModel checks the model exists. Hosted models cannot be pulled, so a
// missing model is an error.
func (c *Client) EnsureModel(ctx context.Context, model string) error {
	info, err := c.client.GenerativeModel(model).Info(ctx)
	if err != nil {
		return fmt.Errorf("gemini model %s: %w", model, err)
	}
	slog.InfoContext(ctx, "model available", "model", model, "input_token_limit", info.InputTokenLimit)
	return nil
}

// Describe sends image together with prompt. format is the short image type
// ("jpeg", "png").
func (c *Client) Describe(ctx context.Context, model, prompt, format string, image []byte) (string, error) {
	return c.generate(ctx, model, genai.ImageData(format, image), genai.Text(prompt))
}

func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	return c.generate(ctx, model, genai.Text(prompt))
}

func (c *Client) generate(ctx context.Context, model string, parts ...genai.Part) (string, error) {
	slog.DebugContext(ctx, "generating content", "model", model, "parts", len(parts))
	res, err := c.client.GenerativeModel(model).GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var out strings.Builder
	for _, cand := range res.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
		// Only the first candidate with content is used.
		if out.Len() > 0 {
			break
		}
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyResponse, model)
	}
	return text, nil
}
