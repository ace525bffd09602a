package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

const (
	DefaultGeminiModel   = "gemini-2.0-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiAPIVersion     = "v1beta"
)

// GeminiClient implements Client on the Gemini API. The SDK client is
// created on first use so a server without an API key still starts.
type GeminiClient struct {
	config *genai.ClientConfig
	model  string

	once   sync.Once
	client *genai.Client
	err    error
}

// NewGeminiClient creates a new Gemini API client. Empty model and baseURL
// select the defaults.
func NewGeminiClient(apiKey, model, baseURL string, timeout time.Duration) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &GeminiClient{
		model: model,
		config: &genai.ClientConfig{
			APIKey:     apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: timeout},
			HTTPOptions: genai.HTTPOptions{
				BaseURL:    strings.TrimRight(baseURL, "/") + "/",
				APIVersion: geminiAPIVersion,
			},
		},
	}
}

var errEmptyResponse = errors.New("no text in response")

func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		c.client, c.err = genai.NewClient(ctx, c.config)
		if c.err != nil {
			c.err = fmt.Errorf("create gemini client: %w", c.err)
		}
	})
	return c.client, c.err
}

// Analyze sends the prompt and the PNG image and returns the text of the
// first candidate.
func (c *GeminiClient) Analyze(ctx context.Context, image []byte, prompt string) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image, "image/png"),
		}, genai.RoleUser),
	}
	resp, err := client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", fb.BlockReason)
	}

	text := resp.Text()
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
