// internal/gemini/client.go
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultBaseURL is the hosted Gemini REST endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is used when no override is configured.
const DefaultModel = "gemini-2.5-pro-exp-03-25"

// Client is a Gemini generateContent API client. Calls are synchronous
// and carry no client-side timeout: a slow model blocks only the
// interaction that issued it, and the context still allows shutdown.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a client for the given endpoint, credential and model.
func NewClient(baseURL, apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

// Model returns the model identifier this client targets.
func (c *Client) Model() string {
	return c.model
}

// Content is one role-tagged turn in a generateContent request.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a text fragment of a turn.
type Part struct {
	Text string `json:"text"`
}

type generateRequest struct {
	Contents []Content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	Error         *apiError      `json:"error,omitempty"`
}

// UsageMetadata reports token accounting for one call.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GenerateContent sends the assembled turns and returns the model's raw
// text reply plus usage accounting. Transport, HTTP and empty-candidate
// failures come back as errors for the caller to convert.
func (c *Client) GenerateContent(ctx context.Context, contents []Content) (string, *UsageMetadata, error) {
	body, err := json.Marshal(generateRequest{Contents: contents})
	if err != nil {
		return "", nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", nil, fmt.Errorf("model returned HTTP %d", resp.StatusCode)
		}
		return "", nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", nil, fmt.Errorf("HTTP 429: Gemini API quota/rate limit exceeded")
	}
	if parsed.Error != nil {
		return "", nil, fmt.Errorf("HTTP %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("model returned HTTP %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil, fmt.Errorf("model returned no candidates")
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), parsed.UsageMetadata, nil
}

// Reply runs one conversational exchange: it assembles the prompt from
// the prior turns and workspace listing, calls the model, and converts
// any failure into a synthetic one-element chat batch so callers always
// receive reply text to interpret. Errors never propagate past here.
func (c *Client) Reply(ctx context.Context, history []Turn, files []string) (string, *UsageMetadata) {
	reply, usage, err := c.GenerateContent(ctx, BuildContents(history, files))
	if err != nil {
		return SyntheticChatBatch("Error calling AI: " + err.Error()), nil
	}
	return reply, usage
}

// SyntheticChatBatch wraps a message as the JSON reply the interpreter
// expects, so error paths flow through the same pipeline as real replies.
func SyntheticChatBatch(message string) string {
	batch := []map[string]string{{"action": "chat", "content": strings.ReplaceAll(message, `"`, "'")}}
	data, err := json.Marshal(batch)
	if err != nil {
		return `[{"action": "chat", "content": "Error calling AI."}]`
	}
	return string(data)
}
