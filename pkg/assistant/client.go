package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is a thin Assistants v2 HTTP client.
type Client struct {
	apiKey  string
	baseURL string
	client  *resty.Client
}

// NewClient builds an API client. timeout bounds a single HTTP call, not
// a whole run.
func NewClient(apiKey, baseURL string, timeout time.Duration, maxRetries int) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

// CreateThread opens a new empty thread.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var thread Thread
	err := c.call(ctx, "POST", "/v1/threads", map[string]interface{}{}, &thread)
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

// AddMessage appends a user message to a thread.
func (c *Client) AddMessage(ctx context.Context, threadID, content string) error {
	return c.call(ctx, "POST", fmt.Sprintf("/v1/threads/%s/messages", threadID),
		map[string]interface{}{
			"role":    "user",
			"content": content,
		}, nil)
}

// CreateRun starts the assistant on a thread.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	var run Run
	err := c.call(ctx, "POST", fmt.Sprintf("/v1/threads/%s/runs", threadID),
		map[string]interface{}{
			"assistant_id": assistantID,
		}, &run)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun fetches the current status of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	err := c.call(ctx, "GET", fmt.Sprintf("/v1/threads/%s/runs/%s", threadID, runID), nil, &run)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// LatestRun returns the newest run on a thread, or nil when the thread has
// none.
func (c *Client) LatestRun(ctx context.Context, threadID string) (*Run, error) {
	var list RunList
	err := c.call(ctx, "GET", fmt.Sprintf("/v1/threads/%s/runs?limit=1&order=desc", threadID), nil, &list)
	if err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	return &list.Data[0], nil
}

// LastAssistantMessage returns the text of the newest assistant message on
// a thread.
func (c *Client) LastAssistantMessage(ctx context.Context, threadID string) (string, error) {
	var list MessageList
	err := c.call(ctx, "GET", fmt.Sprintf("/v1/threads/%s/messages?limit=1&order=desc", threadID), nil, &list)
	if err != nil {
		return "", err
	}
	if len(list.Data) == 0 {
		return "", errors.New("assistant returned no messages")
	}

	msg := list.Data[0]
	if msg.Role != "assistant" {
		return "", errors.New("latest thread message is not from the assistant")
	}
	for _, content := range msg.Content {
		if content.Type == "text" && content.Text != nil {
			return content.Text.Value, nil
		}
	}
	return "", errors.New("assistant message has no text content")
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", c.apiKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("OpenAI-Beta", "assistants=v2")
	if body != nil {
		req = req.SetBody(body)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return fmt.Errorf("openai %s %s: %w", method, path, err)
	}

	if resp.StatusCode() >= 400 {
		var apiErr apiError
		if json.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("openai %s %s: %s (%s)", method, path, apiErr.Error.Message, apiErr.Error.Type)
		}
		return fmt.Errorf("openai %s %s: status %d", method, path, resp.StatusCode())
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("openai %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}
