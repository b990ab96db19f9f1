package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// SlackClient posts to an incoming webhook. An empty webhook URL disables
// posting, which is how dev environments run.
type SlackClient struct {
	webhookURL string
	httpClient *http.Client
}

func NewSlackClient(webhookURL string, httpClient *http.Client) SlackClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return SlackClient{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c SlackClient) Post(ctx context.Context, text string) error {
	if c.webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshalling slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned %s", resp.Status)
	}
	return nil
}
