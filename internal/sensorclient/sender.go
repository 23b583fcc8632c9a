package sensorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sender delivers one reading to the ingest endpoint.
type Sender interface {
	Send(ctx context.Context, r Reading) error
}

// HTTPSender posts readings as JSON to the service's /sensor endpoint.
type HTTPSender struct {
	client *http.Client
	url    string
}

// NewHTTPSender creates a sender with the given endpoint and timeout.
func NewHTTPSender(url string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

// Send posts one reading. Delivery succeeds only on HTTP 200 with an "ok"
// status in the body; anything else is an error the runner may retry.
func (s *HTTPSender) Send(ctx context.Context, r Reading) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post reading: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var ack ackResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("decode ack: %w", err)
	}
	if resp.StatusCode != http.StatusOK || ack.Status != "ok" {
		return fmt.Errorf("%w: http %d: %s", ErrRejected, resp.StatusCode, ack.Message)
	}
	return nil
}
