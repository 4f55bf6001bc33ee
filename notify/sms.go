package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSSender posts text messages to an Africa's Talking style messaging API.
// The message To field carries the phone number; Subject is ignored.
type SMSSender struct {
	Endpoint string
	APIKey   string
	Username string
	Client   *http.Client
}

func NewSMSSender(endpoint, apiKey, username string) *SMSSender {
	return &SMSSender{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Username: username,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SMSSender) Notify(ctx context.Context, msg Message) error {
	data := url.Values{}
	data.Set("username", s.Username)
	data.Set("to", msg.To)
	data.Set("message", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("apiKey", s.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
