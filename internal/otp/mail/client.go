package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client sends OTP email through a transactional mail gateway exposing a
// simple JSON send endpoint (Bearer-authenticated).
type Client struct {
	APIKey     string
	BaseURL    string
	From       string
	HTTPClient *http.Client
}

// NewClient returns a mail client using the given API key, endpoint, and sender address.
func NewClient(apiKey, baseURL, from string) *Client {
	if from == "" {
		from = "no-reply@7awel.com"
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		From:       from,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SendOTP emails the OTP to the given address. Does not log the OTP.
func (c *Client) SendOTP(email, otp string) error {
	if c.APIKey == "" {
		return fmt.Errorf("mail: API key not configured")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("mail: base URL not configured")
	}
	body := map[string]interface{}{
		"from":    c.From,
		"to":      email,
		"subject": "Your verification code",
		"text":    fmt.Sprintf("Your verification code is %s. It expires in a few minutes.", otp),
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
