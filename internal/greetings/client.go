package greetings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrGenerationFailed = errors.New("message generation failed")

// Generator produces one localized greeting per call. Implementations may
// fail independently per call; callers isolate those failures per recipient.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
}

type Request struct {
	Type               string `json:"type"`
	HolidayName        string `json:"holiday_name,omitempty"`
	HolidayType        string `json:"holiday_type,omitempty"`
	HolidayDescription string `json:"holiday_description,omitempty"`
	LanguageCode       string `json:"language_code"`
	CountryCode        string `json:"country_code"`
	Religion           string `json:"religion,omitempty"`
}

type response struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) Generate(ctx context.Context, req *Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		logrus.Warnf("Greetings API returned status %d: %s", resp.StatusCode, string(data))
		return "", fmt.Errorf("%w: status %d", ErrGenerationFailed, resp.StatusCode)
	}

	var parsed response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if parsed.Message == "" {
		return "", fmt.Errorf("%w: empty message in response", ErrGenerationFailed)
	}

	return parsed.Message, nil
}
