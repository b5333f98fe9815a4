// Package client calls a deployed relay function over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmorgan81/imagegen/internal/fault"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/dmorgan81/imagegen/internal/relay"
	"github.com/samber/lo"
)

type Client struct {
	HTTP *http.Client
	URL  string
}

func New(url string, httpClient *http.Client) *Client {
	return &Client{
		HTTP: lo.Ternary(httpClient != nil, httpClient, http.DefaultClient),
		URL:  url,
	}
}

// Generate posts prompt to the relay and returns the image data URI.
// Failures reported by the relay come back as *fault.Error. Transport and
// decoding failures are returned unclassified.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("client").With("url", c.URL)

	body, err := json.Marshal(relay.Request{Prompt: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Info("calling relay")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling relay: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading relay response: %w", err)
	}

	var env relay.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fault.FromStatus(resp.StatusCode, fmt.Sprintf("relay error: %d", resp.StatusCode))
		}
		return "", fmt.Errorf("decoding relay response: %w", err)
	}
	log.Info("relay responded", "status", resp.StatusCode, "kind", env.Kind)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || env.Error != "" {
		return "", envelopeError(resp.StatusCode, env)
	}
	if env.Image == "" {
		return "", fault.NewMalformed("relay returned no image")
	}
	return env.Image, nil
}

// envelopeError prefers the kind the relay reported and falls back to the
// HTTP status for relays that only send a message.
func envelopeError(status int, env relay.Envelope) *fault.Error {
	msg := lo.Ternary(env.Error != "", env.Error, fmt.Sprintf("relay error: %d", status))
	if kind, ok := fault.ParseKind(string(env.Kind)); ok {
		return fault.New(kind, status, msg, nil)
	}
	if status >= 200 && status <= 299 {
		return fault.New(fault.Unexpected, status, msg, nil)
	}
	return fault.FromStatus(status, msg)
}
