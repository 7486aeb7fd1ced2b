// Package sessionserver talks to Mojang's session server to verify that a
// connecting client really completed Microsoft/Mojang authentication
// before the core hands out a LoginSuccess.
package sessionserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://sessionserver.mojang.com"

// Client wraps an *http.Client pointed at Mojang's session server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client using the real Mojang session server.
func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithURL returns a Client pointed at a custom base URL, for tests
// that stand up a local stand-in session server.
func NewClientWithURL(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// Property is a single signed profile property (e.g. "textures").
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// HasJoinedResponse is Mojang's JSON body for a successful hasJoined call.
type HasJoinedResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
}

// DashedUUID formats the response's 32-hex id as the canonical
// 8-4-4-4-12 dashed UUID string the LoginSuccess packet expects.
func (r *HasJoinedResponse) DashedUUID() (string, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return "", fmt.Errorf("sessionserver: malformed profile id %q: %w", r.ID, err)
	}
	return id.String(), nil
}

type errorResponse struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// HasJoined calls GET /session/minecraft/hasJoined?username=...&serverId=...
// and requires a 2xx response with a profile body. Mojang signals "this
// client never actually joined" as a bodyless 204; that is reported as a
// plain error, since the login flow has no use for a silent nil here.
func (c *Client) HasJoined(ctx context.Context, username, serverID string) (*HasJoinedResponse, error) {
	q := url.Values{"username": {username}, "serverId": {serverID}}
	reqURL := c.baseURL + "/session/minecraft/hasJoined?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("sessionserver: building hasJoined request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sessionserver: hasJoined request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sessionserver: reading hasJoined response: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, fmt.Errorf("sessionserver: client %q has not joined via Mojang auth", username)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("sessionserver: hasJoined rejected (%d): %s: %s", resp.StatusCode, errResp.Error, errResp.ErrorMessage)
		}
		return nil, fmt.Errorf("sessionserver: hasJoined rejected (%d): %s", resp.StatusCode, body)
	}

	var out HasJoinedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("sessionserver: decoding hasJoined response: %w", err)
	}
	if out.Name != username {
		return nil, fmt.Errorf("sessionserver: hasJoined returned name %q for username %q", out.Name, username)
	}
	return &out, nil
}
