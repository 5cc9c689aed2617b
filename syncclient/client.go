// Package syncclient talks to the relay server: device registration and
// debounced task uploads.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"focustasks/model"
)

var ErrNoServer = errors.New("relay url is not configured")

// Client is a thin JSON client for the relay API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token is the device token last issued by the relay, if any.
func (c *Client) Token() string { return c.token }

type RegisterRequest struct {
	DeviceID     string              `json:"deviceId"`
	Timezone     string              `json:"timezone,omitempty"`
	Subscription *model.Subscription `json:"subscription"`
}

type SyncRequest struct {
	DeviceID string             `json:"deviceId"`
	Tasks    []model.SyncedTask `json:"tasks"`
}

type reply struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Token  string `json:"token"`
	Synced int    `json:"synced"`
}

// Register records this device and its push subscription with the relay.
// A token in the reply is kept for later calls.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var out reply
	if err := c.post(ctx, "/api/devices/register", req, &out); err != nil {
		return "", err
	}
	if out.Token != "" {
		c.token = out.Token
	}
	return out.Token, nil
}

// Push replaces the relay's copy of this device's tasks.
func (c *Client) Push(ctx context.Context, deviceID string, tasks []model.SyncedTask) (int, error) {
	if tasks == nil {
		tasks = []model.SyncedTask{}
	}
	var out reply
	if err := c.post(ctx, "/api/tasks/sync", SyncRequest{DeviceID: deviceID, Tasks: tasks}, &out); err != nil {
		return 0, err
	}
	return out.Synced, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out *reply) error {
	if c.baseURL == "" {
		return ErrNoServer
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && resp.StatusCode < 300 {
		return fmt.Errorf("POST %s: decode reply: %w", path, err)
	}
	if resp.StatusCode >= 300 || !out.OK {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, msg)
	}
	return nil
}
