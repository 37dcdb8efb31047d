// Package client talks to a running "gerdoo-launcher serve" control API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client provides HTTP access to the launcher control API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger // Optional logger for client operations
}

const DefaultBaseURL = "http://127.0.0.1:8787/api"

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 10 * time.Second,
	}
}

// New creates a new control API client.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// IsReachable checks if the launcher API is running and reachable
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/server/status", nil)
	if err != nil {
		c.logger.Debug("Failed to create request for reachability check", "error", err)
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("Launcher API unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) StartServer(ctx context.Context) (Result, error) {
	return c.do(ctx, http.MethodPost, "/server/start")
}

func (c *Client) StopServer(ctx context.Context) (Result, error) {
	return c.do(ctx, http.MethodPost, "/server/stop")
}

// ServerStatus returns the raw result together with its decoded data.
func (c *Client) ServerStatus(ctx context.Context) (Result, ServerStatus, error) {
	var st ServerStatus
	res, err := c.do(ctx, http.MethodGet, "/server/status")
	if err != nil {
		return res, st, err
	}
	if err := json.Unmarshal(res.Data, &st); err != nil {
		return res, st, fmt.Errorf("decode server status: %w", err)
	}
	return res, st, nil
}

func (c *Client) CheckForUpdate(ctx context.Context) (Result, error) {
	return c.do(ctx, http.MethodPost, "/update/check")
}

// InstallUpdate starts an install in the background; poll UpdateStatus.
func (c *Client) InstallUpdate(ctx context.Context) (Result, error) {
	return c.do(ctx, http.MethodPost, "/update/install")
}

func (c *Client) UpdateStatus(ctx context.Context) (Result, UpdateStatus, error) {
	var st UpdateStatus
	res, err := c.do(ctx, http.MethodGet, "/update/status")
	if err != nil {
		return res, st, err
	}
	if err := json.Unmarshal(res.Data, &st); err != nil {
		return res, st, fmt.Errorf("decode update status: %w", err)
	}
	return res, st, nil
}

// History returns the raw result of GET /history.
func (c *Client) History(ctx context.Context, limit int) (Result, error) {
	return c.do(ctx, http.MethodGet, "/history?limit="+strconv.Itoa(limit))
}

// do performs the request and decodes the envelope. A failure envelope is not
// an error: the API reports operation failures through Status and Message.
func (c *Client) do(ctx context.Context, method, path string) (Result, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "url", url)
		return Result{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		c.logger.Error("Failed to decode response", "status", resp.StatusCode)
		return Result{}, fmt.Errorf("HTTP %d: %w", resp.StatusCode, errors.Join(ErrUnexpectedBody, err))
	}
	if !res.Status {
		c.logger.Debug("API request failed", "message", res.Message, "status", resp.StatusCode)
	}
	return res, nil
}

// ErrUnexpectedBody means the response was not a result envelope.
var ErrUnexpectedBody = errors.New("unexpected response body")
