// Package panelapi talks to the trading bot server: its read resources over
// HTTP and the addresses of its push channels.
package panelapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"botpanel/backend/internal/model"
)

// Read resource paths on the bot server
const (
	PathBotStatus  = "/api/trading/estado/"
	PathWinrate    = "/api/dashboard/winrate/"
	PathBalance    = "/api/dashboard/balance/"
	PathOperations = "/api/dashboard/historicos/"
	PathStatistics = "/api/dashboard/estadisticas-call-put/"
	PathTimer      = "/api/dashboard/temporizador/"
	PathSimulation = "/api/simulacion/resultados/"
)

// StatusError is returned when a resource answers with a non-2xx status
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.Path, e.StatusCode)
}

// Client represents the bot server API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new client. baseURL is the http(s) origin of the bot
// server.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured origin
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetBotStatus fetches the bot status resource
func (c *Client) GetBotStatus(ctx context.Context) (*model.BotStatus, error) {
	var out model.BotStatus
	if err := c.getJSON(ctx, PathBotStatus, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWinrate fetches the win-rate summary
func (c *Client) GetWinrate(ctx context.Context) (*model.WinrateSummary, error) {
	var out model.WinrateSummary
	if err := c.getJSON(ctx, PathWinrate, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBalance fetches the balance resource
func (c *Client) GetBalance(ctx context.Context) (*model.BalanceSummary, error) {
	var out model.BalanceSummary
	if err := c.getJSON(ctx, PathBalance, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOperations fetches the most recent real operations, newest first
func (c *Client) GetOperations(ctx context.Context) ([]model.Operation, error) {
	var out []model.Operation
	if err := c.getJSON(ctx, PathOperations, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Operation{}
	}
	return out, nil
}

// GetStatistics fetches call/put statistics
func (c *Client) GetStatistics(ctx context.Context) (*model.CallPutStatistics, error) {
	var out model.CallPutStatistics
	if err := c.getJSON(ctx, PathStatistics, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTimer fetches the pause timer
func (c *Client) GetTimer(ctx context.Context) (*model.TimerState, error) {
	var out model.TimerState
	if err := c.getJSON(ctx, PathTimer, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSimulation fetches the latest simulation results
func (c *Client) GetSimulation(ctx context.Context) (*model.SimulationResults, error) {
	var out model.SimulationResults
	if err := c.getJSON(ctx, PathSimulation, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return nil
}

// WebSocketURL maps the http(s) origin to the ws(s) address of path
func WebSocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = path
	u.RawQuery = ""
	return u.String(), nil
}
