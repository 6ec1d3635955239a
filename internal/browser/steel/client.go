// Package steel implements the browser.Backend interface against the Steel
// cloud-browser REST API. Each session is a remote Chromium instance with a
// live viewer URL, credential injection and optional proxy support.
package steel

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/api/schemas"
	"github.com/xkilldash9x/wraith/internal/browser"
	"github.com/xkilldash9x/wraith/internal/config"
)

const (
	defaultTimeout = 60 * time.Second
	viewerBaseURL  = "https://app.steel.dev/sessions"
)

// Client talks to the Steel sessions API.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	cfg        config.BrowserConfig
}

// New builds a Steel-backed session provider.
func New(cfg config.BrowserConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Steel.APIKey == "" {
		return nil, fmt.Errorf("Steel API key is required")
	}
	endpoint := strings.TrimRight(cfg.Steel.Endpoint, "/")
	if endpoint == "" {
		endpoint = "https://api.steel.dev/v1"
	}

	return &Client{
		apiKey:     cfg.Steel.APIKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Named("browser.steel"),
		cfg:        cfg,
	}, nil
}

// -- Steel API payloads --

type dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type createSessionRequest struct {
	UseProxy     bool       `json:"useProxy"`
	SolveCaptcha bool       `json:"solveCaptcha"`
	Dimensions   dimensions `json:"dimensions"`
	// Namespace scopes the credential vault so stored logins auto-inject
	// for the right owner only.
	Namespace string `json:"namespace,omitempty"`
}

type sessionResponse struct {
	ID               string `json:"id"`
	DebugURL         string `json:"debugUrl"`
	SessionViewerURL string `json:"sessionViewerUrl"`
}

type computerRequest struct {
	Action      string   `json:"action"`
	Screenshot  bool     `json:"screenshot"`
	Coordinates []int    `json:"coordinates,omitempty"`
	Text        string   `json:"text,omitempty"`
	Keys        []string `json:"keys,omitempty"`
	Button      string   `json:"button,omitempty"`
	NumClicks   int      `json:"numClicks,omitempty"`
	DeltaX      int      `json:"deltaX,omitempty"`
	DeltaY      int      `json:"deltaY,omitempty"`
	Duration    float64  `json:"duration,omitempty"`
	Path        [][]int  `json:"path,omitempty"`
}

type computerResponse struct {
	Base64Image string `json:"base64Image"`
	URL         string `json:"url"`
}

// -- browser.Backend implementation --

// StartSession creates a fresh remote browser for the owner.
func (c *Client) StartSession(ctx context.Context, ownerID string) (schemas.Session, error) {
	namespace := ""
	if ownerID != "" {
		trimmed := ownerID
		if len(trimmed) > 8 {
			trimmed = trimmed[:8]
		}
		namespace = "user-" + trimmed
	}

	reqBody := createSessionRequest{
		UseProxy:     c.cfg.Steel.UseProxy,
		SolveCaptcha: c.cfg.Steel.SolveCaptcha,
		Dimensions:   dimensions{Width: c.cfg.ViewportWidth, Height: c.cfg.ViewportHeight},
		Namespace:    namespace,
	}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", reqBody, &resp); err != nil {
		return schemas.Session{}, fmt.Errorf("failed to create Steel session: %w", err)
	}

	viewer := resp.DebugURL
	if viewer == "" {
		viewer = resp.SessionViewerURL
	}
	if viewer == "" {
		viewer = fmt.Sprintf("%s/%s/viewer", viewerBaseURL, resp.ID)
	}

	c.logger.Info("Steel session created",
		zap.String("session_id", resp.ID),
		zap.String("viewer_url", viewer),
	)
	return schemas.Session{ID: resp.ID, ViewerURL: viewer}, nil
}

// ReleaseSession releases the remote browser. Steel treats releasing an
// unknown or already-released session as a no-op failure, which we swallow
// to keep cleanup idempotent.
func (c *Client) ReleaseSession(ctx context.Context, sessionID string) error {
	err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/release", struct{}{}, nil)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusNotFound || se.code == http.StatusGone) {
			c.logger.Debug("Session already released", zap.String("session_id", sessionID))
			return nil
		}
		return fmt.Errorf("failed to release Steel session: %w", err)
	}
	c.logger.Info("Steel session released", zap.String("session_id", sessionID))
	return nil
}

func (c *Client) Screenshot(ctx context.Context, sessionID string) ([]byte, error) {
	resp, err := c.computer(ctx, sessionID, computerRequest{Action: "take_screenshot", Screenshot: true})
	if err != nil {
		return nil, err
	}
	if resp.Base64Image == "" {
		return nil, fmt.Errorf("steel returned an empty screenshot")
	}
	img, err := base64.StdEncoding.DecodeString(resp.Base64Image)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

func (c *Client) CurrentURL(ctx context.Context, sessionID string) (string, error) {
	resp, err := c.computer(ctx, sessionID, computerRequest{Action: "take_screenshot"})
	if err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "about:blank", nil
	}
	return resp.URL, nil
}

// Navigate drives the address bar with keyboard shortcuts; the computer API
// has no first-class goto.
func (c *Client) Navigate(ctx context.Context, sessionID, url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	steps := []computerRequest{
		{Action: "press_key", Keys: []string{"Control", "l"}},
		{Action: "type_text", Text: url},
		{Action: "press_key", Keys: []string{"Enter"}},
		{Action: "wait", Duration: 2.0},
	}
	return c.sequence(ctx, sessionID, steps)
}

func (c *Client) GoBack(ctx context.Context, sessionID string) error {
	return c.sequence(ctx, sessionID, []computerRequest{
		{Action: "press_key", Keys: []string{"Alt", "ArrowLeft"}},
		{Action: "wait", Duration: 1.0},
	})
}

func (c *Client) GoForward(ctx context.Context, sessionID string) error {
	return c.sequence(ctx, sessionID, []computerRequest{
		{Action: "press_key", Keys: []string{"Alt", "ArrowRight"}},
		{Action: "wait", Duration: 1.0},
	})
}

func (c *Client) Click(ctx context.Context, sessionID string, x, y int) error {
	return c.sequence(ctx, sessionID, []computerRequest{
		{Action: "click_mouse", Coordinates: []int{x, y}, Button: "left"},
		{Action: "wait", Duration: 0.5},
	})
}

func (c *Client) DoubleClick(ctx context.Context, sessionID string, x, y int) error {
	return c.sequence(ctx, sessionID, []computerRequest{
		{Action: "click_mouse", Coordinates: []int{x, y}, Button: "left", NumClicks: 2},
		{Action: "wait", Duration: 0.5},
	})
}

func (c *Client) MoveMouse(ctx context.Context, sessionID string, x, y int) error {
	_, err := c.computer(ctx, sessionID, computerRequest{Action: "move_mouse", Coordinates: []int{x, y}})
	return err
}

func (c *Client) Drag(ctx context.Context, sessionID string, fromX, fromY, toX, toY int) error {
	_, err := c.computer(ctx, sessionID, computerRequest{
		Action: "drag_mouse",
		Path:   [][]int{{fromX, fromY}, {toX, toY}},
	})
	return err
}

func (c *Client) TypeText(ctx context.Context, sessionID string, x, y int, text string, opts browser.TypeOptions) error {
	steps := []computerRequest{
		{Action: "click_mouse", Coordinates: []int{x, y}, Button: "left"},
		{Action: "wait", Duration: 0.2},
	}
	if opts.ClearBefore {
		steps = append(steps,
			computerRequest{Action: "press_key", Keys: []string{"Control", "a"}},
			computerRequest{Action: "press_key", Keys: []string{"Backspace"}},
		)
	}
	steps = append(steps, computerRequest{Action: "type_text", Text: text})
	if opts.PressEnter {
		steps = append(steps,
			computerRequest{Action: "press_key", Keys: []string{"Enter"}},
			computerRequest{Action: "wait", Duration: 1.0},
		)
	}
	return c.sequence(ctx, sessionID, steps)
}

func (c *Client) PressKeys(ctx context.Context, sessionID string, keys []string) error {
	_, err := c.computer(ctx, sessionID, computerRequest{Action: "press_key", Keys: keys})
	return err
}

func (c *Client) Scroll(ctx context.Context, sessionID string, x, y int, dir browser.ScrollDirection, magnitude int) error {
	if magnitude <= 0 {
		magnitude = 400
	}
	req := computerRequest{Action: "scroll", Coordinates: []int{x, y}}
	switch dir {
	case browser.ScrollUp:
		req.DeltaY = -magnitude
	case browser.ScrollLeft:
		req.DeltaX = -magnitude
	case browser.ScrollRight:
		req.DeltaX = magnitude
	default:
		req.DeltaY = magnitude
	}
	_, err := c.computer(ctx, sessionID, req)
	return err
}

// -- HTTP plumbing --

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("steel API error: status %d, body: %s", e.code, e.body)
}

// sequence executes ordered computer actions, stopping at the first error.
func (c *Client) sequence(ctx context.Context, sessionID string, steps []computerRequest) error {
	for i, step := range steps {
		if _, err := c.computer(ctx, sessionID, step); err != nil {
			return fmt.Errorf("action %q (step %d): %w", step.Action, i, err)
		}
	}
	return nil
}

func (c *Client) computer(ctx context.Context, sessionID string, req computerRequest) (computerResponse, error) {
	if sessionID == "" {
		return computerResponse{}, browser.ErrSessionNotFound
	}
	var resp computerResponse
	err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/computer", req, &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return computerResponse{}, browser.ErrSessionNotFound
		}
		return computerResponse{}, err
	}
	return resp, nil
}

// do performs one authenticated API call with retries on transient failures.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 90 * time.Second
	b.MaxInterval = 10 * time.Second

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Steel-Api-Key", c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("Network error during Steel request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			se := &statusError{code: resp.StatusCode, body: truncateBody(respBody)}
			switch resp.StatusCode {
			case http.StatusTooManyRequests, http.StatusInternalServerError,
				http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
				return se
			default:
				return backoff.Permanent(se)
			}
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "... (" + strconv.Itoa(len(b)) + " bytes)"
}
