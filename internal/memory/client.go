// File: internal/memory/client.go

// Package memory is the long-term memory boundary, backed by the
// Supermemory REST API. It supplies owner context to the planner and turn
// executor and records task outcomes for future runs. Every lookup is
// advisory: failures degrade to empty context and are never allowed to
// fail a job.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/wraith/internal/activities"
	"github.com/xkilldash9x/wraith/internal/config"
)

const (
	defaultEndpoint = "https://api.supermemory.ai/v3"
	requestTimeout  = 15 * time.Second

	searchLimit      = 5
	maxMemoryExcerpt = 200
)

// Client talks to the Supermemory API. Owner IDs are used as container
// tags, which scopes every read and write to one owner.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ activities.MemoryStore = (*Client)(nil)

// New builds a memory client. An empty API key is allowed and produces a
// client whose lookups return empty context and whose writes are dropped;
// the rest of the system behaves as if the owner had no history.
func New(cfg config.MemoryConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.Named("memory"),
	}
}

// Enabled reports whether the client has credentials to reach the service.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type profileRequest struct {
	ContainerTag string `json:"containerTag"`
	Query        string `json:"q,omitempty"`
}

type profileResponse struct {
	Profile struct {
		Static  []string `json:"static"`
		Dynamic []string `json:"dynamic"`
	} `json:"profile"`
	SearchResults struct {
		Results []searchResult `json:"results"`
	} `json:"searchResults"`
}

type searchRequest struct {
	Query         string   `json:"q"`
	ContainerTags []string `json:"containerTags"`
	Limit         int      `json:"limit"`
	Rerank        bool     `json:"rerank"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type addRequest struct {
	Content      string            `json:"content"`
	ContainerTag string            `json:"containerTag"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// UserContext returns a formatted profile block for the owner: static
// facts, recent patterns and memories relevant to the goal.
func (c *Client) UserContext(ctx context.Context, ownerID, goal string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	var profile profileResponse
	err := c.post(ctx, "/profile", profileRequest{ContainerTag: ownerID, Query: goal}, &profile)
	if err != nil {
		return "", fmt.Errorf("profile lookup for owner %s: %w", ownerID, err)
	}

	var parts []string
	if len(profile.Profile.Static) > 0 {
		parts = append(parts, "USER PROFILE:")
		for _, fact := range profile.Profile.Static {
			parts = append(parts, "  - "+fact)
		}
	}
	if len(profile.Profile.Dynamic) > 0 {
		parts = append(parts, "RECENT PATTERNS:")
		for _, pattern := range profile.Profile.Dynamic {
			parts = append(parts, "  - "+pattern)
		}
	}
	if results := profile.SearchResults.Results; len(results) > 0 {
		parts = append(parts, "RELEVANT CONTEXT:")
		for i, r := range results {
			if i >= searchLimit {
				break
			}
			parts = append(parts, "  - "+excerpt(r.Content))
		}
	}
	return strings.Join(parts, "\n"), nil
}

// SearchKnowledge returns goal-relevant memories as scored lines.
func (c *Client) SearchKnowledge(ctx context.Context, ownerID, query string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	var found searchResponse
	err := c.post(ctx, "/search", searchRequest{
		Query:         query,
		ContainerTags: []string{ownerID},
		Limit:         searchLimit,
		Rerank:        true,
	}, &found)
	if err != nil {
		return "", fmt.Errorf("knowledge search for owner %s: %w", ownerID, err)
	}

	var lines []string
	for i, r := range found.Results {
		if i >= searchLimit {
			break
		}
		lines = append(lines, fmt.Sprintf("[%.2f] %s", r.Score, r.Content))
	}
	return strings.Join(lines, "\n"), nil
}

// SaveOutcome records what happened for a goal so future planning can use
// it. Disabled clients drop the write silently.
func (c *Client) SaveOutcome(ctx context.Context, ownerID, goal, outcome string) error {
	if !c.Enabled() {
		c.logger.Debug("Memory disabled, dropping outcome", zap.String("owner_id", ownerID))
		return nil
	}

	content := fmt.Sprintf("Task: %s\nOutcome: %s", goal, outcome)
	err := c.post(ctx, "/documents", addRequest{
		Content:      content,
		ContainerTag: ownerID,
		Metadata:     map[string]string{"type": "task_outcome"},
	}, nil)
	if err != nil {
		return fmt.Errorf("saving outcome for owner %s: %w", ownerID, err)
	}
	c.logger.Info("Outcome saved to memory", zap.String("owner_id", ownerID))
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("supermemory API error: status %d, body: %s", resp.StatusCode, excerpt(string(respBody)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func excerpt(s string) string {
	if len(s) <= maxMemoryExcerpt {
		return s
	}
	return s[:maxMemoryExcerpt] + "..."
}
