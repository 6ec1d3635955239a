// File: internal/memory/client_test.go
package memory

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/wraith/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(config.MemoryConfig{
		APIKey:   "sm_test_key",
		Endpoint: server.URL,
	}, zaptest.NewLogger(t))
}

func TestDisabledClient_DegradesGracefully(t *testing.T) {
	c := New(config.MemoryConfig{}, zaptest.NewLogger(t))
	assert.False(t, c.Enabled())

	ctx := context.Background()
	profile, err := c.UserContext(ctx, "owner-1", "goal")
	require.NoError(t, err)
	assert.Empty(t, profile)

	knowledge, err := c.SearchKnowledge(ctx, "owner-1", "goal")
	require.NoError(t, err)
	assert.Empty(t, knowledge)

	assert.NoError(t, c.SaveOutcome(ctx, "owner-1", "goal", "outcome"))
}

func TestUserContext_FormatsProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profile", r.URL.Path)
		assert.Equal(t, "Bearer sm_test_key", r.Header.Get("Authorization"))

		var req map[string]any
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "owner-1", req["containerTag"])
		assert.Equal(t, "book a flight", req["q"])

		_, _ = w.Write([]byte(`{
			"profile": {
				"static": ["Works at Acme Corp"],
				"dynamic": ["Books flights monthly"]
			},
			"searchResults": {
				"results": [{"content": "Prefers aisle seats", "score": 0.92}]
			}
		}`))
	})

	got, err := c.UserContext(context.Background(), "owner-1", "book a flight")
	require.NoError(t, err)
	assert.Contains(t, got, "USER PROFILE:")
	assert.Contains(t, got, "Works at Acme Corp")
	assert.Contains(t, got, "RECENT PATTERNS:")
	assert.Contains(t, got, "Books flights monthly")
	assert.Contains(t, got, "RELEVANT CONTEXT:")
	assert.Contains(t, got, "Prefers aisle seats")
}

func TestUserContext_EmptyProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"profile": {"static": [], "dynamic": []}}`))
	})

	got, err := c.UserContext(context.Background(), "owner-1", "goal")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchKnowledge_FormatsScoredLines(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)

		var req map[string]any
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "cheap flights", req["q"])
		assert.Equal(t, []any{"owner-1"}, req["containerTags"])
		assert.Equal(t, true, req["rerank"])

		_, _ = w.Write([]byte(`{"results": [
			{"content": "Used Kayak last time", "score": 0.88},
			{"content": "Budget is usually under $400", "score": 0.75}
		]}`))
	})

	got, err := c.SearchKnowledge(context.Background(), "owner-1", "cheap flights")
	require.NoError(t, err)
	assert.Contains(t, got, "[0.88] Used Kayak last time")
	assert.Contains(t, got, "[0.75] Budget is usually under $400")
}

func TestSaveOutcome_PostsDocument(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.SaveOutcome(context.Background(), "owner-1", "book a flight", "Booked UA 512")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", captured["containerTag"])
	assert.Contains(t, captured["content"], "book a flight")
	assert.Contains(t, captured["content"], "Booked UA 512")
	metadata, ok := captured["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "task_outcome", metadata["type"])
}

func TestAPIError_Propagates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "bad key"}`))
	})

	_, err := c.UserContext(context.Background(), "owner-1", "goal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")

	err = c.SaveOutcome(context.Background(), "owner-1", "goal", "outcome")
	require.Error(t, err)
}
