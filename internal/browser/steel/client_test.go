package steel

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/internal/browser"
	"github.com/xkilldash9x/wraith/internal/config"
)

func testConfig(endpoint string) config.BrowserConfig {
	return config.BrowserConfig{
		Backend:        config.BackendSteel,
		ViewportWidth:  1280,
		ViewportHeight: 768,
		Steel: config.SteelConfig{
			APIKey:   "test-steel-key",
			Endpoint: endpoint,
		},
	}
}

func setupClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(testConfig(server.URL), zap.NewNop())
	require.NoError(t, err)
	return client, server
}

func TestNew_RequiresAPIKey(t *testing.T) {
	cfg := testConfig("https://api.steel.dev/v1")
	cfg.Steel.APIKey = ""

	client, err := New(cfg, zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestStartSession(t *testing.T) {
	var gotReq createSessionRequest

	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "test-steel-key", r.Header.Get("Steel-Api-Key"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))

		json.NewEncoder(w).Encode(sessionResponse{
			ID:       "sess-123",
			DebugURL: "https://app.steel.dev/sessions/sess-123/debug",
		})
	})

	session, err := client.StartSession(context.Background(), "owner-abcdef-long-id")
	require.NoError(t, err)

	assert.Equal(t, "sess-123", session.ID)
	assert.Equal(t, "https://app.steel.dev/sessions/sess-123/debug", session.ViewerURL)
	assert.Equal(t, 1280, gotReq.Dimensions.Width)
	assert.Equal(t, 768, gotReq.Dimensions.Height)
	// The credential namespace uses only the owner prefix.
	assert.Equal(t, "user-owner-ab", gotReq.Namespace)
}

func TestStartSession_ViewerFallback(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sessionResponse{ID: "sess-9"})
	})

	session, err := client.StartSession(context.Background(), "o")
	require.NoError(t, err)
	assert.Equal(t, "https://app.steel.dev/sessions/sess-9/viewer", session.ViewerURL)
}

func TestReleaseSession_SwallowsAlreadyReleased(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/sess-1/release", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.ReleaseSession(context.Background(), "sess-1")
	assert.NoError(t, err, "releasing an unknown session must be a no-op")
}

func TestScreenshot(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}

	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/sess-1/computer", r.URL.Path)

		var req computerRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "take_screenshot", req.Action)
		assert.True(t, req.Screenshot)

		json.NewEncoder(w).Encode(computerResponse{
			Base64Image: base64.StdEncoding.EncodeToString(raw),
			URL:         "https://example.com",
		})
	})

	img, err := client.Screenshot(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, raw, img)
}

func TestScreenshot_EmptyImageIsError(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(computerResponse{})
	})

	_, err := client.Screenshot(context.Background(), "sess-1")
	assert.Error(t, err)
}

func TestNavigate_DrivesAddressBar(t *testing.T) {
	var actions []computerRequest

	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req computerRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		actions = append(actions, req)
		json.NewEncoder(w).Encode(computerResponse{})
	})

	err := client.Navigate(context.Background(), "sess-1", "example.com")
	require.NoError(t, err)

	require.Len(t, actions, 4)
	assert.Equal(t, "press_key", actions[0].Action)
	assert.Equal(t, []string{"Control", "l"}, actions[0].Keys)
	assert.Equal(t, "type_text", actions[1].Action)
	assert.Equal(t, "https://example.com", actions[1].Text, "bare hosts get an https scheme")
	assert.Equal(t, []string{"Enter"}, actions[2].Keys)
	assert.Equal(t, "wait", actions[3].Action)
}

func TestTypeText_ClearAndEnter(t *testing.T) {
	var actions []computerRequest

	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req computerRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		actions = append(actions, req)
		json.NewEncoder(w).Encode(computerResponse{})
	})

	err := client.TypeText(context.Background(), "sess-1", 100, 200, "hello", browser.TypeOptions{
		ClearBefore: true,
		PressEnter:  true,
	})
	require.NoError(t, err)

	// click, wait, select-all, backspace, type, enter, wait
	require.Len(t, actions, 7)
	assert.Equal(t, "click_mouse", actions[0].Action)
	assert.Equal(t, []int{100, 200}, actions[0].Coordinates)
	assert.Equal(t, []string{"Control", "a"}, actions[2].Keys)
	assert.Equal(t, []string{"Backspace"}, actions[3].Keys)
	assert.Equal(t, "hello", actions[4].Text)
	assert.Equal(t, []string{"Enter"}, actions[5].Keys)
}

func TestScroll_Directions(t *testing.T) {
	var last computerRequest

	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &last))
		json.NewEncoder(w).Encode(computerResponse{})
	})

	ctx := context.Background()

	require.NoError(t, client.Scroll(ctx, "s", 10, 20, browser.ScrollDown, 300))
	assert.Equal(t, 300, last.DeltaY)

	require.NoError(t, client.Scroll(ctx, "s", 10, 20, browser.ScrollUp, 300))
	assert.Equal(t, -300, last.DeltaY)

	require.NoError(t, client.Scroll(ctx, "s", 10, 20, browser.ScrollRight, 0))
	assert.Equal(t, 400, last.DeltaX, "zero magnitude falls back to the default")
}

func TestComputer_UnknownSession(t *testing.T) {
	client, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.Click(context.Background(), "ghost", 1, 2)
	assert.ErrorIs(t, err, browser.ErrSessionNotFound)
}
