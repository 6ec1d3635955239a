// Package local implements the browser.Backend interface on top of a
// chromedp-driven Chromium process on the worker host. It exists for
// development and air-gapped deployments where the Steel cloud API is not
// available; sessions have no remote viewer URL.
package local

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/api/schemas"
	"github.com/xkilldash9x/wraith/internal/browser"
	"github.com/xkilldash9x/wraith/internal/config"
)

// Backend manages chromedp sessions keyed by session ID.
type Backend struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

// New builds the local backend. No browser starts until the first session.
func New(cfg config.BrowserConfig, logger *zap.Logger) *Backend {
	return &Backend{
		cfg:      cfg,
		logger:   logger.Named("browser.local"),
		sessions: make(map[string]*session),
	}
}

// StartSession launches a dedicated Chromium instance per session so a
// crashed page never takes down a neighbouring job's browser.
func (b *Backend) StartSession(ctx context.Context, ownerID string) (schemas.Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.WindowSize(b.cfg.ViewportWidth, b.cfg.ViewportHeight),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	// The allocator must outlive the incoming call; its lifetime is the
	// session's, ended only by ReleaseSession.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return schemas.Session{}, fmt.Errorf("failed to launch local browser: %w", err)
	}

	id := uuid.NewString()
	b.mu.Lock()
	b.sessions[id] = &session{
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}
	b.mu.Unlock()

	b.logger.Info("Local browser session started",
		zap.String("session_id", id),
		zap.String("owner_id", ownerID),
	)
	return schemas.Session{ID: id}, nil
}

// ReleaseSession tears down the Chromium instance. Unknown IDs are a no-op.
func (b *Backend) ReleaseSession(ctx context.Context, sessionID string) error {
	b.mu.Lock()
	s, ok := b.sessions[sessionID]
	delete(b.sessions, sessionID)
	b.mu.Unlock()

	if !ok {
		return nil
	}
	s.tabCancel()
	s.allocCancel()
	b.logger.Info("Local browser session released", zap.String("session_id", sessionID))
	return nil
}

// Shutdown releases every live session, used on worker exit.
func (b *Backend) Shutdown(ctx context.Context) {
	b.mu.Lock()
	ids := make([]string, 0, len(b.sessions))
	for id := range b.sessions {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	for _, id := range ids {
		if err := b.ReleaseSession(ctx, id); err != nil {
			b.logger.Warn("Session release during shutdown failed",
				zap.String("session_id", id), zap.Error(err))
		}
	}
}

func (b *Backend) Screenshot(ctx context.Context, sessionID string) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, sessionID, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (b *Backend) CurrentURL(ctx context.Context, sessionID string) (string, error) {
	var url string
	if err := b.run(ctx, sessionID, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (b *Backend) Navigate(ctx context.Context, sessionID, url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return b.run(ctx, sessionID, chromedp.Navigate(url))
}

func (b *Backend) GoBack(ctx context.Context, sessionID string) error {
	return b.run(ctx, sessionID, chromedp.NavigateBack())
}

func (b *Backend) GoForward(ctx context.Context, sessionID string) error {
	return b.run(ctx, sessionID, chromedp.NavigateForward())
}

func (b *Backend) Click(ctx context.Context, sessionID string, x, y int) error {
	return b.run(ctx, sessionID,
		chromedp.MouseClickXY(float64(x), float64(y)),
		chromedp.Sleep(500*time.Millisecond),
	)
}

func (b *Backend) DoubleClick(ctx context.Context, sessionID string, x, y int) error {
	return b.run(ctx, sessionID,
		chromedp.MouseClickXY(float64(x), float64(y), chromedp.ClickCount(2)),
		chromedp.Sleep(500*time.Millisecond),
	)
}

func (b *Backend) MoveMouse(ctx context.Context, sessionID string, x, y int) error {
	move := input.DispatchMouseEvent(input.MouseMoved, float64(x), float64(y))
	return b.run(ctx, sessionID, move)
}

func (b *Backend) Drag(ctx context.Context, sessionID string, fromX, fromY, toX, toY int) error {
	press := input.DispatchMouseEvent(input.MousePressed, float64(fromX), float64(fromY)).
		WithButton(input.Left).
		WithClickCount(1)
	move := input.DispatchMouseEvent(input.MouseMoved, float64(toX), float64(toY)).
		WithButton(input.Left)
	release := input.DispatchMouseEvent(input.MouseReleased, float64(toX), float64(toY)).
		WithButton(input.Left).
		WithClickCount(1)

	return b.run(ctx, sessionID,
		press,
		chromedp.Sleep(100*time.Millisecond),
		move,
		chromedp.Sleep(100*time.Millisecond),
		release,
	)
}

func (b *Backend) TypeText(ctx context.Context, sessionID string, x, y int, text string, opts browser.TypeOptions) error {
	tasks := chromedp.Tasks{
		chromedp.MouseClickXY(float64(x), float64(y)),
		chromedp.Sleep(200 * time.Millisecond),
	}
	if opts.ClearBefore {
		tasks = append(tasks,
			chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)),
			chromedp.KeyEvent(kb.Backspace),
		)
	}
	tasks = append(tasks, chromedp.SendKeys("document.activeElement", text, chromedp.ByJSPath))
	if opts.PressEnter {
		tasks = append(tasks,
			chromedp.KeyEvent(kb.Enter),
			chromedp.Sleep(time.Second),
		)
	}
	return b.run(ctx, sessionID, tasks)
}

// PressKeys dispatches one chord: leading entries are treated as modifiers
// when they name one, the final entry is the key itself.
func (b *Backend) PressKeys(ctx context.Context, sessionID string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	var mods input.Modifier
	for _, k := range keys[:len(keys)-1] {
		mods |= modifierFor(k)
	}
	key := mapKey(keys[len(keys)-1])

	return b.run(ctx, sessionID, chromedp.KeyEvent(key, chromedp.KeyModifiers(mods)))
}

func (b *Backend) Scroll(ctx context.Context, sessionID string, x, y int, dir browser.ScrollDirection, magnitude int) error {
	if magnitude <= 0 {
		magnitude = 400
	}
	var dx, dy float64
	switch dir {
	case browser.ScrollUp:
		dy = -float64(magnitude)
	case browser.ScrollLeft:
		dx = -float64(magnitude)
	case browser.ScrollRight:
		dx = float64(magnitude)
	default:
		dy = float64(magnitude)
	}

	wheel := input.DispatchMouseEvent(input.MouseWheel, float64(x), float64(y)).
		WithDeltaX(dx).
		WithDeltaY(dy)
	return b.run(ctx, sessionID, wheel)
}

// run executes chromedp actions against the session's tab, bounded by the
// caller's context.
func (b *Backend) run(ctx context.Context, sessionID string, actions ...chromedp.Action) error {
	b.mu.Lock()
	s, ok := b.sessions[sessionID]
	b.mu.Unlock()
	if !ok {
		return browser.ErrSessionNotFound
	}

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(s.tabCtx, actions...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// modifierFor maps a key-combination token to its CDP modifier bit, or zero
// when the token is not a modifier.
func modifierFor(name string) input.Modifier {
	switch strings.ToLower(name) {
	case "control", "ctrl":
		return input.ModifierCtrl
	case "alt":
		return input.ModifierAlt
	case "shift":
		return input.ModifierShift
	case "meta", "command", "cmd":
		return input.ModifierCommand
	}
	return 0
}

// mapKey translates symbolic key names into chromedp key runes; anything
// unrecognized passes through literally.
func mapKey(name string) string {
	switch strings.ToLower(name) {
	case "enter", "return":
		return kb.Enter
	case "backspace":
		return kb.Backspace
	case "delete":
		return kb.Delete
	case "tab":
		return kb.Tab
	case "escape", "esc":
		return kb.Escape
	case "arrowleft", "left":
		return kb.ArrowLeft
	case "arrowright", "right":
		return kb.ArrowRight
	case "arrowup", "up":
		return kb.ArrowUp
	case "arrowdown", "down":
		return kb.ArrowDown
	case "pageup":
		return kb.PageUp
	case "pagedown":
		return kb.PageDown
	case "home":
		return kb.Home
	case "end":
		return kb.End
	}
	return name
}
