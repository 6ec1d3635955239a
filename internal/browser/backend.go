// Package browser defines the session backend boundary the turn executor
// drives, and the factory that selects a concrete implementation.
package browser

import (
	"context"
	"errors"

	"github.com/xkilldash9x/wraith/api/schemas"
)

// ErrSessionNotFound is returned when an operation references a session the
// backend does not hold.
var ErrSessionNotFound = errors.New("browser session not found")

// ScrollDirection is the coarse scroll axis the model requests.
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

// TypeOptions modify a text-entry primitive.
type TypeOptions struct {
	PressEnter  bool
	ClearBefore bool
}

// Backend is the set of primitives a browser session provider must offer.
// Coordinates are viewport pixels; denormalization from model space happens
// in the caller.
type Backend interface {
	// StartSession provisions a fresh session, reusing a live one for the
	// same owner when the provider supports it.
	StartSession(ctx context.Context, ownerID string) (schemas.Session, error)
	// ReleaseSession tears the session down. Releasing an unknown session
	// is not an error.
	ReleaseSession(ctx context.Context, sessionID string) error

	Screenshot(ctx context.Context, sessionID string) ([]byte, error)
	CurrentURL(ctx context.Context, sessionID string) (string, error)

	Navigate(ctx context.Context, sessionID, url string) error
	GoBack(ctx context.Context, sessionID string) error
	GoForward(ctx context.Context, sessionID string) error

	Click(ctx context.Context, sessionID string, x, y int) error
	DoubleClick(ctx context.Context, sessionID string, x, y int) error
	MoveMouse(ctx context.Context, sessionID string, x, y int) error
	Drag(ctx context.Context, sessionID string, fromX, fromY, toX, toY int) error
	TypeText(ctx context.Context, sessionID string, x, y int, text string, opts TypeOptions) error
	PressKeys(ctx context.Context, sessionID string, keys []string) error
	Scroll(ctx context.Context, sessionID string, x, y int, dir ScrollDirection, magnitude int) error
}
