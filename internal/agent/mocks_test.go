// File: internal/agent/mocks_test.go
package agent

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/wraith/api/schemas"
	"github.com/xkilldash9x/wraith/internal/browser"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) Close() error {
	return m.Called().Error(0)
}

type mockContextSource struct {
	mock.Mock
}

func (m *mockContextSource) UserContext(ctx context.Context, ownerID, goal string) (string, error) {
	args := m.Called(ctx, ownerID, goal)
	return args.String(0), args.Error(1)
}

func (m *mockContextSource) SearchKnowledge(ctx context.Context, ownerID, query string) (string, error) {
	args := m.Called(ctx, ownerID, query)
	return args.String(0), args.Error(1)
}

type mockMemoryWriter struct {
	mock.Mock
}

func (m *mockMemoryWriter) SaveOutcome(ctx context.Context, ownerID, goal, outcome string) error {
	return m.Called(ctx, ownerID, goal, outcome).Error(0)
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) StartSession(ctx context.Context, ownerID string) (schemas.Session, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(schemas.Session), args.Error(1)
}

func (m *mockBackend) ReleaseSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockBackend) Screenshot(ctx context.Context, sessionID string) ([]byte, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockBackend) CurrentURL(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) Navigate(ctx context.Context, sessionID, url string) error {
	return m.Called(ctx, sessionID, url).Error(0)
}

func (m *mockBackend) GoBack(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockBackend) GoForward(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockBackend) Click(ctx context.Context, sessionID string, x, y int) error {
	return m.Called(ctx, sessionID, x, y).Error(0)
}

func (m *mockBackend) DoubleClick(ctx context.Context, sessionID string, x, y int) error {
	return m.Called(ctx, sessionID, x, y).Error(0)
}

func (m *mockBackend) MoveMouse(ctx context.Context, sessionID string, x, y int) error {
	return m.Called(ctx, sessionID, x, y).Error(0)
}

func (m *mockBackend) Drag(ctx context.Context, sessionID string, fromX, fromY, toX, toY int) error {
	return m.Called(ctx, sessionID, fromX, fromY, toX, toY).Error(0)
}

func (m *mockBackend) TypeText(ctx context.Context, sessionID string, x, y int, text string, opts browser.TypeOptions) error {
	return m.Called(ctx, sessionID, x, y, text, opts).Error(0)
}

func (m *mockBackend) PressKeys(ctx context.Context, sessionID string, keys []string) error {
	return m.Called(ctx, sessionID, keys).Error(0)
}

func (m *mockBackend) Scroll(ctx context.Context, sessionID string, x, y int, dir browser.ScrollDirection, magnitude int) error {
	return m.Called(ctx, sessionID, x, y, dir, magnitude).Error(0)
}
