// File: internal/agent/executor.go
package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/wraith/api/schemas"
	"github.com/xkilldash9x/wraith/internal/activities"
	"github.com/xkilldash9x/wraith/internal/browser"
	"github.com/xkilldash9x/wraith/internal/config"
	"github.com/xkilldash9x/wraith/internal/risk"
)

const (
	// maxCoordinate is the exclusive upper bound of the model's normalized
	// coordinate space.
	maxCoordinate = 1000

	maxScreenshotAttempts = 3
	screenshotRetryDelay  = time.Second
	// minScreenshotBytes guards against truncated captures from a session
	// that is mid-teardown.
	minScreenshotBytes = 100

	waitActionDuration = 5 * time.Second

	// maxProgressEntries bounds the per-session progress log fed back into
	// the model on each turn.
	maxProgressEntries = 30
	maxProgressNote    = 160
)

// MemoryWriter receives durable facts the model asks to keep.
type MemoryWriter interface {
	SaveOutcome(ctx context.Context, ownerID, goal, outcome string) error
}

// saveToMemoryRegex matches the model's explicit memory trigger, e.g.
// "SAVE_TO_MEMORY: account - Created a Notion workspace".
var saveToMemoryRegex = regexp.MustCompile(`SAVE_TO_MEMORY:\s*(\w+)\s*-\s*(.+)`)

// jsonBlockRegex extracts a JSON object from a markdown code block.
var jsonBlockRegex = regexp.MustCompile(fmt.Sprintf("(?s)%s(?:json)?\\s*(.*?)\\s*%s", "```", "```"))

// Executor runs reasoning-action turns: capture the screen, ask the
// powerful model tier for the next actions, execute them against the
// browser backend.
type Executor struct {
	llm     schemas.LLMClient
	backend browser.Backend
	memory  MemoryWriter
	risk    risk.Classifier
	cfg     config.BrowserConfig
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionMemory
}

var _ activities.TurnExecutor = (*Executor)(nil)

// NewExecutor builds a turn executor. The memory writer may be nil, which
// disables SAVE_TO_MEMORY handling. A nil classifier gets the default
// keyword rule set; the classifier must never be absent, because it is what
// holds risky actions back until a human approves.
func NewExecutor(llm schemas.LLMClient, backend browser.Backend, memory MemoryWriter, classifier risk.Classifier, cfg config.BrowserConfig, logger *zap.Logger) (*Executor, error) {
	if llm == nil || backend == nil {
		return nil, fmt.Errorf("executor requires an LLM client and a browser backend")
	}
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		return nil, fmt.Errorf("executor requires positive viewport dimensions, got %dx%d", cfg.ViewportWidth, cfg.ViewportHeight)
	}
	if classifier == nil {
		classifier = risk.NewKeywordClassifier(risk.DefaultRules())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		llm:      llm,
		backend:  backend,
		memory:   memory,
		risk:     classifier,
		cfg:      cfg,
		logger:   logger.Named("executor"),
		sessions: make(map[string]*sessionMemory),
	}, nil
}

// ExecuteTurn runs one observe-decide-act cycle. A screenshot that cannot
// be captured ends the turn with a terminal result rather than an error:
// the session is gone and retrying the whole turn will not bring it back.
func (e *Executor) ExecuteTurn(ctx context.Context, in activities.TurnInput) (schemas.TurnResult, error) {
	if in.SessionID == "" {
		return schemas.TurnResult{}, fmt.Errorf("turn requires a session ID")
	}

	img, err := e.screenshotWithRetry(ctx, in.SessionID)
	if err != nil {
		e.logger.Error("Screenshot capture exhausted retries",
			zap.String("session_id", in.SessionID),
			zap.Error(err),
		)
		return schemas.TurnResult{
			Reasoning:    "Failed to capture a browser screenshot after multiple attempts. The session may be disconnected.",
			Finished:     true,
			ErrorKind:    schemas.TurnErrorScreenshot,
			ErrorMessage: err.Error(),
		}, nil
	}

	mem := e.sessionState(in.SessionID)
	decision, err := e.decide(ctx, in, mem, img)
	if err != nil {
		return schemas.TurnResult{}, err
	}

	e.saveMemoryTriggers(ctx, in, decision.Reasoning)

	// High-stakes intent stops the turn here, before any action touches the
	// browser. The decided actions are discarded; after the owner approves,
	// the next turn re-decides from a fresh screenshot.
	if label, hit := e.risk.Classify(decision.Reasoning); hit {
		e.logger.Info("Turn held for owner approval",
			zap.String("session_id", in.SessionID),
			zap.String("risk", label),
		)
		mem.addProgress("Held for approval: " + label)
		return schemas.TurnResult{
			Reasoning:        decision.Reasoning,
			Finished:         false,
			RequiresApproval: true,
			ApprovalAction:   label,
		}, nil
	}

	actionTaken, actErr := e.dispatch(ctx, in.SessionID, decision.Actions)
	note := decision.Reasoning
	if actErr != nil {
		// The page state after a failed action is unknown; surface the
		// failure to the model through the progress log and let the next
		// screenshot re-anchor it.
		e.logger.Warn("Action execution failed",
			zap.String("session_id", in.SessionID),
			zap.String("action", actionTaken),
			zap.Error(actErr),
		)
		note = fmt.Sprintf("%s [action %s failed: %v]", note, actionTaken, actErr)
	}
	mem.addProgress(note)

	return schemas.TurnResult{
		Reasoning:   decision.Reasoning,
		Finished:    decision.Done,
		ActionTaken: actionTaken,
	}, nil
}

// EndSession drops the bounded conversation state kept for a session.
// Called by the session manager on release.
func (e *Executor) EndSession(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, sessionID)
}

func (e *Executor) sessionState(sessionID string) *sessionMemory {
	e.mu.Lock()
	defer e.mu.Unlock()
	mem, ok := e.sessions[sessionID]
	if !ok {
		mem = newSessionMemory(maxProgressEntries)
		e.sessions[sessionID] = mem
	}
	return mem
}

func (e *Executor) screenshotWithRetry(ctx context.Context, sessionID string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxScreenshotAttempts; attempt++ {
		img, err := e.backend.Screenshot(ctx, sessionID)
		switch {
		case err != nil:
			lastErr = err
		case len(img) < minScreenshotBytes:
			lastErr = fmt.Errorf("screenshot suspiciously small (%d bytes)", len(img))
		default:
			return img, nil
		}

		e.logger.Warn("Screenshot attempt failed",
			zap.String("session_id", sessionID),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt < maxScreenshotAttempts {
			if err := sleepCtx(ctx, screenshotRetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

// decide sends the current screenshot to the powerful tier and decodes the
// returned action plan.
func (e *Executor) decide(ctx context.Context, in activities.TurnInput, mem *sessionMemory, img []byte) (schemas.TurnDecision, error) {
	userPrompt := "Here is the current state of the browser. Decide the next actions."
	if progress := mem.progressSummary(); progress != "" {
		userPrompt = "Progress so far:\n" + progress + "\n\n" + userPrompt
	}

	response, err := e.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: buildSystemPrompt(in.Goal, in.ProfileContext, e.cfg.ViewportWidth, e.cfg.ViewportHeight),
		UserPrompt:   userPrompt,
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     0.4,
			ForceJSONFormat: true,
		},
		Images: []schemas.ImageAttachment{{
			MIMEType: "image/png",
			Data:     base64.StdEncoding.EncodeToString(img),
		}},
	})
	if err != nil {
		return schemas.TurnDecision{}, fmt.Errorf("turn generation failed: %w", err)
	}
	return parseTurnDecision(response, e.logger)
}

// parseTurnDecision extracts the decision JSON from the model response,
// tolerating markdown code fences and prose around the object.
func parseTurnDecision(response string, logger *zap.Logger) (schemas.TurnDecision, error) {
	response = strings.TrimSpace(response)

	var payload string
	if matches := jsonBlockRegex.FindStringSubmatch(response); len(matches) > 1 {
		payload = strings.TrimSpace(matches[1])
	} else if first, last := strings.Index(response, "{"), strings.LastIndex(response, "}"); first != -1 && last > first {
		payload = response[first : last+1]
	} else {
		payload = response
	}
	if payload == "" {
		return schemas.TurnDecision{}, fmt.Errorf("could not find any JSON in the model response")
	}

	var decision schemas.TurnDecision
	if err := json.Unmarshal([]byte(payload), &decision); err != nil {
		logger.Warn("Failed to unmarshal turn decision",
			zap.String("raw_response", response),
			zap.String("extracted_json", payload),
			zap.Error(err),
		)
		return schemas.TurnDecision{}, fmt.Errorf("failed to unmarshal turn decision: %w", err)
	}
	if decision.Reasoning == "" {
		return schemas.TurnDecision{}, fmt.Errorf("turn decision missing required 'reasoning' field")
	}
	return decision, nil
}

// saveMemoryTriggers scans reasoning for explicit SAVE_TO_MEMORY lines and
// persists each one. Memory outages never fail the turn.
func (e *Executor) saveMemoryTriggers(ctx context.Context, in activities.TurnInput, reasoning string) {
	if e.memory == nil {
		return
	}
	for _, match := range saveToMemoryRegex.FindAllStringSubmatch(reasoning, -1) {
		category, content := match[1], strings.TrimSpace(match[2])
		outcome := fmt.Sprintf("[%s] %s", category, content)
		if err := e.memory.SaveOutcome(ctx, in.OwnerID, in.Goal, outcome); err != nil {
			e.logger.Warn("Memory save trigger failed",
				zap.String("owner_id", in.OwnerID),
				zap.String("category", category),
				zap.Error(err),
			)
			continue
		}
		e.logger.Info("Saved memory trigger",
			zap.String("owner_id", in.OwnerID),
			zap.String("category", category),
		)
	}
}

// dispatch executes the decided actions in order and returns a summary of
// what ran. Execution stops at the first failure: once an action misfires,
// the coordinates of everything after it are unreliable.
func (e *Executor) dispatch(ctx context.Context, sessionID string, actions []schemas.AgentAction) (string, error) {
	var taken []string
	for _, action := range actions {
		taken = append(taken, action.Name)
		if err := e.execute(ctx, sessionID, action); err != nil {
			return strings.Join(taken, ", "), fmt.Errorf("action %q: %w", action.Name, err)
		}
	}
	return strings.Join(taken, ", "), nil
}

func (e *Executor) execute(ctx context.Context, sessionID string, action schemas.AgentAction) error {
	switch action.Name {
	case schemas.ActionOpenBrowser:
		// The session's browser is already open.
		return nil
	case schemas.ActionNavigate:
		return e.backend.Navigate(ctx, sessionID, action.URL)
	case schemas.ActionSearch:
		query := action.Text
		if query == "" {
			query = action.URL
		}
		return e.backend.Navigate(ctx, sessionID, "https://www.google.com/search?q="+url.QueryEscape(query))
	case schemas.ActionGoBack:
		return e.backend.GoBack(ctx, sessionID)
	case schemas.ActionGoForward:
		return e.backend.GoForward(ctx, sessionID)
	case schemas.ActionWait:
		return sleepCtx(ctx, waitActionDuration)
	case schemas.ActionClickAt:
		x, y := e.denormalize(action.X, action.Y)
		return e.backend.Click(ctx, sessionID, x, y)
	case schemas.ActionDoubleClickAt:
		x, y := e.denormalize(action.X, action.Y)
		return e.backend.DoubleClick(ctx, sessionID, x, y)
	case schemas.ActionHoverAt:
		x, y := e.denormalize(action.X, action.Y)
		return e.backend.MoveMouse(ctx, sessionID, x, y)
	case schemas.ActionDragAndDrop:
		fromX, fromY := e.denormalize(action.X, action.Y)
		toX, toY := e.denormalize(action.DestinationX, action.DestinationY)
		return e.backend.Drag(ctx, sessionID, fromX, fromY, toX, toY)
	case schemas.ActionTypeTextAt:
		x, y := e.denormalize(action.X, action.Y)
		return e.backend.TypeText(ctx, sessionID, x, y, action.Text, browser.TypeOptions{
			PressEnter:  action.PressEnter,
			ClearBefore: action.ClearBeforeTyping,
		})
	case schemas.ActionKeyCombination:
		keys := strings.Split(action.Keys, "+")
		return e.backend.PressKeys(ctx, sessionID, keys)
	case schemas.ActionScrollDocument:
		x, y := e.cfg.ViewportWidth/2, e.cfg.ViewportHeight/2
		return e.backend.Scroll(ctx, sessionID, x, y, scrollDirection(action.Direction), action.Magnitude)
	case schemas.ActionScrollAt:
		x, y := e.denormalize(action.X, action.Y)
		return e.backend.Scroll(ctx, sessionID, x, y, scrollDirection(action.Direction), action.Magnitude)
	default:
		return fmt.Errorf("unknown action %q", action.Name)
	}
}

// denormalize maps model coordinates from the 0-999 space onto viewport
// pixels.
func (e *Executor) denormalize(x, y int) (int, int) {
	return clamp(x, maxCoordinate) * e.cfg.ViewportWidth / maxCoordinate,
		clamp(y, maxCoordinate) * e.cfg.ViewportHeight / maxCoordinate
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return limit - 1
	}
	return v
}

func scrollDirection(direction string) browser.ScrollDirection {
	switch strings.ToLower(direction) {
	case "up":
		return browser.ScrollUp
	case "left":
		return browser.ScrollLeft
	case "right":
		return browser.ScrollRight
	default:
		return browser.ScrollDown
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
