// File: api/schemas/browser.go
package schemas

// Session identifies one provisioned browser session. Exactly one session
// exists per job and it is owned by that job's workflow for its lifetime.
type Session struct {
	ID        string `json:"id"`
	ViewerURL string `json:"viewer_url,omitempty"`
	// Reconnected is true when an existing session was reattached instead of
	// a fresh one being created.
	Reconnected bool `json:"reconnected"`
}

// Computer-use action names as emitted by the reasoning model. The turn
// executor maps these onto browser backend calls.
const (
	ActionOpenBrowser    = "open_web_browser"
	ActionNavigate       = "navigate"
	ActionSearch         = "search"
	ActionGoBack         = "go_back"
	ActionGoForward      = "go_forward"
	ActionWait           = "wait_5_seconds"
	ActionClickAt        = "click_at"
	ActionDoubleClickAt  = "double_click_at"
	ActionHoverAt        = "hover_at"
	ActionDragAndDrop    = "drag_and_drop"
	ActionTypeTextAt     = "type_text_at"
	ActionKeyCombination = "key_combination"
	ActionScrollDocument = "scroll_document"
	ActionScrollAt       = "scroll_at"
)

// AgentAction is a single tool call decoded from the model's turn output.
// Coordinates are in the model's normalized 0-999 space; the executor
// denormalizes them to the session viewport.
type AgentAction struct {
	Name string `json:"name"`
	X    int    `json:"x,omitempty"`
	Y    int    `json:"y,omitempty"`
	// DestinationX/Y are the drop coordinates for drag_and_drop.
	DestinationX int    `json:"destination_x,omitempty"`
	DestinationY int    `json:"destination_y,omitempty"`
	Text         string `json:"text,omitempty"`
	URL          string `json:"url,omitempty"`
	// Keys is a "+"-separated combination, e.g. "Control+a".
	Keys string `json:"keys,omitempty"`
	// Direction is "up" or "down" for scroll actions.
	Direction         string `json:"direction,omitempty"`
	Magnitude         int    `json:"magnitude,omitempty"`
	PressEnter        bool   `json:"press_enter,omitempty"`
	ClearBeforeTyping bool   `json:"clear_before_typing,omitempty"`
}

// TurnDecision is the JSON envelope the reasoning model returns for one
// computer-use turn.
type TurnDecision struct {
	Reasoning string        `json:"reasoning"`
	Done      bool          `json:"done"`
	Actions   []AgentAction `json:"actions,omitempty"`
}
