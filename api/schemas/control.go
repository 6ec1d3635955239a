// File: api/schemas/control.go
package schemas

// Signal and query names shared by the workflow, the CLI and any webhook
// frontends. Renaming one of these is a breaking change for in-flight jobs.
const (
	SignalApprove     = "approve"
	SignalReject      = "reject"
	SignalKill        = "kill"
	SignalUserMessage = "user_message"

	QueryStatus = "get_status"
)

// ApprovalDecision is the single-slot value an open approval gate waits on.
// approve/reject signals overwrite it (last write wins); the workflow clears
// it after consumption so a stale decision cannot leak into a later gate.
type ApprovalDecision string

const (
	DecisionUnset    ApprovalDecision = ""
	DecisionApproved ApprovalDecision = "approved"
	DecisionRejected ApprovalDecision = "rejected"
)

// UserMessageSignal carries a mid-task message from the owner. Messages are
// queued in arrival order and folded into the working goal at the next turn
// boundary.
type UserMessageSignal struct {
	Text string `json:"text"`
}

// ControlStatus is the read-only snapshot returned by the status query.
type ControlStatus struct {
	Decision        ApprovalDecision `json:"decision"`
	PendingMessages int              `json:"pending_messages"`
	Killed          bool             `json:"killed"`
}
