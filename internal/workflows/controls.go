// File: internal/workflows/controls.go
package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/xkilldash9x/wraith/api/schemas"
)

// controlState is the workflow's view of every out-of-band control signal.
// All mutation happens on the single signal-pump coroutine below; the main
// workflow coroutine and the query handler only read. Workflow coroutines
// are cooperatively scheduled, so no locking is needed - and none would be
// deterministic anyway.
//
// Semantics per signal:
//   - approve/reject share one decision slot, last write wins. Only one
//     approval gate is ever open per job, so an overwrite can only reorder
//     a single human's clicks, never cross-contaminate gates.
//   - kill is a one-way flag: once true, never reset.
//   - user messages queue in strict arrival order until the turn loop
//     drains them.
//
// Signals arriving before the workflow reaches a consumption point simply
// sit in this state; signals arriving after the workflow returns are
// dropped by the durable-execution layer.
type controlState struct {
	decision schemas.ApprovalDecision
	killed   bool
	pending  []string
}

// newControlState wires the signal channels and the status query handler,
// and starts the pump coroutine that folds incoming signals into state.
func newControlState(ctx workflow.Context) (*controlState, error) {
	cs := &controlState{}

	approveCh := workflow.GetSignalChannel(ctx, schemas.SignalApprove)
	rejectCh := workflow.GetSignalChannel(ctx, schemas.SignalReject)
	killCh := workflow.GetSignalChannel(ctx, schemas.SignalKill)
	messageCh := workflow.GetSignalChannel(ctx, schemas.SignalUserMessage)

	workflow.Go(ctx, func(ctx workflow.Context) {
		for {
			sel := workflow.NewSelector(ctx)
			sel.AddReceive(approveCh, func(c workflow.ReceiveChannel, more bool) {
				c.Receive(ctx, nil)
				cs.decision = schemas.DecisionApproved
			})
			sel.AddReceive(rejectCh, func(c workflow.ReceiveChannel, more bool) {
				c.Receive(ctx, nil)
				cs.decision = schemas.DecisionRejected
			})
			sel.AddReceive(killCh, func(c workflow.ReceiveChannel, more bool) {
				c.Receive(ctx, nil)
				cs.killed = true
			})
			sel.AddReceive(messageCh, func(c workflow.ReceiveChannel, more bool) {
				var msg schemas.UserMessageSignal
				c.Receive(ctx, &msg)
				if msg.Text != "" {
					cs.pending = append(cs.pending, msg.Text)
				}
			})
			sel.Select(ctx)
		}
	})

	err := workflow.SetQueryHandler(ctx, schemas.QueryStatus, func() (schemas.ControlStatus, error) {
		return schemas.ControlStatus{
			Decision:        cs.decision,
			PendingMessages: len(cs.pending),
			Killed:          cs.killed,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return cs, nil
}

// drainMessages empties the pending queue, preserving arrival order.
func (cs *controlState) drainMessages() []string {
	msgs := cs.pending
	cs.pending = nil
	return msgs
}

// takeDecision consumes the decision slot. Clearing it here is what keeps a
// stale approve/reject from leaking into a later approval gate.
func (cs *controlState) takeDecision() schemas.ApprovalDecision {
	d := cs.decision
	cs.decision = schemas.DecisionUnset
	return d
}
