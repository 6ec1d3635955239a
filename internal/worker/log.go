// File: internal/worker/log.go
package worker

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// zapAdapter bridges the Temporal SDK's keyval logger onto zap so worker
// internals land in the same sinks as application logs.
type zapAdapter struct {
	sugar *zap.SugaredLogger
}

var _ log.Logger = (*zapAdapter)(nil)

func newZapAdapter(logger *zap.Logger) *zapAdapter {
	// Skip one frame so call sites inside the SDK are reported, not this
	// adapter.
	return &zapAdapter{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (a *zapAdapter) Debug(msg string, keyvals ...interface{}) { a.sugar.Debugw(msg, keyvals...) }
func (a *zapAdapter) Info(msg string, keyvals ...interface{})  { a.sugar.Infow(msg, keyvals...) }
func (a *zapAdapter) Warn(msg string, keyvals ...interface{})  { a.sugar.Warnw(msg, keyvals...) }
func (a *zapAdapter) Error(msg string, keyvals ...interface{}) { a.sugar.Errorw(msg, keyvals...) }
