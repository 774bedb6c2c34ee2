package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/vsim/sim/hooking"
)

// ProcessLogger is a hook that logs callback dispatching at trace level and the
// lifecycle of processes at debug level.
type ProcessLogger struct {
	logger logrus.FieldLogger
}

// NewProcessLogger returns a ProcessLogger writing into logger.
func NewProcessLogger(logger logrus.FieldLogger) *ProcessLogger {
	return &ProcessLogger{logger: logger}
}

// Func writes the hook information into the logger.
func (h *ProcessLogger) Func(ctx hooking.HookCtx) {
	switch item := ctx.Item.(type) {
	case CallbackInfo:
		if ctx.Pos != HookPosBeforeCallback {
			return
		}

		h.logger.WithFields(logrus.Fields{
			"time": item.Time,
			"seq":  item.Seq,
		}).Trace("dispatch")
	case *Process:
		h.logger.WithFields(logrus.Fields{
			"time":    item.Now(),
			"process": item.Name(),
			"state":   item.State().String(),
		}).Debug(ctx.Pos.Name)
	}
}
