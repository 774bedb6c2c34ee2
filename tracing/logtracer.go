package tracing

import "github.com/sirupsen/logrus"

// LogTracer writes records into a logger at debug level.
type LogTracer struct {
	logger logrus.FieldLogger
}

// NewLogTracer creates a LogTracer.
func NewLogTracer(logger logrus.FieldLogger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Trace logs the record.
func (t *LogTracer) Trace(r Record) {
	entry := t.logger.WithFields(logrus.Fields{
		"time": r.Time,
		"name": r.Name,
	})

	if r.Kind == KindChange {
		entry.WithField("value", r.Value).Debug("value change")
		return
	}

	entry.Debug("event triggered")
}
