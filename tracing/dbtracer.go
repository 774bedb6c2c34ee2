package tracing

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/vsim/datarecording"
)

// TraceTable is the table DBTracer writes into.
const TraceTable = "trace"

// DBTracer stores records into a data recorder.
type DBTracer struct {
	backend datarecording.DataRecorder
	logger  logrus.FieldLogger
}

// NewDBTracer creates a DBTracer and the trace table in the recorder.
func NewDBTracer(
	recorder datarecording.DataRecorder,
	logger logrus.FieldLogger,
) (*DBTracer, error) {
	if err := recorder.CreateTable(TraceTable, Record{}); err != nil {
		return nil, err
	}

	return &DBTracer{backend: recorder, logger: logger}, nil
}

// Trace buffers the record in the recorder.
func (t *DBTracer) Trace(r Record) {
	if err := t.backend.InsertData(TraceTable, r); err != nil {
		t.logger.WithError(err).Error("record trace")
	}
}

// Terminate flushes the buffered records.
func (t *DBTracer) Terminate() error {
	return t.backend.Flush()
}
