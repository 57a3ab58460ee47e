package testutil

import (
	"context"
	"sync"

	"github.com/roach88/weldgraph/internal/eval"
)

// MemoryRecorder collects evaluation records in memory.
// If Err is set, RecordEvaluation returns it after storing the record.
type MemoryRecorder struct {
	Err error

	mu      sync.Mutex
	records []eval.Record
}

// RecordEvaluation implements eval.Recorder.
func (m *MemoryRecorder) RecordEvaluation(_ context.Context, rec eval.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.Err
}

// Records returns a copy of the recorded evaluations.
func (m *MemoryRecorder) Records() []eval.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]eval.Record(nil), m.records...)
}
