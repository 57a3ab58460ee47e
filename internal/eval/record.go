package eval

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one evaluation.
type Status string

const (
	StatusOK           Status = "ok"
	StatusCompileError Status = "compile_error"
	StatusRuntimeError Status = "runtime_error"
	StatusError        Status = "error"
)

// StatusOf classifies an evaluation error.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case IsCompileError(err):
		return StatusCompileError
	case IsRuntimeError(err):
		return StatusRuntimeError
	default:
		return StatusError
	}
}

// Timings holds per-stage durations of one evaluation.
type Timings struct {
	Encode  time.Duration `json:"encode"`
	Compile time.Duration `json:"compile"`
	Run     time.Duration `json:"run"`
	Decode  time.Duration `json:"decode"`
}

// Total is the sum of all stages.
func (t Timings) Total() time.Duration {
	return t.Encode + t.Compile + t.Run + t.Decode
}

// Record describes one finished evaluation.
type Record struct {
	ID          string
	ProgramHash string
	Program     string
	Config      Config
	Status      Status
	Diagnostic  string
	Args        int
	Bindings    int
	FrameBytes  int
	FrameHash   string
	Timings     Timings
	StartedAt   time.Time
}

// Recorder persists evaluation records. Recording failures are logged and
// never fail the evaluation.
type Recorder interface {
	RecordEvaluation(ctx context.Context, rec Record) error
}

// IDGenerator produces evaluation record IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 record IDs.
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns "<prefix>-1", "<prefix>-2", ... for tests.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a SequenceGenerator.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.prefix + "-" + strconv.Itoa(g.n)
}
