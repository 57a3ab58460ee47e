package store

import (
	"context"
	"fmt"

	"github.com/roach88/weldgraph/internal/eval"
)

// RecordEvaluation stores the program text (once per hash) and the
// evaluation row in one transaction. Implements eval.Recorder.
//
// Uses ON CONFLICT DO NOTHING for idempotency - re-recording the same
// evaluation ID is silently ignored.
func (s *Store) RecordEvaluation(ctx context.Context, rec eval.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record evaluation: empty id")
	}
	if rec.ProgramHash == "" {
		return fmt.Errorf("record evaluation %s: empty program hash", rec.ID)
	}

	cfgJSON, err := marshalConfig(rec.Config)
	if err != nil {
		return fmt.Errorf("record evaluation %s: %w", rec.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record evaluation %s: begin: %w", rec.ID, err)
	}
	defer tx.Rollback()

	started := formatTime(rec.StartedAt)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO programs (hash, text, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, rec.ProgramHash, rec.Program, started)
	if err != nil {
		return fmt.Errorf("record evaluation %s: insert program: %w", rec.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO evaluations
		(id, program_hash, config, status, diagnostic, args, bindings, frame_bytes,
		 frame_hash, encode_ns, compile_ns, run_ns, decode_ns, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.ProgramHash,
		cfgJSON,
		string(rec.Status),
		rec.Diagnostic,
		rec.Args,
		rec.Bindings,
		rec.FrameBytes,
		rec.FrameHash,
		rec.Timings.Encode.Nanoseconds(),
		rec.Timings.Compile.Nanoseconds(),
		rec.Timings.Run.Nanoseconds(),
		rec.Timings.Decode.Nanoseconds(),
		started,
	)
	if err != nil {
		return fmt.Errorf("record evaluation %s: insert evaluation: %w", rec.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record evaluation %s: commit: %w", rec.ID, err)
	}
	return nil
}
