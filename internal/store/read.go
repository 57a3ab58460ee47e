package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/weldgraph/internal/eval"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

const selectEvaluation = `
	SELECT e.id, e.program_hash, p.text, e.config, e.status, e.diagnostic,
	       e.args, e.bindings, e.frame_bytes, e.frame_hash,
	       e.encode_ns, e.compile_ns, e.run_ns, e.decode_ns, e.started_at
	FROM evaluations e
	JOIN programs p ON p.hash = e.program_hash
`

// ListEvaluations returns the most recent evaluations, newest first.
// A limit <= 0 returns all of them.
func (s *Store) ListEvaluations(ctx context.Context, limit int) ([]eval.Record, error) {
	query := selectEvaluation + ` ORDER BY e.seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	records := make([]eval.Record, 0)
	for rows.Next() {
		rec, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("list evaluations: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return records, nil
}

// GetEvaluation returns one evaluation by ID.
func (s *Store) GetEvaluation(ctx context.Context, id string) (eval.Record, error) {
	row := s.db.QueryRowContext(ctx, selectEvaluation+` WHERE e.id = ?`, id)
	rec, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return eval.Record{}, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return eval.Record{}, fmt.Errorf("get evaluation %s: %w", id, err)
	}
	return rec, nil
}

// GetProgram returns the stored program text for a hash.
func (s *Store) GetProgram(ctx context.Context, hash string) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT text FROM programs WHERE hash = ?`, hash).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("program %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get program %s: %w", hash, err)
	}
	return text, nil
}

// CountByStatus returns the number of evaluations per status.
func (s *Store) CountByStatus(ctx context.Context) (map[eval.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM evaluations
		GROUP BY status
		ORDER BY status ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[eval.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("count by status: %w", err)
		}
		counts[eval.Status(status)] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(sc scanner) (eval.Record, error) {
	var (
		rec                      eval.Record
		cfgJSON, status, started string
		enc, comp, run, dec      int64
	)
	err := sc.Scan(
		&rec.ID, &rec.ProgramHash, &rec.Program, &cfgJSON, &status, &rec.Diagnostic,
		&rec.Args, &rec.Bindings, &rec.FrameBytes, &rec.FrameHash,
		&enc, &comp, &run, &dec, &started,
	)
	if err != nil {
		return eval.Record{}, err
	}

	if rec.Config, err = unmarshalConfig(cfgJSON); err != nil {
		return eval.Record{}, err
	}
	if rec.StartedAt, err = parseTime(started); err != nil {
		return eval.Record{}, err
	}
	rec.Status = eval.Status(status)
	rec.Timings = eval.Timings{
		Encode:  time.Duration(enc),
		Compile: time.Duration(comp),
		Run:     time.Duration(run),
		Decode:  time.Duration(dec),
	}
	return rec, nil
}
