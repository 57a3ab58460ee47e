// Package store provides a SQLite-backed evaluation log.
//
// Every evaluation that reaches the compile step is recorded with:
//   - Programs: full program text, keyed by its content hash
//   - Evaluations: one row per evaluation with config, status, diagnostic
//     and per-stage timings, referencing its program
//
// Program text is stored once per hash, so a program evaluated many times
// costs one row. A failed evaluation can be reproduced from the stored text.
//
// # Ordering
//
// Evaluations carry an autoincrement seq. Listings are ordered by seq, never
// by wall time, so results are stable when clocks are coarse or skewed.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait 5s for locks
//   - foreign_keys=ON: Enforce the evaluation -> program reference
//
// The Store implements eval.Recorder.
package store
