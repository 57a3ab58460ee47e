// Package config loads evaluator configuration from CUE files.
//
// A configuration file unifies with an embedded schema that supplies
// defaults and constraints:
//
//	weld: {
//		threads: 4
//		passes: ["loop-fusion", "infer-size"]
//		memory_limit: 8000000000
//	}
//
// Unknown fields, non-positive thread counts and empty pass names are
// rejected with the CUE position of the offending value.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/weldgraph/internal/eval"
)

//go:embed schema.cue
var schemaCUE string

// Load reads and validates the configuration file at path.
func Load(path string) (eval.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return eval.Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates src (named filename in diagnostics) against the schema and
// decodes the `weld` struct.
func Parse(filename string, src []byte) (eval.Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return eval.Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return eval.Config{}, fmt.Errorf("parse config: %s", details(err))
	}

	v := schema.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return eval.Config{}, fmt.Errorf("invalid config: %s", details(err))
	}

	var cfg eval.Config
	if err := v.LookupPath(cue.ParsePath("weld")).Decode(&cfg); err != nil {
		return eval.Config{}, fmt.Errorf("decode config: %s", details(err))
	}
	if err := cfg.Validate(); err != nil {
		return eval.Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration of an empty file.
func Default() eval.Config {
	cfg, err := Parse("default.cue", nil)
	if err != nil {
		panic(fmt.Sprintf("config schema defaults are invalid: %v", err))
	}
	return cfg
}

func details(err error) string {
	return cueerrors.Details(err, nil)
}
