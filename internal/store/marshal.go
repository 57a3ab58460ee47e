package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/weldgraph/internal/eval"
)

// timeLayout is used for all stored timestamps. Always UTC.
const timeLayout = time.RFC3339Nano

// marshalConfig converts an evaluation config to JSON TEXT.
// HTML escaping is disabled so pass names are stored verbatim.
func marshalConfig(cfg eval.Config) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalConfig parses config JSON TEXT.
func unmarshalConfig(data string) (eval.Config, error) {
	var cfg eval.Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return eval.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
