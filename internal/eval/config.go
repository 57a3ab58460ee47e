package eval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Configuration keys understood by the runtime.
const (
	ConfPasses       = "weld.optimization.passes"
	ConfThreads      = "weld.threads"
	ConfMemoryLimit  = "weld.memory.limit"
	ConfExperimental = "weld.optimization.applyExperimentalTransforms"
)

// DefaultMemoryLimit is the runtime memory bound used when none is configured.
const DefaultMemoryLimit int64 = 100000000000

// Conf is the key/value configuration handed to the runtime.
type Conf map[string]string

// Keys returns the configuration keys in sorted order.
func (c Conf) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Config controls one evaluation.
type Config struct {
	// Passes lists optimization passes in order. Empty means the runtime's
	// default passes.
	Passes []string `json:"passes,omitempty"`

	// Threads is forwarded to the runtime. Must be >= 1.
	Threads int `json:"threads"`

	// MemoryLimit bounds runtime memory in bytes. Must be > 0.
	MemoryLimit int64 `json:"memory_limit"`

	// ExperimentalTransforms enables the runtime's experimental transforms.
	ExperimentalTransforms bool `json:"experimental_transforms"`

	// Decode selects full decoding through the Decoder. When false the result
	// is read as a raw little-endian int64 from the start of the result buffer.
	Decode bool `json:"decode"`
}

// DefaultConfig returns the configuration used when nothing is specified:
// default passes, one thread, DefaultMemoryLimit, no experimental
// transforms, full decoding.
func DefaultConfig() Config {
	return Config{
		Threads:     1,
		MemoryLimit: DefaultMemoryLimit,
		Decode:      true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("invalid config: threads must be >= 1, got %d", c.Threads)
	}
	if c.MemoryLimit <= 0 {
		return fmt.Errorf("invalid config: memory limit must be > 0, got %d", c.MemoryLimit)
	}
	for i, p := range c.Passes {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("invalid config: pass %d is empty", i)
		}
		if strings.Contains(p, ",") {
			return fmt.Errorf("invalid config: pass %q contains a comma", p)
		}
	}
	return nil
}

// CompileConf returns the configuration for the compile step. The pass list
// is set only when non-empty, leaving the runtime defaults otherwise.
func (c Config) CompileConf() Conf {
	conf := Conf{}
	passes := strings.TrimSpace(strings.Join(c.Passes, ","))
	if passes != "" {
		conf[ConfPasses] = passes
	}
	return conf
}

// RunConf returns the configuration for the run step.
func (c Config) RunConf() Conf {
	return Conf{
		ConfThreads:      strconv.Itoa(c.Threads),
		ConfMemoryLimit:  strconv.FormatInt(c.MemoryLimit, 10),
		ConfExperimental: strconv.FormatBool(c.ExperimentalTransforms),
	}
}
