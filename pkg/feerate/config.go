package feerate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	//DefaultCapacity is the smoothing window size, with a refresh each 5 min. we average the last 20 min.
	DefaultCapacity = 4
	//DefaultMaxBlocks is the highest acceptable confirmation delay in blocks
	DefaultMaxBlocks = 10
	//DefaultTTL is how long a computed rate stays fresh
	DefaultTTL = 5 * time.Minute
)

// Config holds the estimation parameters, immutable after construction.
type Config struct {
	Capacity  int
	MaxBlocks int64
	TTL       time.Duration
}

// NewConfig returns a config with the default parameters.
func NewConfig() Config {
	return Config{
		Capacity:  DefaultCapacity,
		MaxBlocks: DefaultMaxBlocks,
		TTL:       DefaultTTL,
	}
}

// ParseArgs overrides the defaults from optional positional arguments
// "capacity maxBlocks ttlMinutes". Malformed values are an error, not
// silently defaulted.
func ParseArgs(args []string) (Config, error) {
	cfg := NewConfig()
	if len(args) >= 1 {
		capacity, err := strconv.Atoi(args[0])
		if err != nil {
			return cfg, errors.Wrapf(err, "invalid capacity %q", args[0])
		}
		if capacity <= 0 {
			return cfg, errors.Errorf("capacity must be positive, got %v", capacity)
		}
		cfg.Capacity = capacity
	}

	if len(args) >= 2 {
		maxBlocks, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return cfg, errors.Wrapf(err, "invalid maxBlocks %q", args[1])
		}
		if maxBlocks < 0 {
			return cfg, errors.Errorf("maxBlocks must not be negative, got %v", maxBlocks)
		}
		cfg.MaxBlocks = maxBlocks
	}

	if len(args) >= 3 {
		ttl, err := strconv.Atoi(args[2])
		if err != nil {
			return cfg, errors.Wrapf(err, "invalid ttl %q", args[2])
		}
		if ttl <= 0 {
			return cfg, errors.Errorf("ttl must be positive, got %v", ttl)
		}
		cfg.TTL = time.Duration(ttl) * time.Minute
	}

	return cfg, nil
}

// Params renders the config for diagnostics as "capacity;maxBlocks;ttlMillis".
func (c Config) Params() string {
	return fmt.Sprintf("%v;%v;%v", c.Capacity, c.MaxBlocks, c.TTL.Milliseconds())
}
