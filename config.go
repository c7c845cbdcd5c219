package parlane

import (
	"fmt"
	"time"
)

// Backend selects the concurrency substrate used to run tasks.
type Backend string

const (
	// BackendAuto picks BackendThread when true thread parallelism is
	// available, BackendProcess otherwise.
	BackendAuto Backend = "auto"

	// BackendThread runs tasks on shared-memory workers.
	BackendThread Backend = "thread"

	// BackendProcess runs tasks on isolated workers: every input and output
	// is copied across the worker boundary, so values must be gob-encodable.
	BackendProcess Backend = "process"
)

// ErrorStrategy is the policy governing how per-task failures affect the
// overall call's output and control flow.
type ErrorStrategy string

const (
	// StrategyRaise propagates the first failure immediately and cancels
	// remaining work. The call either fully succeeds or fails; no partial
	// prefix is returned.
	StrategyRaise ErrorStrategy = "raise"

	// StrategySkip silently drops failed items from the output. The relative
	// order of surviving items is preserved.
	StrategySkip ErrorStrategy = "skip"

	// StrategyCollect wraps every outcome, success or failure, into a Result,
	// preserving input length and order. Used by the *Collect entry points.
	StrategyCollect ErrorStrategy = "collect"
)

// maxWorkers caps the default worker count for both backends. It mirrors the
// standard thread-pool sizing heuristic: I/O-bound work benefits from a few
// more threads than cores, CPU-bound work gains nothing beyond core count.
const maxWorkers = 32

// Option configures a single execution call.
type Option func(*config)

type config struct {
	workers    int
	backend    Backend
	timeout    time.Duration
	chunkSize  int
	onError    ErrorStrategy
	reporter   Reporter
	label      string
	ratePerSec float64
	rateBurst  int
}

func defaultConfig() *config {
	return &config{
		backend: BackendAuto,
		onError: StrategyRaise,
	}
}

// newConfig applies options and validates the result. Validation failures
// are ConfigError and are reported before any task is dispatched.
func newConfig(opts ...Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.workers < 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("workers must be >= 0, got %d", cfg.workers)}
	}
	switch cfg.backend {
	case BackendAuto, BackendThread, BackendProcess:
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown backend %q", cfg.backend)}
	}
	if cfg.timeout < 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("timeout must be >= 0, got %s", cfg.timeout)}
	}
	if cfg.chunkSize < 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("chunksize must be >= 1, got %d", cfg.chunkSize)}
	}
	switch cfg.onError {
	case StrategyRaise, StrategySkip, StrategyCollect:
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown error strategy %q", cfg.onError)}
	}

	return cfg, nil
}

// WithWorkers sets the number of parallel workers. Zero (the default) resolves
// the count at execution time from the backend kind, CPU count, and item count.
func WithWorkers(n int) Option {
	return func(cfg *config) {
		cfg.workers = n
	}
}

// WithBackend sets the execution backend. An explicit thread or process
// request always wins over auto-detection.
func WithBackend(b Backend) Option {
	return func(cfg *config) {
		cfg.backend = b
	}
}

// WithTimeout sets a per-task wall-clock bound. A task exceeding it fails
// with a TimeoutError, which is then subject to the error strategy like any
// other failure.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}

// WithChunkSize sets the dispatch chunk size for the process backend.
// Larger chunks amortize boundary-crossing cost. Ignored by the thread
// backend. Zero (the default) computes a chunk size from the item and
// worker counts.
func WithChunkSize(n int) Option {
	return func(cfg *config) {
		cfg.chunkSize = n
	}
}

// WithOnError sets the error strategy. Map, Filter, ForEach and StarMap
// accept StrategyRaise and StrategySkip; StrategyCollect is served by the
// *Collect entry points because the wrapped return type differs.
func WithOnError(s ErrorStrategy) Option {
	return func(cfg *config) {
		cfg.onError = s
	}
}

// WithProgress installs a progress reporter. The engine calls Advance once
// per completed task, in completion order, which may differ from input order.
// Reporters must be safe for concurrent use.
func WithProgress(r Reporter) Option {
	return func(cfg *config) {
		cfg.reporter = r
	}
}

// WithProgressLabel sets the label passed to the reporter's Start call.
func WithProgressLabel(label string) Option {
	return func(cfg *config) {
		cfg.label = label
	}
}

// WithRateLimit limits task throughput across all workers. Useful when tasks
// call external services.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cfg *config) {
		cfg.ratePerSec = perSecond
		cfg.rateBurst = burst
	}
}

// resolveWorkers computes the worker count for a resolved backend kind.
// Explicit worker counts are honored as-is. Defaults:
//
//	thread:  min(32, cpu+4, n)
//	process: min(32, cpu, n)
//
// The default never exceeds the item count, avoiding idle workers.
func (cfg *config) resolveWorkers(kind Backend, cpuCount, n int) int {
	if cfg.workers > 0 {
		return cfg.workers
	}

	var def int
	if kind == BackendThread {
		def = min(maxWorkers, cpuCount+4)
	} else {
		def = min(maxWorkers, cpuCount)
	}

	return min(def, max(1, n))
}

// resolveChunkSize computes the dispatch chunk size for the process backend,
// targeting roughly four chunks per worker.
func (cfg *config) resolveChunkSize(n, workers int) int {
	if cfg.chunkSize > 0 {
		return cfg.chunkSize
	}
	if n == 0 || workers == 0 {
		return 1
	}

	chunk := n / (workers * 4)
	if n%(workers*4) != 0 {
		chunk++
	}
	return max(1, chunk)
}
