package pool

import (
	"golang.org/x/time/rate"
)

// Option is a functional option for configuring the worker pool.
type Option func(*poolConfig)

type poolConfig struct {
	workerCount int
	taskBuffer  int
	rateLimiter *rate.Limiter
	isolated    bool
	chunkSize   int
}

// WithWorkerCount sets the number of concurrent workers.
// If not specified, defaults to runtime.GOMAXPROCS(0).
func WithWorkerCount(count int) Option {
	return func(cfg *poolConfig) {
		if count > 0 {
			cfg.workerCount = count
		}
	}
}

// WithTaskBuffer sets the buffer size for the dispatch channel.
// A larger buffer can improve throughput but uses more memory.
// If not specified, defaults to the number of workers.
func WithTaskBuffer(size int) Option {
	return func(cfg *poolConfig) {
		if size >= 0 {
			cfg.taskBuffer = size
		}
	}
}

// WithRateLimit sets a rate limiter for controlling task throughput across
// all workers. tasksPerSecond is the sustained rate, burst the maximum number
// of tasks started at once. Useful when tasks call external services.
// If not specified, no rate limiting is applied.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 tasks/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *poolConfig) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithIsolation switches the pool to isolated workers: every task input and
// result is copied across the worker boundary via gob encoding, so workers
// never share memory with the caller. Values must be gob-encodable; values
// that are not fail with a TransferError at dispatch or retrieval time.
//
// chunkSize groups that many tasks per worker dispatch to amortize the
// copying overhead; values < 1 are treated as 1.
func WithIsolation(chunkSize int) Option {
	return func(cfg *poolConfig) {
		cfg.isolated = true
		if chunkSize > 0 {
			cfg.chunkSize = chunkSize
		}
	}
}
