//go:build !linux

package cpu

import "runtime"

// Available returns the number of logical CPUs available.
// Affinity masks are not readable on this platform.
func Available() int {
	return runtime.NumCPU()
}
