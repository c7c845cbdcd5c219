//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// Available returns the number of logical CPUs this process may run on,
// read from the scheduler affinity mask. Inside containers with a restricted
// cpuset this is more accurate than the raw machine CPU count.
// Falls back to runtime.NumCPU() if the mask cannot be read.
func Available() int {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return runtime.NumCPU()
	}

	if n := mask.Count(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}
