package parlane

import (
	"runtime"
	"sync"

	"github.com/utkarsh5026/parlane/internal/cpu"
)

// capabilities is the answer to two runtime questions: can concurrent
// goroutines execute user code in true parallel, and how many logical CPUs
// are available to this process.
type capabilities struct {
	trueParallelThreads bool
	cpuCount            int
}

// capabilityProbe memoizes capability detection for the process lifetime.
// Detection is lazy, happens at most once, and can be reset for tests.
type capabilityProbe struct {
	mu     sync.Mutex
	probed bool
	caps   capabilities
}

func (p *capabilityProbe) probe() capabilities {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.probed {
		p.caps = detectCapabilities()
		p.probed = true
	}
	return p.caps
}

// reset clears the cached detection so the next probe re-detects.
func (p *capabilityProbe) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probed = false
}

// detectCapabilities reads the parallelism and CPU-count signals.
// With GOMAXPROCS=1 the scheduler serializes user code onto a single OS
// thread, so goroutine workers cannot run truly in parallel.
func detectCapabilities() capabilities {
	procs := runtime.GOMAXPROCS(0)
	count := cpu.Available()
	if count < 1 {
		count = 1
	}
	return capabilities{
		trueParallelThreads: procs > 1,
		cpuCount:            count,
	}
}

var defaultProbe = &capabilityProbe{}

// selectBackend resolves a requested backend against the probed capabilities.
// An explicit request always wins, without validation against the probe.
// Auto picks thread when goroutines run truly in parallel, process otherwise:
// thread workers avoid copying cost, isolated workers buy independence from a
// serialized scheduler at the cost of copying inputs and outputs.
func selectBackend(requested Backend, caps capabilities) Backend {
	switch requested {
	case BackendThread, BackendProcess:
		return requested
	default:
		if caps.trueParallelThreads {
			return BackendThread
		}
		return BackendProcess
	}
}

// IsTrueParallelismAvailable reports whether concurrent workers in this
// process can execute user code in true parallel. The answer is detected once
// and cached for the process lifetime.
func IsTrueParallelismAvailable() bool {
	return defaultProbe.probe().trueParallelThreads
}

// RecommendedBackend returns the backend auto-selection would pick for this
// process: BackendThread when true parallelism is available, BackendProcess
// otherwise.
func RecommendedBackend() Backend {
	return selectBackend(BackendAuto, defaultProbe.probe())
}
