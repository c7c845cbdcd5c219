package parlane

// Reporter receives per-completion progress notifications from an execution
// call. The engine calls Start once before dispatch, Advance once per
// completed task in completion order (which may differ from input order), and
// Finish exactly once on every exit path, including failure.
//
// Implementations must be safe for concurrent use: async execution advances
// the reporter from multiple goroutines.
//
// Rendering is not part of the engine; see the progress package for a
// terminal progress-bar implementation.
type Reporter interface {
	Start(total int, label string)
	Advance(n int)
	Finish()
}
