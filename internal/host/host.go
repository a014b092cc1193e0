// Package host defines the execution-control surface the tracer needs from
// a debugger: frame inspection, stepping, and pause notifications. Anything
// that can stop a target and describe its stack can implement it; the replay
// package ships the implementation used by the trace command.
package host

import "github.com/fakeyudi/calltree/internal/stack"

// Handler is invoked once per execution pause. The notification carries no
// structural metadata; handlers inspect the host to learn where the target
// stopped.
type Handler func()

// Host is the debugger seam. All calls happen from a single goroutine: the
// host must run a registered Handler to completion before delivering the
// next pause.
type Host interface {
	// CurrentFrame returns the innermost active stack frame, or nil when no
	// frame is available (target not running, exited, or stack unreadable).
	CurrentFrame() stack.Frame

	// AdvanceInto resumes the target until the next source-level step,
	// entering any call on the current line.
	AdvanceInto()

	// RunToReturn resumes the target until the current activation returns
	// to its caller.
	RunToReturn()

	// OnPause subscribes h to pause notifications.
	OnPause(h Handler)

	// RemovePauseHandler unsubscribes the handler registered via OnPause.
	RemovePauseHandler(h Handler)
}
