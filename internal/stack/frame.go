// Package stack models the target program's call stack as seen at a pause
// and computes call depth relative to a fixed reference frame.
package stack

// UnknownFunc is the display name used for frames whose function cannot be
// resolved (stripped binaries, missing debug info). Same convention gdb uses.
const UnknownFunc = "??"

// Frame is a read-only view of a single activation record on the target's
// call stack. Implementations are owned by the host; the tracer never
// mutates a Frame.
type Frame interface {
	// Func returns the frame's function display name. ok is false when the
	// host cannot resolve a name for this frame.
	Func() (name string, ok bool)

	// Caller returns the immediate older frame, or nil at the outermost frame.
	Caller() Frame

	// ID is a stable identity for this activation, consistent across pauses
	// for as long as the activation is live (debuggers derive this from the
	// frame's canonical stack address).
	ID() string
}

// FuncName resolves f's display name, substituting UnknownFunc when the host
// has no symbol for it. Every tree node gets a name, resolvable or not.
func FuncName(f Frame) string {
	if name, ok := f.Func(); ok && name != "" {
		return name
	}
	return UnknownFunc
}

// Depth counts the caller hops from active up to ref. It returns (0, true)
// when active is the reference frame itself. found is false when the chain
// is exhausted without reaching ref, which means the target has unwound past
// the frame tracing started in; callers must treat that as depth zero and
// stop tracing.
func Depth(active, ref Frame) (n int, found bool) {
	for f := active; f != nil; f = f.Caller() {
		if f.ID() == ref.ID() {
			return n, true
		}
		n++
	}
	return 0, false
}
