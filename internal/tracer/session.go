// Package tracer implements the stepping state machine that grows a call
// tree from pause events: after every pause it compares the observed depth
// against the previous one, mutates the tree accordingly, and decides
// whether to step further into the target or run the current activation to
// completion.
package tracer

import (
	"errors"
	"fmt"

	"github.com/lattesec/log"

	"github.com/fakeyudi/calltree/internal/host"
	"github.com/fakeyudi/calltree/internal/stack"
	"github.com/fakeyudi/calltree/internal/tree"
)

var (
	// ErrInvalidDepth is returned by Begin for a negative maximum depth.
	ErrInvalidDepth = errors.New("maximum depth must be non-negative")

	// ErrNoActiveFrame is returned by Begin when the target has no active
	// frame: execution has not started, so there is nothing to anchor to.
	ErrNoActiveFrame = errors.New("no active frame")

	// ErrLostFrame reports a pause with no retrievable frame: the target
	// exited or its stack became unreadable mid-session. The tree built so
	// far is still delivered to OnFinish.
	ErrLostFrame = errors.New("lost active frame")
)

// Options configures a tracing session.
type Options struct {
	// MaxDepth is the maximum call depth to descend into before forcing a
	// return. Must be >= 0.
	MaxDepth int

	// OnFinish receives the finished tree on every terminal path: normal
	// completion (err == nil) and mid-session failure (err != nil, tree
	// holds whatever was built before the failure). Optional.
	OnFinish func(t *tree.Tree, err error)
}

// Session is one tracing run. Construct with Begin; all state is private to
// the session and discarded with it, nothing survives across runs.
type Session struct {
	host host.Host
	opts Options

	ref  stack.Frame // frame active when tracing began; depth-zero anchor
	tree *tree.Tree

	cur    int         // depth observed at the latest pause
	prev   int         // depth observed at the pause before it
	parent tree.NodeID // node the next discovered call attaches under

	done    bool
	err     error
	handler host.Handler
}

// Begin validates opts, anchors the session to the currently active frame,
// subscribes to pause notifications, and issues the first advance-into
// directive. On error no handler is registered and no directive is issued.
func Begin(h host.Host, opts Options) (*Session, error) {
	if opts.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, opts.MaxDepth)
	}

	ref := h.CurrentFrame()
	if ref == nil {
		return nil, ErrNoActiveFrame
	}

	s := &Session{
		host:   h,
		opts:   opts,
		ref:    ref,
		tree:   tree.New(stack.FuncName(ref)),
		parent: tree.RootID,
	}
	s.handler = s.handlePause

	log.Debug().
		WithMeta("scope", "tracer").
		Msgf("session start: root=%s max_depth=%d", s.tree.Root().Name, opts.MaxDepth).Send()

	h.OnPause(s.handler)
	h.AdvanceInto()
	return s, nil
}

// handlePause runs once per pause notification and is the only code that
// touches session state. The host delivers pauses sequentially, so no
// locking is needed.
func (s *Session) handlePause() {
	if s.done {
		// Spurious notification after termination.
		return
	}

	frame := s.host.CurrentFrame()
	if frame == nil {
		s.finish(ErrLostFrame)
		return
	}

	s.prev = s.cur
	depth, found := stack.Depth(frame, s.ref)
	if !found {
		// The target unwound past the reference frame; treat as returned.
		depth = 0
	}
	s.cur = depth

	log.Debug().
		WithMeta("scope", "tracer").
		Msgf("pause: func=%s depth=%d prev=%d", stack.FuncName(frame), s.cur, s.prev).Send()

	// A whole source line executed without entering or leaving a call (no
	// call on the line, or a call with no debug info). Step again; nothing
	// to record.
	if s.cur == s.prev {
		s.host.AdvanceInto()
		return
	}

	switch {
	case s.cur == 0:
		// Control is back in the reference frame.
		s.finish(nil)
		return

	case s.cur > s.prev:
		// A new call was entered. The initial advance can overshoot the cap
		// by one when MaxDepth is 0; such frames are stepped out of without
		// being recorded.
		if s.cur <= s.opts.MaxDepth {
			id, err := s.tree.Insert(s.parent, stack.FuncName(frame))
			if err != nil {
				s.finish(fmt.Errorf("corrupt parent cursor: %w", err))
				return
			}
			s.parent = id
		}

	default: // s.cur < s.prev
		// One or more activations returned. A single run-to-return can
		// unwind several frames at once, so ascend the cursor once per
		// level actually dropped.
		for i := 0; i < s.prev-s.cur; i++ {
			p, ok := s.tree.Parent(s.parent)
			if !ok {
				break
			}
			s.parent = p
		}
	}

	if s.cur < s.opts.MaxDepth {
		s.host.AdvanceInto()
	} else {
		s.host.RunToReturn()
	}
}

// finish transitions to the terminal state: it unregisters the pause handler
// exactly once, records the outcome, and hands the tree to OnFinish. Every
// terminal path, normal or failing, goes through here.
func (s *Session) finish(err error) {
	if s.done {
		return
	}
	s.done = true
	s.err = err
	s.host.RemovePauseHandler(s.handler)

	log.Debug().
		WithMeta("scope", "tracer").
		Msgf("session finished: nodes=%d err=%v", s.tree.Len(), err).Send()

	if s.opts.OnFinish != nil {
		s.opts.OnFinish(s.tree, err)
	}
}

// Done reports whether the session has reached its terminal state.
func (s *Session) Done() bool { return s.done }

// Err returns the terminal error, or nil after normal completion.
func (s *Session) Err() error { return s.err }

// Tree returns the call tree built so far.
func (s *Session) Tree() *tree.Tree { return s.tree }
