// Package trace defines the finalized trace artifact produced at the end of
// a session, its on-disk persistence, and renderers for displaying it.
package trace

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/calltree/internal/tree"
)

// Trace is the exportable result of one tracing session: session metadata
// plus the call tree flattened in insertion order (nodes[0] is the root, so
// every parent precedes its children).
type Trace struct {
	ID          string      `json:"id"`
	CapturedAt  time.Time   `json:"captured_at"`
	MaxDepth    int         `json:"max_depth"`
	Interrupted bool        `json:"interrupted,omitempty"` // session aborted before returning to the root
	Nodes       []tree.Node `json:"nodes"`
}

// FromTree freezes a finished call tree into an artifact.
func FromTree(t *tree.Tree, maxDepth int, interrupted bool) *Trace {
	return &Trace{
		ID:          uuid.New().String(),
		CapturedAt:  time.Now().UTC(),
		MaxDepth:    maxDepth,
		Interrupted: interrupted,
		Nodes:       t.Nodes(),
	}
}

// Tree rebuilds the call tree from the flattened node list. It fails on an
// artifact whose nodes are out of order or refer to unknown parents, which
// protects viewers from hand-edited files.
func (tr *Trace) Tree() (*tree.Tree, error) {
	if len(tr.Nodes) == 0 {
		return nil, fmt.Errorf("trace %s has no nodes", tr.ID)
	}
	root := tr.Nodes[0]
	if root.Parent != nil {
		return nil, fmt.Errorf("trace %s: first node %q is not a root", tr.ID, root.Name)
	}

	t := tree.New(root.Name)
	for _, n := range tr.Nodes[1:] {
		if n.Parent == nil {
			return nil, fmt.Errorf("trace %s: node %d (%q) has no parent", tr.ID, n.ID, n.Name)
		}
		id, err := t.Insert(*n.Parent, n.Name)
		if err != nil {
			return nil, fmt.Errorf("trace %s: node %d (%q): %w", tr.ID, n.ID, n.Name, err)
		}
		if id != n.ID {
			return nil, fmt.Errorf("trace %s: node IDs are not dense at %d", tr.ID, n.ID)
		}
	}
	return t, nil
}
