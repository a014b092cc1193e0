package trace

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/calltree/internal/tree"
)

// Renderer serializes a Trace for display or export.
type Renderer interface {
	Render(t *Trace) ([]byte, error)
}

// JSONRenderer renders the artifact as indented JSON, the same shape the
// store writes, suitable for piping into other tools.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(t *Trace) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// TextRenderer renders the artifact as an indented tree for terminals.
// With Color false the output is plain text with no escape sequences.
type TextRenderer struct {
	Color bool
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	rootStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func (r *TextRenderer) style(s lipgloss.Style, text string) string {
	if !r.Color {
		return text
	}
	return s.Render(text)
}

func (r *TextRenderer) Render(t *Trace) ([]byte, error) {
	tr, err := t.Tree()
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(r.style(headerStyle, "Call tree") + "\n")
	fmt.Fprintf(&sb, "%s\n", r.style(metaStyle, fmt.Sprintf(
		"max depth %d, %d calls, captured %s",
		t.MaxDepth, len(t.Nodes)-1, t.CapturedAt.Format("2006-01-02 15:04:05 MST"))))

	tr.Walk(func(n tree.Node, depth int) bool {
		indent := strings.Repeat("  ", depth)
		switch depth {
		case 0:
			fmt.Fprintf(&sb, "%s%s\n", indent, r.style(rootStyle, n.Name))
		default:
			fmt.Fprintf(&sb, "%s%s %s\n", indent, r.style(branchStyle, "└─"), n.Name)
		}
		return true
	})

	if t.Interrupted {
		sb.WriteString(r.style(warnStyle, "trace interrupted: target lost before returning to the root") + "\n")
	}
	return []byte(sb.String()), nil
}
