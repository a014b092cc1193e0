// Package tui provides a Bubble Tea browser for saved call trees.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/calltree/internal/trace"
	"github.com/fakeyudi/calltree/internal/tree"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	rootStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	branchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	collapsedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// ── Messages ────────────

// ReloadMsg replaces the displayed artifact; `view --watch` sends it when the
// trace file changes on disk.
type ReloadMsg struct {
	Artifact *trace.Trace
}

// ReloadFailedMsg reports a failed reload; the current artifact stays up.
type ReloadFailedMsg struct {
	Err error
}

// ── Model ────────────

// row is one visible line of the tree, after collapsing.
type row struct {
	id    tree.NodeID
	name  string
	depth int
	kids  int
}

// Model is the root Bubble Tea model for the call tree browser.
type Model struct {
	artifact  *trace.Trace
	tree      *tree.Tree
	filename  string
	rows      []row
	cursor    int
	collapsed map[tree.NodeID]bool
	vp        viewport.Model
	width     int
	height    int
	ready     bool
	status    string
}

// New creates a browser for the given artifact and source filename.
// The artifact must rebuild into a valid tree.
func New(artifact *trace.Trace, filename string) (Model, error) {
	t, err := artifact.Tree()
	if err != nil {
		return Model{}, err
	}
	m := Model{
		artifact:  artifact,
		tree:      t,
		filename:  filepath.Base(filename),
		collapsed: make(map[tree.NodeID]bool),
	}
	m.rebuildRows()
	return m, nil
}

// rebuildRows flattens the tree into visible rows, skipping the subtrees of
// collapsed nodes.
func (m *Model) rebuildRows() {
	m.rows = m.rows[:0]
	var visit func(id tree.NodeID, depth int)
	visit = func(id tree.NodeID, depth int) {
		n, _ := m.tree.Node(id)
		kids := m.tree.Children(id)
		m.rows = append(m.rows, row{id: id, name: n.Name, depth: depth, kids: len(kids)})
		if m.collapsed[id] {
			return
		}
		for _, kid := range kids {
			visit(kid, depth+1)
		}
	}
	visit(tree.RootID, 0)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
}

// ── Bubble Tea interface ────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.syncViewport()
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.syncViewport()
			}
		case "enter", " ":
			r := m.rows[m.cursor]
			if r.kids > 0 {
				m.collapsed[r.id] = !m.collapsed[r.id]
				if !m.collapsed[r.id] {
					delete(m.collapsed, r.id)
				}
				m.rebuildRows()
				m.syncViewport()
			}
		case "c":
			for _, n := range m.tree.Nodes() {
				if len(m.tree.Children(n.ID)) > 0 && n.ID != tree.RootID {
					m.collapsed[n.ID] = true
				}
			}
			m.rebuildRows()
			m.syncViewport()
		case "e":
			m.collapsed = make(map[tree.NodeID]bool)
			m.rebuildRows()
			m.syncViewport()
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// title(1) + status(1) fixed rows
		h := m.height - 2
		if h < 1 {
			h = 1
		}
		m.vp = viewport.New(m.width, h)
		m.syncViewport()
		return m, nil

	case ReloadMsg:
		t, err := msg.Artifact.Tree()
		if err != nil {
			m.status = "reload failed: " + err.Error()
			return m, nil
		}
		m.artifact = msg.Artifact
		m.tree = t
		m.collapsed = make(map[tree.NodeID]bool)
		m.status = "reloaded"
		m.rebuildRows()
		m.syncViewport()
		return m, nil

	case ReloadFailedMsg:
		m.status = "reload failed: " + msg.Err.Error()
		return m, nil
	}
	return m, nil
}

func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.vp.SetContent(m.renderRows())
	// Keep the cursor row inside the viewport.
	if m.cursor < m.vp.YOffset {
		m.vp.SetYOffset(m.cursor)
	} else if m.cursor >= m.vp.YOffset+m.vp.Height {
		m.vp.SetYOffset(m.cursor - m.vp.Height + 1)
	}
}

func (m *Model) renderRows() string {
	var sb strings.Builder
	for i, r := range m.rows {
		indent := strings.Repeat("  ", r.depth)
		marker := "  "
		if r.kids > 0 {
			if m.collapsed[r.id] {
				marker = branchStyle.Render("▸ ")
			} else {
				marker = branchStyle.Render("▾ ")
			}
		}

		label := r.name
		if m.collapsed[r.id] {
			label += collapsedStyle.Render(fmt.Sprintf(" (+%d)", subtreeSize(m.tree, r.id)-1))
		}

		line := indent + marker + label
		switch {
		case i == m.cursor:
			line = selectedRowStyle.Width(m.width).Render(line)
		case r.depth == 0:
			line = rootStyle.Render(line)
		default:
			line = funcStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// subtreeSize counts id and all its descendants.
func subtreeSize(t *tree.Tree, id tree.NodeID) int {
	n := 1
	for _, kid := range t.Children(id) {
		n += subtreeSize(t, kid)
	}
	return n
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  calltree  " + m.filename)

	hint := "  ↑/↓ move  enter fold  c collapse all  e expand  q quit"
	right := fmt.Sprintf("%d calls, depth cap %d", len(m.artifact.Nodes)-1, m.artifact.MaxDepth)
	if m.artifact.Interrupted {
		right = warnStyle.Render("interrupted") + "  " + right
	}
	if m.status != "" {
		right = m.status + "  " + right
	}
	pad := m.width - lipgloss.Width(hint) - lipgloss.Width(right) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + right)

	return lipgloss.JoinVertical(lipgloss.Left, title, m.vp.View(), statusBar)
}

// Run starts the TUI for the given artifact. The returned program handle is
// live for the duration of the call via onStart, which lets the caller wire
// asynchronous senders such as a file watcher.
func Run(artifact *trace.Trace, filename string, onStart func(p *tea.Program)) error {
	m, err := New(artifact, filename)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if onStart != nil {
		onStart(p)
	}
	_, err = p.Run()
	return err
}
