package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/calltree/internal/trace"
	"github.com/fakeyudi/calltree/internal/tui"
)

var (
	viewPlain bool
	viewWatch bool
)

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "View a saved trace artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		store := trace.NewDiskStore(path)

		artifact, err := store.Load()
		if err != nil {
			if errors.Is(err, trace.ErrNoTrace) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		// Non-interactive output: no TUI, no color.
		if viewPlain || !term.IsTerminal(os.Stdout.Fd()) {
			r := &trace.TextRenderer{Color: false}
			out, err := r.Render(artifact)
			if err != nil {
				return err
			}
			cmd.OutOrStdout().Write(out)
			return nil
		}

		var onStart func(p *tea.Program)
		if viewWatch {
			onStart = func(p *tea.Program) {
				go watchTrace(path, store, p)
			}
		}
		return tui.Run(artifact, path, onStart)
	},
}

// watchTrace reloads the artifact whenever the file changes and pushes it
// into the running TUI. The store saves via rename, so the watch is on the
// directory rather than the file itself.
func watchTrace(path string, store trace.Store, p *tea.Program) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		p.Send(tui.ReloadFailedMsg{Err: err})
		return
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		p.Send(tui.ReloadFailedMsg{Err: err})
		return
	}

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			artifact, err := store.Load()
			if err != nil {
				p.Send(tui.ReloadFailedMsg{Err: err})
				continue
			}
			p.Send(tui.ReloadMsg{Artifact: artifact})

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			p.Send(tui.ReloadFailedMsg{Err: err})
		}
	}
}

func init() {
	viewCmd.Flags().BoolVar(&viewPlain, "plain", false, "plain text output instead of TUI")
	viewCmd.Flags().BoolVar(&viewWatch, "watch", false, "reload the view when the file changes")
	rootCmd.AddCommand(viewCmd)
}
