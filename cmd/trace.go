package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/calltree/internal/replay"
	"github.com/fakeyudi/calltree/internal/trace"
	"github.com/fakeyudi/calltree/internal/tracer"
	"github.com/fakeyudi/calltree/internal/tree"
)

var (
	traceDepth  int
	traceInput  string
	traceOutput string
	traceFormat string
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Reconstruct a call tree from a recorded pause log",
	Long: `Replays a recorded pause log through the stepping state machine,
rebuilding the call tree the target executed, then renders it and saves the
trace artifact. Record logs with the gdb helper in scripts/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		depth := GetConfig().Depth()
		if cmd.Flags().Changed("depth") {
			depth = traceDepth
		}

		in, err := os.Open(traceInput)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("pause log not found: %s", traceInput)
			}
			return err
		}
		defer in.Close()

		records, err := replay.Parse(in)
		if err != nil {
			return err
		}

		// The session hands the tree back on every terminal path, so a
		// mid-session abort still leaves us the partial result.
		var result *tree.Tree
		var sessionErr error
		h := replay.NewHost(records)
		_, err = tracer.Begin(h, tracer.Options{
			MaxDepth: depth,
			OnFinish: func(t *tree.Tree, err error) {
				result = t
				sessionErr = err
			},
		})
		if err != nil {
			return err
		}
		h.Run()

		artifact := trace.FromTree(result, depth, sessionErr != nil)

		format := traceFormat
		if format == "" {
			format = GetConfig().DefaultFormat
		}
		var renderer trace.Renderer
		switch format {
		case "json":
			renderer = &trace.JSONRenderer{}
		case "text", "":
			renderer = &trace.TextRenderer{
				Color: term.IsTerminal(os.Stdout.Fd()) && !GetConfig().ColorDisabled(),
			}
		default:
			return fmt.Errorf("unknown format %q (want text or json)", format)
		}

		out, err := renderer.Render(artifact)
		if err != nil {
			return fmt.Errorf("render trace: %w", err)
		}
		cmd.OutOrStdout().Write(out)

		outputPath := traceOutput
		if outputPath == "" {
			outputDir := GetConfig().OutputDir
			if outputDir == "" {
				outputDir = "."
			}
			outputPath = filepath.Join(outputDir,
				"calltree-"+time.Now().Format("20060102-150405")+".json")
		}
		if err := trace.NewDiskStore(outputPath).Save(artifact); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Trace saved: %s\n", outputPath)

		if sessionErr != nil {
			return fmt.Errorf("tracing aborted, partial tree saved: %w", sessionErr)
		}
		return nil
	},
}

func init() {
	traceCmd.Flags().IntVarP(&traceDepth, "depth", "d", 2, "maximum call depth to descend into")
	traceCmd.Flags().StringVarP(&traceInput, "input", "i", "", "pause log to replay (JSON Lines)")
	traceCmd.Flags().StringVarP(&traceOutput, "output", "o", "", "trace artifact path (default: calltree-<timestamp>.json in the output dir)")
	traceCmd.Flags().StringVar(&traceFormat, "format", "", "render format: text or json (overrides config)")
	traceCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(traceCmd)
}
