// Command teng renders Teng templates from the command line: a thin CLI
// shell over runtime/engine, grounded on the teacher's cli/main.go (a single
// cobra root command reading flags, driving a pipeline, and writing errors
// through a shared formatter) and cmd/devcmd/main.go (a minimal CLI over a
// single compiler entry point, for the "disasm" subcommand).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/teng/runtime/errlog"
)

func main() {
	noColor := false

	rootCmd := &cobra.Command{
		Use:           "teng",
		Short:         "Render Teng templates",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored diagnostic output")

	rootCmd.AddCommand(newRenderCmd(&noColor))
	rootCmd.AddCommand(newDisasmCmd(&noColor))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorize("Error: ", colorRed, shouldUseColor(noColor))+err.Error())
		os.Exit(1)
	}
}

// printLog writes every entry of log to w, colored by level, matching the
// teacher's FormatError convention of a colored "Level: " prefix.
func printLog(w *os.File, log *errlog.Log, useColor bool) {
	for _, ent := range log.Entries() {
		color := colorGray
		switch ent.Level {
		case errlog.Warning, errlog.Diag:
			color = colorYellow
		case errlog.Error, errlog.Fatal:
			color = colorRed
		}
		pos := ""
		if ent.Pos.Filename != nil {
			pos = fmt.Sprintf("%s:%d:%d: ", *ent.Pos.Filename, ent.Pos.Line, ent.Pos.Column)
		}
		fmt.Fprintln(w, colorize(pos+ent.Level.String()+": ", color, useColor)+ent.Message)
	}
}
