package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/teng/runtime/engine"
	"github.com/aledsdavies/teng/runtime/fs"
)

func newRenderCmd(noColor *bool) *cobra.Command {
	var (
		inline      string
		dictPath    string
		cfgPath     string
		contentType string
		encoding    string
		dataPath    string
		root        string
		output      string
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "render [template-file]",
		Short: "Render a Teng template to stdout or a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var template engine.Source
			switch {
			case inline != "":
				template = engine.Inline(inline)
			case len(args) == 1:
				template = engine.File(args[0])
			default:
				return fmt.Errorf("a template file argument or --inline is required")
			}

			dict := engine.Default
			if dictPath != "" {
				dict = engine.File(dictPath)
			}
			cfg := engine.Default
			if cfgPath != "" {
				cfg = engine.File(cfgPath)
			}

			dataRoot, err := loadDataRoot(dataPath)
			if err != nil {
				return err
			}

			reader := fs.NewLocalReader(root)
			e := engine.New(reader)
			if watch {
				if _, err := e.EnableWatch(); err != nil {
					return fmt.Errorf("enabling file watch: %w", err)
				}
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			log := e.NewLog()
			ok, err := e.Render(template, dict, cfg, contentType, encoding, dataRoot, w, log)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			printLog(os.Stderr, log, shouldUseColor(*noColor))
			if !ok {
				return fmt.Errorf("render failed: a fatal error was logged")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inline, "inline", "", "Inline template text (overrides the template-file argument)")
	cmd.Flags().StringVar(&dictPath, "dict", "", "Path to a dictionary file")
	cmd.Flags().StringVar(&cfgPath, "cfg", "", "Path to a configuration file")
	cmd.Flags().StringVar(&contentType, "content-type", "text/plain", "Content type / escaping mode for the rendered output")
	cmd.Flags().StringVar(&encoding, "encoding", "utf-8", "Output text encoding")
	cmd.Flags().StringVar(&dataPath, "data", "", "Path to a JSON file populating the template's data root")
	cmd.Flags().StringVar(&root, "root", ".", "Base directory template/dictionary/config paths are resolved against")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, or - for stdout")
	cmd.Flags().BoolVar(&watch, "watch", false, "Invalidate caches on file change (fsnotify fast path)")

	return cmd
}
