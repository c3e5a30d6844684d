package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/teng/runtime/builtins"
	"github.com/aledsdavies/teng/runtime/dictionary"
	"github.com/aledsdavies/teng/runtime/errlog"
	"github.com/aledsdavies/teng/runtime/escape"
	"github.com/aledsdavies/teng/runtime/fs"
	"github.com/aledsdavies/teng/runtime/parser"
)

// newDisasmCmd compiles a template and prints its byte-code, the CLI
// counterpart of the `<?teng bytecode ?>` directive.
func newDisasmCmd(noColor *bool) *cobra.Command {
	var (
		dictPath string
		cfgPath  string
		root     string
	)

	cmd := &cobra.Command{
		Use:   "disasm <template-file>",
		Short: "Compile a template and print its byte-code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := fs.NewLocalReader(root)

			dict := dictionary.New()
			if dictPath != "" {
				d, err := dictionary.Load(reader, dictPath)
				if err != nil {
					return fmt.Errorf("loading dictionary: %w", err)
				}
				dict = d
			}
			cfg := dictionary.NewConfig()
			if cfgPath != "" {
				c, err := dictionary.LoadConfig(reader, cfgPath)
				if err != nil {
					return fmt.Errorf("loading configuration: %w", err)
				}
				cfg = c
			}

			log := errlog.New(errlog.DefaultMaxPerPosition)
			c := parser.NewCompiler(reader, dict, cfg, escape.NewDefaultRegistry(), builtins.NewDefaultRegistry(), log)
			prog, err := c.CompileFile(args[0])
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}
			printLog(os.Stderr, log, shouldUseColor(*noColor))
			prog.Disassemble(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&dictPath, "dict", "", "Path to a dictionary file")
	cmd.Flags().StringVar(&cfgPath, "cfg", "", "Path to a configuration file")
	cmd.Flags().StringVar(&root, "root", ".", "Base directory template/dictionary/config paths are resolved against")

	return cmd
}
