package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/calltrace/bddgen"
	"github.com/calltrace/bddgen/parser"
	"github.com/calltrace/bddgen/z3"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	cfg := bddgen.Config{}

	cmd := &cobra.Command{
		Use:   "dump <call-path-file> ...",
		Short: "Build a BDD from call-path files and print its structure",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cfg, args)
		},
	}
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "verbose logging")

	return cmd
}

func runDump(cfg bddgen.Config, files []string) error {
	log := cfg.Logger()

	paths := make([]*bddgen.CallPath, 0, len(files))
	for _, f := range files {
		file, err := os.Open(f)
		if err != nil {
			return fatal(err)
		}
		path, err := parser.Parse(filepath.Base(f), file)
		file.Close()
		if err != nil {
			return fatal(err)
		}
		paths = append(paths, path)
	}

	solver := z3.New()
	defer solver.Close()

	toolbox := bddgen.NewSolverToolbox(solver, log)
	classes := bddgen.DefaultFunctionClass()
	builder := bddgen.NewBuilder(toolbox, classes, log)

	bdd := builder.Build(paths)
	fmt.Println(bdd.Dump())
	return nil
}
