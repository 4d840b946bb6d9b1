package main

import (
	"os"
	"path/filepath"

	"github.com/calltrace/bddgen"
	"github.com/calltrace/bddgen/parser"
	"github.com/calltrace/bddgen/z3"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	cfg := bddgen.Config{}

	cmd := &cobra.Command{
		Use:   "build <call-path-file> ...",
		Short: "Build a BDD from call-path files and emit an init/process stub",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cfg, args)
		},
	}

	cmd.Flags().StringVar(&cfg.OutputDir, "output-dir", ".", "directory to write generated output into")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "verbose logging")

	return cmd
}

func runBuild(cfg bddgen.Config, files []string) error {
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

	transpiler := bddgen.NewTranspiler(toolbox, nil, nil)
	gen := bddgen.NewCodegen(transpiler, classes)

	init := gen.GenerateInit(bdd.Root)
	process := gen.GenerateProcess()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fatal(err)
	}
	out := filepath.Join(cfg.OutputDir, "generated.c")
	contents := init.Emit() + "\n" + process.Emit()
	if err := os.WriteFile(out, []byte(contents), 0o644); err != nil {
		return fatal(err)
	}

	log.Info().Str("output", out).Msg("generated program written")
	return nil
}
