// Command bddgen merges a set of call-path files into a BDD and, from
// it, a stub C-style init/process program.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bddgen",
		Short:         "Merge symbolic call paths into a behaviourally-equivalent decision diagram",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBuildCmd())
	root.AddCommand(newDumpCmd())
	return root
}

func fatal(err error) error {
	return errors.WithStack(err)
}
