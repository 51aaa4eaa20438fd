// Command augment resolves records and prints blueprint schemas from files
// on disk.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "augment",
		Short:        "Resolve layered record values and describe blueprints",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newResolveCmd(), newSchemaCmd(), newImportCmd())
	return rootCmd
}
