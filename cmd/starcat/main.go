package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

// cmdRoot is the base command when no other command has been specified.
var cmdRoot = &cobra.Command{
	Use:   "starcat",
	Short: "Build, sync and query tiered star catalogs",
	Long: `
starcat manages the tiered star-catalog storage engine: a read-only binary
database of stars, spatially tiled and split into magnitude bands, with a
per-band existence filter gating disk reads.

Catalogs are built offline from a source star list and consumed read-only in
the field.
`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(0)
	},
}

func main() {
	if err := cmdRoot.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
