package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skyline93/starcat/internal/bloom"
	"github.com/skyline93/starcat/internal/manifest"
	"github.com/skyline93/starcat/internal/tileindex"
)

var cmdInspect = &cobra.Command{
	Use:   "inspect [flags]",
	Short: "Show catalog structure and filter statistics",
	Long: `
The "inspect" command prints the manifest, per-band tile counts and the
estimated false-positive rate of each band's existence filter.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(inspectOptions)
	},
}

// InspectOptions bundles all options for the inspect command.
type InspectOptions struct {
	Catalog string
}

var inspectOptions InspectOptions

func init() {
	cmdRoot.AddCommand(cmdInspect)

	f := cmdInspect.Flags()
	f.StringVar(&inspectOptions.Catalog, "catalog", "", "catalog directory")
}

func runInspect(opts InspectOptions) error {
	if opts.Catalog == "" {
		return errors.New("--catalog is required")
	}

	man, err := manifest.Load(opts.Catalog)
	if err != nil {
		return err
	}

	fmt.Printf("catalog %s\n", man.ID)
	fmt.Printf("epoch   %.1f\n\n", man.Epoch)

	for i := range man.Bands {
		b := &man.Bands[i]

		filter, err := bloom.Load(b.FilterPath(opts.Catalog))
		if err != nil {
			return errors.Wrapf(err, "band %q", b.Name)
		}

		idx, err := tileindex.Read(b.IndexPath(opts.Catalog))
		if err != nil {
			return errors.Wrapf(err, "band %q", b.Name)
		}

		fmt.Printf("band %q: mag [%v, %v), %d tiles/deg, %s\n",
			b.Name, b.MagMin, b.MagMax, b.Resolution, b.Compression)
		fmt.Printf("  index: v%d, %d tiles, %d bytes\n", idx.Version(), idx.NumTiles(), b.Index.Size)
		fmt.Printf("  data:  %d bytes\n", b.Data.Size)

		if rate, ok := filter.ActualFPRate(); ok {
			fmt.Printf("  filter: %d bits, %d hashes, fp rate %.4f (configured %.4f)\n",
				filter.NumBits(), filter.NumHashes(), rate, filter.FPRate())
		} else {
			fmt.Printf("  filter: empty band\n")
		}
	}

	return nil
}
