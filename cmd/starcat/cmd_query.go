package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skyline93/starcat/internal/catalog"
)

var cmdQuery = &cobra.Command{
	Use:   "query [flags]",
	Short: "Query stars in a sky cone",
	Long: `
The "query" command returns proper-motion-corrected stars within a sky cone,
down to a faintest magnitude, from a local catalog directory.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, queryOptions)
	},
}

// QueryOptions bundles all options for the query command.
type QueryOptions struct {
	Catalog     string
	RA          float64
	Dec         float64
	Radius      float64
	FaintestMag float32
	Verify      bool
}

var queryOptions QueryOptions

func init() {
	cmdRoot.AddCommand(cmdQuery)

	f := cmdQuery.Flags()
	f.StringVar(&queryOptions.Catalog, "catalog", "", "catalog directory")
	f.Float64Var(&queryOptions.RA, "ra", 0, "cone center right ascension, degrees")
	f.Float64Var(&queryOptions.Dec, "dec", 0, "cone center declination, degrees")
	f.Float64Var(&queryOptions.Radius, "radius", 1, "cone radius, degrees")
	f.Float32Var(&queryOptions.FaintestMag, "mag", 6.5, "faintest magnitude to return")
	f.BoolVar(&queryOptions.Verify, "verify", false, "verify artifact checksums before querying")
}

func runQuery(cmd *cobra.Command, opts QueryOptions) error {
	if opts.Catalog == "" {
		return errors.New("--catalog is required")
	}

	c, err := catalog.Open(opts.Catalog, catalog.Options{VerifyOnOpen: opts.Verify})
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	stars := c.ConeQuery(cmd.Context(), opts.RA, opts.Dec, opts.Radius, opts.FaintestMag, time.Now())

	fmt.Printf("%-12s %-12s %s\n", "ra_deg", "dec_deg", "mag")
	for _, s := range stars {
		fmt.Printf("%-12.6f %-12.6f %.1f\n", s.RADeg, s.DecDeg, s.Mag)
	}

	st := c.Stats()
	fmt.Printf("\n%d stars in %v (%d tiles considered, %d filtered, %d read, %d bytes)\n",
		len(stars), time.Since(start).Round(time.Microsecond),
		st.TilesConsidered, st.FilterRejected, st.TilesRead, st.BytesRead)

	return nil
}
