package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skyline93/starcat/internal/builder"
	"github.com/skyline93/starcat/internal/compress"
)

var cmdBuild = &cobra.Command{
	Use:   "build [flags]",
	Short: "Build a catalog from a source star list",
	Long: `
The "build" command reads a CSV star list (ra_deg, dec_deg, magnitude,
pm_ra_mas_per_yr, pm_dec_mas_per_yr) and writes the immutable catalog
artifacts: per band a bloom filter, a tile index and a data blob, plus the
root manifest.

Bands are given as NAME:MAGMIN:MAGMAX:RESOLUTION, brightest first, e.g.
  --band bright:-2:6:1 --band mid:6:9:4 --band faint:9:12:8

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(buildOptions)
	},
}

// BuildOptions bundles all options for the build command.
type BuildOptions struct {
	Source      string
	Output      string
	Epoch       float64
	FPRate      float64
	Compression string
	Bands       []string
}

var buildOptions BuildOptions

func init() {
	cmdRoot.AddCommand(cmdBuild)

	f := cmdBuild.Flags()
	f.StringVar(&buildOptions.Source, "source", "", "source star list (CSV)")
	f.StringVar(&buildOptions.Output, "output", "", "catalog output directory")
	f.Float64Var(&buildOptions.Epoch, "epoch", 2016.0, "reference epoch as a decimal Julian year")
	f.Float64Var(&buildOptions.FPRate, "fp-rate", builder.DefaultFPRate, "existence filter false-positive rate")
	f.StringVar(&buildOptions.Compression, "compression", compress.Zstd, "band compression: none, zstd or lz4")
	f.StringArrayVar(&buildOptions.Bands, "band", nil, "band spec NAME:MAGMIN:MAGMAX:RESOLUTION (repeatable)")
}

func runBuild(opts BuildOptions) error {
	if opts.Source == "" || opts.Output == "" {
		return errors.New("--source and --output are required")
	}
	if len(opts.Bands) == 0 {
		return errors.New("at least one --band is required")
	}

	cfg := builder.Config{
		Epoch:  opts.Epoch,
		FPRate: opts.FPRate,
	}
	for _, spec := range opts.Bands {
		bc, err := parseBandSpec(spec)
		if err != nil {
			return err
		}
		bc.Compression = opts.Compression
		cfg.Bands = append(cfg.Bands, bc)
	}

	stars, err := builder.ReadCSV(opts.Source)
	if err != nil {
		return err
	}
	log.Infof("read %d stars from %v", len(stars), opts.Source)

	_, err = builder.Build(opts.Output, cfg, stars)
	return err
}

func parseBandSpec(spec string) (builder.BandConfig, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 4 {
		return builder.BandConfig{}, errors.Errorf("invalid band spec %q, want NAME:MAGMIN:MAGMAX:RESOLUTION", spec)
	}

	magMin, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return builder.BandConfig{}, errors.Wrapf(err, "band %q: mag min", parts[0])
	}
	magMax, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return builder.BandConfig{}, errors.Wrapf(err, "band %q: mag max", parts[0])
	}
	resolution, err := strconv.Atoi(parts[3])
	if err != nil {
		return builder.BandConfig{}, errors.Wrapf(err, "band %q: resolution", parts[0])
	}

	return builder.BandConfig{
		Name:       parts[0],
		MagMin:     magMin,
		MagMax:     magMax,
		Resolution: resolution,
	}, nil
}
