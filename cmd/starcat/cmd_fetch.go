package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skyline93/starcat/internal/fetch"
)

var cmdFetch = &cobra.Command{
	Use:   "fetch [flags]",
	Short: "Download or update a catalog from a remote store",
	Long: `
The "fetch" command downloads a prebuilt catalog from an HTTP artifact store.
Artifacts already present with matching checksums are skipped; transient
failures are retried with exponential backoff.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd, fetchOptions)
	},
}

// FetchOptions bundles all options for the fetch command.
type FetchOptions struct {
	URL     string
	Catalog string
}

var fetchOptions FetchOptions

func init() {
	cmdRoot.AddCommand(cmdFetch)

	f := cmdFetch.Flags()
	f.StringVar(&fetchOptions.URL, "url", "", "catalog base URL")
	f.StringVar(&fetchOptions.Catalog, "catalog", "", "local catalog directory")
}

func runFetch(cmd *cobra.Command, opts FetchOptions) error {
	if opts.URL == "" || opts.Catalog == "" {
		return errors.New("--url and --catalog are required")
	}

	return fetch.New(opts.URL).Sync(cmd.Context(), opts.Catalog)
}
