package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erraggy/oasbot"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if verbose {
				_, err := fmt.Fprintln(opts.stdout, oasbot.BuildInfo())
				return err
			}
			_, err := fmt.Fprintf(opts.stdout, "oasbot %s\n", oasbot.Version())
			return err
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include commit, build time and Go version")
	return cmd
}
