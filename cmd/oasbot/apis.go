package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/erraggy/oasbot/oaserrors"
	"github.com/erraggy/oasbot/query"
	"github.com/erraggy/oasbot/registry"
)

func newAPIsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apis",
		Short: "Manage the API registry",
		Long: `List, add and remove registered APIs.

Examples:
  oasbot apis list
  oasbot apis list --format json
  oasbot apis add petstore petstore.swagger.io/v2/swagger.json
  oasbot apis remove petstore`,
	}
	cmd.AddCommand(newAPIsListCmd(opts), newAPIsAddCmd(opts), newAPIsRemoveCmd(opts))
	return cmd
}

func newAPIsListCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.setup(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.reg.List(cmd.Context())
			if err != nil {
				return err
			}
			return printEntries(opts, format, entries)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}

func printEntries(opts *rootOptions, format string, entries []registry.Entry) error {
	switch format {
	case "json":
		if entries == nil {
			entries = []registry.Entry{}
		}
		enc := json.NewEncoder(opts.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text":
		if len(entries) == 0 {
			_, err := fmt.Fprintln(opts.stdout, "No APIs registered.")
			return err
		}
		tw := tabwriter.NewWriter(opts.stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "NAME\tURL\tCREATED")
		for _, e := range entries {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.URL, e.CreatedAt.Format("2006-01-02"))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (use text or json)", format)
	}
}

func newAPIsAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME URL",
		Short: "Register a Swagger 2.0 document",
		Long: `Register a Swagger 2.0 document under NAME.

The URL may omit its scheme; http:// and https:// are tried in turn. The
document must be reachable and valid Swagger 2.0, and neither NAME nor URL
may already be registered.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.Execute(cmd.Context(), query.CreateAPI{Name: args[0], URL: args[1]})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(opts.stdout, "Registered %s at %s\n", res.Entry.Name, res.Entry.URL)
			return err
		},
	}
}

func newAPIsRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove a registered API by exact name",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.reg.Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, oaserrors.ErrNoSuchAPI) {
					return fmt.Errorf("no api named %q", args[0])
				}
				return err
			}
			_, err = fmt.Fprintf(opts.stdout, "Removed %s\n", args[0])
			return err
		},
	}
}
