package main

import (
	"github.com/spf13/cobra"

	"github.com/erraggy/oasbot/internal/mcpserver"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the query tools over MCP (stdio)",
		Long: `Serve list_apis, register_api, spec_info, spec_object, spec_operation and
spec_path as Model Context Protocol tools over stdin/stdout.

Documents are fetched with a client that refuses private and loopback
addresses unless fetch.allow_private is set. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.bind("fetch.allow_private", cmd, "allow-private")
			a, err := opts.setup(cmd.Context(), safeClient)
			if err != nil {
				return err
			}
			defer a.Close()

			return mcpserver.New(a.engine,
				mcpserver.WithLogger(a.logger),
				mcpserver.WithListLimit(a.cfg.MCP.ListLimit),
			).Run(cmd.Context())
		},
	}
	addAllowPrivateFlag(cmd)
	return cmd
}
