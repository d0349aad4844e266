package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/erraggy/oasbot/router"
	"github.com/erraggy/oasbot/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and registry HTTP server",
		Long: `Run the HTTP server.

Endpoints:
  POST   /webhook      conversational platform fulfillment
  GET    /healthz      health check
  GET    /apis         list registered APIs
  GET    /apis/:name   show one API
  POST   /apis         register an API (bearer token when server.api_token is set)
  DELETE /apis/:name   remove an API (bearer token when server.api_token is set)

Documents are fetched with a client that refuses private and loopback
addresses unless fetch.allow_private (--allow-private) is set. The server
shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.bind("fetch.allow_private", cmd, "allow-private")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().String("host", "", "listen host")
	cmd.Flags().Int("port", 8080, "listen port")
	cmd.Flags().Float64("rate-limit", 0, "requests per second per client, 0 disables")
	opts.bind("server.host", cmd, "host")
	opts.bind("server.port", cmd, "port")
	opts.bind("server.rate_limit", cmd, "rate-limit")
	addAllowPrivateFlag(cmd)
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions) error {
	a, err := opts.setup(ctx, safeClient)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("starting oasbot", "config", a.cfg.String())
	return newServer(a).Run(ctx)
}

func newServer(a *app) *server.Server {
	return server.New(a.cfg.ServerOptions(),
		router.New(a.engine, router.WithLogger(a.logger)),
		a.engine, a.reg,
		server.WithLogger(a.logger),
	)
}
