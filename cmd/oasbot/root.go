package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/erraggy/oasbot/fetch"
	"github.com/erraggy/oasbot/internal/config"
	"github.com/erraggy/oasbot/internal/logging"
	"github.com/erraggy/oasbot/internal/mcpserver"
	"github.com/erraggy/oasbot/query"
	"github.com/erraggy/oasbot/registry"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string

	stdout io.Writer
	stderr io.Writer

	// loader is owned by one root command so flag bindings stay local to it
	loader *config.Loader
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr, loader: config.NewLoader()}

	cmd := &cobra.Command{
		Use:   "oasbot",
		Short: "Answer questions about Swagger 2.0 documents",
		Long: `oasbot keeps a registry of named Swagger 2.0 document URLs and answers
questions about them: metadata fields, paths, operations and object
definitions together with the operations that use them.

Documents are fetched on every question, so answers always reflect what is
currently published.

Configuration is read from oasbot.yaml (or --config), a .env file and
OASBOT_* environment variables, e.g. OASBOT_REGISTRY_DRIVER=bolt.

Examples:
  oasbot apis add petstore https://petstore.swagger.io/v2/swagger.json
  oasbot ask api.info api=petstore data=title
  oasbot serve --port 8080
  oasbot mcp`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is ./oasbot.yaml or $HOME/.oasbot/oasbot.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text, json or slog")
	opts.bind("logging.level", cmd, "log-level")
	opts.bind("logging.format", cmd, "log-format")

	cmd.AddCommand(
		newServeCmd(opts),
		newMCPCmd(opts),
		newAPIsCmd(opts),
		newAskCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

// bind ties a flag of cmd to a config key. Flags are defined in code, so a
// missing one is a programming error.
func (o *rootOptions) bind(key string, cmd *cobra.Command, name string) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	if err := o.loader.BindFlag(key, flag); err != nil {
		panic(err)
	}
}

// addAllowPrivateFlag defines --allow-private on cmd. serve and mcp share the
// fetch.allow_private key, so each binds the flag when it runs rather than
// when it is built.
func addAllowPrivateFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("allow-private", false, "allow fetching documents from private and loopback addresses")
}

// safeClient returns the SSRF-guarded client unless private addresses are
// allowed.
func safeClient(cfg *config.Config) *http.Client {
	if cfg.Fetch.AllowPrivate {
		return nil
	}
	return mcpserver.NewSafeHTTPClient(cfg.Fetch.Timeout)
}

// app is the wired object graph a command works with.
type app struct {
	cfg    *config.Config
	logger logging.Logger
	reg    registry.Registry
	engine *query.Engine
}

// setup loads the configuration, opens the registry and builds the engine.
// When client is non-nil and returns a client, it replaces the default fetch
// client.
func (o *rootOptions) setup(ctx context.Context, client func(*config.Config) *http.Client) (*app, error) {
	cfg, err := o.loader.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.LoggingOptions())
	if used := o.loader.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", "path", used)
	}

	reg, err := registry.Open(ctx, cfg.RegistryOptions(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	fetchOpts := cfg.FetchOptions(logger)
	if client != nil {
		if c := client(cfg); c != nil {
			fetchOpts = append(fetchOpts, fetch.WithHTTPClient(c))
		}
	}
	engine := query.New(reg, fetch.New(fetchOpts...),
		query.WithLogger(logger),
		query.WithFetchTimeout(cfg.Fetch.Timeout),
	)

	return &app{cfg: cfg, logger: logger, reg: reg, engine: engine}, nil
}

func (a *app) Close() {
	if err := a.reg.Close(); err != nil {
		a.logger.Warn("failed to close registry", "error", err)
	}
}
