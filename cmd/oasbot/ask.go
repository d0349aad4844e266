package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erraggy/oasbot/router"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask ACTION [key=value...]",
		Short: "Ask a question the way the webhook would",
		Long: `Run one webhook action locally and print the answer.

Actions:
  api.list                       list registered APIs
  api.create      api= url=      register an API
  api.info        api= data=     a metadata field, or paths/operations/definitions
  api.object-definition  api= object=
  api.operation   api= operation=
  api.path        api= path=

Examples:
  oasbot ask api.list
  oasbot ask api.info api=petstore data=title
  oasbot ask api.object-definition api=petstore object=pet
  oasbot ask api.path api=petstore path=/pets --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			a, err := opts.setup(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			rt := router.New(a.engine, router.WithLogger(a.logger))
			payload := rt.Handle(cmd.Context(), &router.Request{Action: args[0], Parameters: params})

			if asJSON {
				enc := json.NewEncoder(opts.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			}
			_, err = fmt.Fprintln(opts.stdout, payload.DisplayText)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full webhook response")
	return cmd
}

// parseParams turns key=value arguments into webhook parameters.
func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}
