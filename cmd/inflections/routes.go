package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inflections/internal/app"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List every public page currently reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		svc, err := b.content(cfg, log)
		if err != nil {
			return err
		}
		rb := &app.RouteBuilder{Content: svc}
		for _, r := range rb.BuildAll(cmd.Context()) {
			fmt.Fprintln(cmd.OutOrStdout(), r.String())
		}
		return nil
	},
}
