package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inflections/internal/app"
	"inflections/internal/build"
	"inflections/internal/render"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Export every public page as static HTML",
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
		tpl, err := render.NewTemplateRenderer()
		if err != nil {
			return err
		}
		builder := &build.Builder{
			Pages: &app.Pages{
				Site:     cfg.Site,
				Content:  svc,
				Markdown: render.NewMarkdownRenderer(),
				Log:      log,
			},
			Routes:   &app.RouteBuilder{Content: svc},
			Renderer: tpl,
			OutDir:   buildOut,
			Log:      log,
		}
		res, err := builder.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d pages to %s\n", res.Pages, buildOut)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildOut, "out", "public", "output directory")
}
