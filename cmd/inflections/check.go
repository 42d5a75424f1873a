package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var checkStrict bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit the content store for duplicate numbers, slugs and broken links",
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
		rep, err := svc.Audit(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d issues, %d articles, %d findings\n", rep.Issues, rep.Articles, len(rep.Findings))
		for _, f := range rep.Findings {
			fmt.Fprintf(out, "  [%s] %s (%s)\n", f.Kind, f.Message, strings.Join(f.IDs, ", "))
		}
		if checkStrict && len(rep.Findings) > 0 {
			return fmt.Errorf("%d integrity findings", len(rep.Findings))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "exit non-zero when anything is found")
}
