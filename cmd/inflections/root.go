package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"inflections/internal/domain/config"
	"inflections/internal/logger"
)

var (
	cfgFile string
	cfg     config.Config
	log     *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "inflections",
	Short: "Inflections magazine site",
	Long: `inflections serves the Inflections digital magazine from a tabular
content store (hosted, or a local bbolt database seeded from YAML).

Example usage:
  inflections serve            # run the site
  inflections seed             # load the seed directory into the local store
  inflections check            # report content integrity problems
  inflections routes           # list every public page
  inflections build            # export static HTML`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "site.yaml", "config file")

	rootCmd.AddCommand(serveCmd, seedCmd, checkCmd, routesCmd, buildCmd)
}

func initConfig() error {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log, err = logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	log.Debug("configuration loaded",
		"config", cfgFile,
		"driver", cfg.Store.Driver,
		"schema", cfg.Store.Schema,
		"cache_ttl", cfg.Cache.TTL,
	)
	return nil
}
