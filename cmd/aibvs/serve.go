package main

import (
	"github.com/spf13/cobra"

	"aibvs/core/appbootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		return appbootstrap.Run(cfg, logger)
	},
}
