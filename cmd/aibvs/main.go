package main

import (
	"fmt"
	"os"

	"aibvs/config"
	"aibvs/core/utils"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aibvs",
	Short: "Operations console for air-ground communication equipment",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd, userCmd, systemsCmd)
}

func loadRuntime() (*config.AppConfig, *utils.Logger, error) {
	logger := utils.NewLogger()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger, nil
}
