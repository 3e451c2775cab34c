package main

import (
	"os"

	"github.com/spf13/cobra"

	"mailfeed/internal/app"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:          "mailfeed",
	Short:        "Receive mail over SMTP and publish it as RSS feeds",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SMTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Serve(configPath, debug)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the RSS files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Generate(configPath, debug)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug mode")
	rootCmd.AddCommand(serveCmd, generateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
