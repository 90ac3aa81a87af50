// Command triggerd serves a trigger endpoint over HTTP.
//
//	triggerd serve --addr :8080 --config trigger.yaml
//
// Jobs are attached by embedding programs; triggerd on its own answers the
// backend's discovery, ping and registration calls and is mostly useful for
// wiring checks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configFile string
	listenAddr string
	register   bool
	auditLog   bool
	relay      bool
)

var rootCmd = &cobra.Command{
	Use:           "triggerd",
	Short:         "Serve a trigger endpoint",
	Long:          "triggerd exposes the trigger endpoint protocol over HTTP and optionally registers the endpoint with the backend on startup.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the endpoint HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (YAML); environment variables prefixed TRIGGER_ override it")

	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().BoolVar(&register, "register", false, "Register the endpoint with the backend once the server is listening")
	serveCmd.Flags().BoolVar(&auditLog, "audit", false, "Log audit events for endpoint activity")
	serveCmd.Flags().BoolVar(&relay, "relay", false, "Relay run lifecycle events to the backend as events")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
