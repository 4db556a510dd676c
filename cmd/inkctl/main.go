// Command inkctl is the command-line client for an inkwell server.
// It covers the everyday workflow: publishing markdown documents,
// searching them, and inspecting server state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "inkctl",
	Short: "Client for the inkwell blog platform",
	Long: `inkctl talks to a running inkwell server over its HTTP API.
Documents are markdown files; the first heading becomes the title and
the slug is derived from it.`,
	SilenceUsage: true,
}

func init() {
	defaultServer := os.Getenv("INKWELL_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer,
		"inkwell server base URL (env: INKWELL_SERVER)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
