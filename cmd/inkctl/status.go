package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the server's embedding model state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	var status struct {
		Loaded  bool   `json:"loaded"`
		ModelID string `json:"model_id"`
		Device  string `json:"device"`
	}
	if err := newAPIClient().do("GET", "/v1/status", nil, &status); err != nil {
		return err
	}

	if !status.Loaded {
		cmd.Println("model: not loaded")
		return nil
	}
	cmd.Printf("model: %s (loaded, device %s)\n", status.ModelID, status.Device)
	return nil
}
