package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fleetdeck/pkg/models"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the fleet server's health endpoint once",
	Run: func(cmd *cobra.Command, args []string) {
		addr := serverAddress()

		var resp models.HealthResponse
		if err := newTransport().GetJSON(context.Background(), addr, "/health", nil, &resp); err != nil {
			fmt.Printf("Error: %s is unhealthy: %v\n", addr, err)
			os.Exit(1)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(resp)
			return
		}

		fmt.Printf("%s: %s\n", addr, resp.Message)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
