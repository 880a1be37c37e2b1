package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleetdeck/internal/command"
	"fleetdeck/internal/config"
	"fleetdeck/internal/session"
)

var panCmd = &cobra.Command{
	Use:   "pan <camera> <left|right|up|down>",
	Short: "Nudge a camera one step in a direction",
	Example: `  fleetdeck pan cam1 left
  fleetdeck pan cam2 up`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		addr := serverAddress()
		cameraID, dir := args[0], command.Direction(args[1])

		coord := session.New(session.Options{
			Client:         newTransport(),
			HealthInterval: viper.GetDuration(config.KeyHealthInterval),
			StreamPort:     viper.GetInt(config.KeyStreamPort),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		coord.SetAddress(ctx, addr)
		if err := coord.Refresh(ctx); err != nil {
			fmt.Printf("Error discovering cameras: %v\n", err)
			os.Exit(1)
		}

		if err := coord.IssueCommand(ctx, cameraID, dir); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Nudged %s %s.\n", cameraID, dir)
	},
}

func init() {
	rootCmd.AddCommand(panCmd)
}
