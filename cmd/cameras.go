package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleetdeck/internal/config"
	"fleetdeck/internal/directory"
	"fleetdeck/pkg/models"
)

// Parent Command
var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "Manage the camera fleet",
	Long:  `List discovered cameras or ask the server to re-attach them.`,
}

// List Command
var camerasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all discovered cameras",
	Run: func(cmd *cobra.Command, args []string) {
		addr := serverAddress()

		dir := directory.New(newTransport())
		if err := dir.Refresh(context.Background(), addr); err != nil {
			fmt.Printf("Error fetching cameras: %v\n", err)
			os.Exit(1)
		}

		printCameras(addr, dir.Cameras())
	},
}

// Reconnect Command
var camerasReconnectCmd = &cobra.Command{
	Use:   "reconnect",
	Short: "Ask the server to re-attach its cameras, then list them",
	Run: func(cmd *cobra.Command, args []string) {
		addr := serverAddress()

		dir := directory.New(newTransport())
		if err := dir.Reconnect(context.Background(), addr); err != nil {
			// A reconnect failure still leaves a listing attempt behind it.
			fmt.Printf("Warning: %v\n", err)
		}

		printCameras(addr, dir.Cameras())
	},
}

func printCameras(addr string, cameras []models.Camera) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cameras); err != nil {
			fmt.Printf("Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	streamPort := viper.GetInt(config.KeyStreamPort)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "HOSTNAME\tIP\tSTREAM")
	fmt.Fprintln(w, "--------\t--\t------")
	for _, cam := range cameras {
		fmt.Fprintf(w, "%s\t%s\thttp://%s:%d%s\n",
			cam.Hostname,
			cam.IP,
			addr,
			streamPort,
			cam.StreamPath,
		)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(camerasCmd)
	camerasCmd.AddCommand(camerasListCmd)
	camerasCmd.AddCommand(camerasReconnectCmd)
}
