package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleetdeck/internal/config"
	"fleetdeck/internal/transport"
)

var cfgFile string
var jsonOutput bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fleetdeck",
	Short: "Control surface for a remote camera fleet",
	Long: `Register a fleet server, monitor its health, enumerate attached
cameras, stream their video, and pan each camera from one session.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() { config.Init(cfgFile) })

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fleetdeck.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().String("server", "", "Fleet server address (host or host:port)")
	_ = viper.BindPFlag(config.KeyServerAddress, rootCmd.PersistentFlags().Lookup("server"))
}

// newTransport builds the control-plane client from config. The
// credential comes from the config file or environment, never source.
func newTransport() *transport.Client {
	return transport.New(transport.Config{
		Username:    viper.GetString(config.KeyAPIUsername),
		Password:    viper.GetString(config.KeyAPIPassword),
		ControlPort: viper.GetInt(config.KeyControlPort),
		Timeout:     viper.GetDuration(config.KeyRequestTimeout),
	})
}

// serverAddress returns the configured address or exits with guidance.
func serverAddress() string {
	addr := viper.GetString(config.KeyServerAddress)
	if addr == "" {
		fmt.Println("Error: no server address configured. Pass --server or set server_address in the config file.")
		os.Exit(1)
	}
	return addr
}
