package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleetdeck/internal/config"
	"fleetdeck/internal/logtail"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail the fleet server's log channel",
	Long:  `Follow the Redis pub/sub log channel published by the fleet server until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		host := viper.GetString(config.KeyRedisHost)
		if host == "" {
			// Log channel rides on the same box as the control plane
			// unless configured otherwise.
			host = serverAddress()
		}

		tailer := logtail.New(logtail.Config{
			Host:     host,
			Port:     viper.GetInt(config.KeyRedisPort),
			Channel:  viper.GetString(config.KeyRedisChannel),
			Username: viper.GetString(config.KeyRedisUsername),
			Password: viper.GetString(config.KeyRedisPassword),
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		done := make(chan error, 1)
		go func() { done <- tailer.Run(ctx) }()

		for line := range tailer.Lines() {
			fmt.Println(line)
		}

		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
}
