package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Keys understood in the config file and environment.
const (
	KeyServerAddress  = "server_address"
	KeyAPIUsername    = "api_username"
	KeyAPIPassword    = "api_password"
	KeyControlPort    = "control_port"
	KeyStreamPort     = "stream_port"
	KeyRequestTimeout = "request_timeout"
	KeyHealthInterval = "health_interval"
	KeyRedisHost      = "redis_host"
	KeyRedisPort      = "redis_port"
	KeyRedisChannel   = "redis_channel"
	KeyRedisUsername  = "redis_username"
	KeyRedisPassword  = "redis_password"
)

// Init reads in the config file and ENV variables if set.
func Init(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".fleetdeck" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".fleetdeck")
	}

	viper.SetDefault(KeyControlPort, 8000)
	viper.SetDefault(KeyStreamPort, 8889)
	viper.SetDefault(KeyRequestTimeout, 5*time.Second)
	viper.SetDefault(KeyHealthInterval, time.Second)
	viper.SetDefault(KeyRedisPort, 6379)
	viper.SetDefault(KeyRedisChannel, "log")

	viper.SetEnvPrefix("FLEETDECK")
	viper.AutomaticEnv() // read in environment variables that match

	_ = viper.ReadInConfig()
}
