package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/stackapi/cmd/stackapi/commands"
	"github.com/fivetwenty-io/stackapi/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "stackapi",
	Short: "Cloud control-plane CLI",
	Long: `A command-line interface for a multi-service cloud control plane.

It covers identity, images, networking, compute, load balancing and
orchestration, and can send arbitrary requests to any configured service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.stackapi/config.yml)")
	rootCmd.PersistentFlags().StringP("token", "t", "", "authentication token")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output, logs every remote call")
	rootCmd.PersistentFlags().Bool("debug", false, "log requests and responses")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-call timeout (default 20s)")
	rootCmd.PersistentFlags().String("request-id", "", "request id sent with every call (default: random)")
	rootCmd.PersistentFlags().String("nats-url", "", "publish call metrics to this NATS server")
	rootCmd.PersistentFlags().String("metrics-file", "", "write call metrics in Prometheus text format to this file")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("request_id", rootCmd.PersistentFlags().Lookup("request-id"))
	_ = viper.BindPFlag("nats_url", rootCmd.PersistentFlags().Lookup("nats-url"))
	_ = viper.BindPFlag("metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewImagesCommand())
	rootCmd.AddCommand(commands.NewNetworksCommand())
	rootCmd.AddCommand(commands.NewServersCommand())
	rootCmd.AddCommand(commands.NewPoolsCommand())
	rootCmd.AddCommand(commands.NewStacksCommand())
	rootCmd.AddCommand(commands.NewCallCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".stackapi")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		// Search config in ~/.stackapi/config.yml
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// STACKAPI_PASSWORD, STACKAPI_TOKEN, ...
	viper.SetEnvPrefix("STACKAPI")
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
