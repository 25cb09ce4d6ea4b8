// Command purrpal is a terminal client for the PurrPal API.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/purrpal/purrpal/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	if err := newRootCommand(viper.New()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "purrpal",
		Short: "PurrPal command line client",
		Long: `PurrPal CLI - check your cat's symptoms from the terminal.

Examples:
  purrpal login --email you@example.com
  purrpal diagnose --name Milo --age "2 tahun" --gender male
  purrpal health`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.purrpal.yaml)")
	root.PersistentFlags().String("api-url", "http://localhost:5000", "PurrPal API base URL")
	root.PersistentFlags().Duration("timeout", 2*time.Minute, "HTTP timeout")
	v.BindPFlag("api_url", root.PersistentFlags().Lookup("api-url"))
	v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))

	v.SetEnvPrefix("PURRPAL")
	v.AutomaticEnv()

	root.AddCommand(newLoginCommand(v))
	root.AddCommand(newDiagnoseCommand(v))
	root.AddCommand(newHealthCommand(v))
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

// loadConfig reads the config file if present. A missing file is fine; login
// creates it.
func loadConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".purrpal.yaml")
	}
	v.SetConfigFile(cfgFile)

	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	return nil
}

func newClient(v *viper.Viper) *client.Client {
	c := client.New(v.GetString("api_url"), v.GetDuration("timeout"))
	c.SetToken(v.GetString("token"))
	return c
}
