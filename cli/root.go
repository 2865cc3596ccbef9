// Package cli implements reportctl, a command line client that files reports
// the way the mobile app does: photo, AI pre-fill, confirmation, local store.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is printed by the version command.
const Version = "reportctl v0.3.0"

// NewRootCommand builds the command tree. Settings resolve from flags, then
// REPORTCTL_* environment variables, then ~/.reportctl/config.yaml.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "reportctl",
		Short: "Ciudamos report client",
		Long: `reportctl classifies incident photos through the ciudamos AI service,
pre-fills a report draft and stores confirmed reports locally.

Example:
  reportctl classify bache.jpg
  reportctl submit bache.jpg --lat 19.4326 --lon=-99.1332
  reportctl list --authority-areas Infraestructura --urgency Alta`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.reportctl/config.yaml)")
	root.PersistentFlags().String("server", "http://localhost:3333", "ciudamos AI service base URL")
	root.PersistentFlags().String("store", "reportctl.db", "local sqlite report store")
	root.PersistentFlags().Duration("timeout", 0, "classification timeout (default 30s)")
	_ = v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("store", root.PersistentFlags().Lookup("store"))
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))

	root.AddCommand(
		newClassifyCommand(v),
		newSubmitCommand(v),
		newListCommand(v),
		newVersionCommand(),
	)
	return root
}

// Execute runs reportctl with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix("REPORTCTL")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(filepath.Join(home, ".reportctl"))
	v.SetConfigType("yaml")
	v.SetConfigName("config")
	// A missing default config file is fine.
	_ = v.ReadInConfig()
	return nil
}
