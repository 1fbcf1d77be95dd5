// Package cmd wires the wfgate subcommands. Hook subcommands (gate, update,
// track, enforce) speak the stdin/stdout JSON protocol and always exit zero;
// the inspection subcommands (status, report, tasksync, reset) are normal
// CLI commands for humans.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liwei-chen/wfgate/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "wfgate",
	Short: "Workflow enforcement hooks for agent delegation",
	Long: `wfgate enforces a develop, review, test workflow on coding agents.
Installed as pre- and post-invocation hooks, it blocks tool calls that skip
review or testing, tracks delegation discipline, and keeps the task
checklist in sync with the work actually done.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/wfgate/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/wfgate")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("WFGATE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., WFGATE_ENFORCEMENT_TEST_MODE for enforcement.test_mode
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
