package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/conductor/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "conductor",
	Short: "Multi-phase effort coordination engine",
	Long: `Conductor tracks a long-running effort as it moves through phased
sessions of work. Workers report progress through an append-only signal
log; conductor folds those signals into a durable state document and
tells the supervising coordinator which session to hand out next.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/conductor/config.yaml)")
	rootCmd.PersistentFlags().String("root", "", "storage root for effort state (default is $XDG_DATA_HOME/conductor)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
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
		viper.AddConfigPath("$HOME/.config/conductor")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CONDUCTOR")
	// Replace dots with underscores for nested keys in env vars
	// e.g., CONDUCTOR_LOG_LEVEL for log.level
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
