package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	// Registers the built-in estimators so blueprints can name them.
	_ "github.com/braidml/braid/pkg/ops"
)

var (
	cfgFile      string
	outputFormat string
	dbPath       string
)

var rootCmd = &cobra.Command{
	Use:   "braid",
	Short: "Train, search and inspect braid pipelines",
	Long: `braid assembles machine-learning pipelines from YAML blueprints,
trains them on CSV datasets, searches over pipeline choices and keeps a
record of every trial.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.braid/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the trial database (default from config)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(filepath.Join(home, ".braid"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("braid")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if dbPath == "" {
			dbPath = viper.GetString("db")
		}
	}
	if dbPath == "" {
		dbPath = viper.GetString("db")
	}
}

// IsJSONOutput reports whether --output json was requested.
func IsJSONOutput() bool {
	return outputFormat == "json"
}

// DBPath returns the configured trial database path, possibly empty.
func DBPath() string {
	return dbPath
}
