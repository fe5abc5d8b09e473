// Package cmd implements the recall command-line interface.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "recall",
		Short: "Memory consolidation engine",
		Long: `recall consolidates conversation messages into a deduplicated,
vector-searchable memory store, keeping a rolling summary per
conversation and mirroring consolidated memories into an optional
graph database.`,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./recall.yml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("recall")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("RECALL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("store.backend", "chromem")
	viper.SetDefault("qdrant.endpoint", "http://localhost:6333")
	viper.SetDefault("qdrant.collection", "memories")
	viper.SetDefault("completion.provider", "anthropic")
	viper.SetDefault("embedding.cache_entries", 4096)
	viper.SetDefault("consolidation.top_k", 5)
	viper.SetDefault("consolidation.add_below", 0.45)
	viper.SetDefault("consolidation.update_ceiling", 0.65)
	viper.SetDefault("consolidation.noop_at_or_above", 0.85)
	viper.SetDefault("neo4j.username", "neo4j")

	// A missing config file is fine, env and defaults still apply.
	_ = viper.ReadInConfig()
}
