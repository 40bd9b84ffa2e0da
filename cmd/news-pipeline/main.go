// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the news-pipeline CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/news-pipeline/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured from log.level before any command runs.
var logger = slog.Default()

// rootCmd is the base command for the news-pipeline CLI.
var rootCmd = &cobra.Command{
	Use:   "news-pipeline",
	Short: "Extract, clean and load news articles",
	Long: `news-pipeline drives a three-stage ETL over newspaper articles. For each
configured source it runs a scraper (extract), cleans the raw export into a
dataset (transform), and hands the clean dataset to a loader (load).

Stages exchange files through the extract, transform and load directories.
Use run for the whole pipeline or extract, transform and load for one stage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := viper.GetString("log.level")
		if _, err := logging.ParseLevel(level); err != nil {
			return err
		}
		logger = logging.New(level, os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./news-pipeline.yaml or ~/.config/news-pipeline/news-pipeline.yaml)")
	rootCmd.PersistentFlags().String("log-level", defaultLogLevel, "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("db", defaultDB, "SQLite database used by the built-in loader")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("news-pipeline")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "news-pipeline"))
		}
	}

	setDefaults()

	viper.SetEnvPrefix("NEWS_PIPELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
