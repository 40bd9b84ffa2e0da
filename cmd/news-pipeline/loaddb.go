// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/news-pipeline/internal/store"
)

var loadDBCmd = &cobra.Command{
	Use:   "load-db <clean-file>",
	Short: "Load a clean dataset into the SQLite article store",
	Long: `Load-db is the built-in loader. It upserts every record of a clean
dataset into the articles table of the database given by --db, keyed by
uid, in a single transaction. Loading the same file twice updates rows
instead of duplicating them.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoadDB,
}

func init() {
	rootCmd.AddCommand(loadDBCmd)
}

func runLoadDB(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	summary, err := s.Load(ctx, args[0])
	if err != nil {
		return err
	}
	total, err := s.Count(ctx)
	if err != nil {
		return err
	}

	logger.Info("loaded clean dataset", "file", args[0], "inserted", summary.Inserted, "updated", summary.Updated)
	fmt.Fprintf(os.Stdout, "loaded: %s (inserted: %d, updated: %d, articles: %d)\n",
		args[0], summary.Inserted, summary.Updated, total)
	return nil
}
