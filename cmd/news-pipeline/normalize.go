// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/news-pipeline/internal/normalize"
	"github.com/pdiddy/news-pipeline/pkg/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <raw-file>",
	Short: "Clean one raw export into a clean_ dataset",
	Long: `Normalize cleans a single raw export and writes clean_<filename> next to
it. The cleaned records and the elapsed time are printed. A missing raw file
is reported and the command still exits zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().String("language", "", "stopword language for token counts (default from normalize.language)")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	start := time.Now()

	lang, _ := cmd.Flags().GetString("language")
	if lang == "" {
		lang = viper.GetString("normalize.language")
	}
	n, err := normalize.New(types.NormalizeConfig{Language: lang}, logger)
	if err != nil {
		return err
	}

	res, err := n.Normalize(cmd.Context(), args[0])
	if errors.Is(err, types.ErrArtifactNotFound) {
		logger.Warn("unable to generate the dataset", "file", args[0], "error", err)
		fmt.Fprintf(os.Stdout, "\nElapsed: %s\n", time.Since(start).Round(time.Millisecond))
		return nil
	}
	if err != nil {
		return err
	}

	printDataset(os.Stdout, res)
	fmt.Fprintf(os.Stdout, "\nElapsed: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func printDataset(w io.Writer, res *normalize.Result) {
	fmt.Fprintf(w, "%-32s  %-14s  %-40s  %6s  %6s\n", "uid", "newspaper_uid", "title", "title#", "body#")
	fmt.Fprintln(w, strings.Repeat("-", 106))
	for _, r := range res.Dataset.Records {
		fmt.Fprintf(w, "%-32s  %-14s  %-40s  %6d  %6d\n",
			r.UID, truncate(r.NewspaperUID, 14), truncate(r.Title.String, 40),
			r.NTokensTitle.Int64, r.NTokensBody.Int64)
	}
	fmt.Fprintf(w, "\n%d records (read %d, titles backfilled %d, duplicates %d, incomplete %d) -> %s\n",
		res.Dataset.Len(), res.Read, res.TitlesBackfilled, res.Duplicates, res.Incomplete, res.CleanPath)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
