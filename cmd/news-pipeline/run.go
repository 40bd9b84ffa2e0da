// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/news-pipeline/internal/normalize"
	"github.com/pdiddy/news-pipeline/internal/process"
	"github.com/pdiddy/news-pipeline/internal/stage"
	"github.com/pdiddy/news-pipeline/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run extract, transform and load for every configured source",
	Long: `Run executes the whole pipeline. Each stage finishes for all sources
before the next stage starts. A source that fails a stage is skipped by the
later stages; the other sources continue. The command exits non-zero when
any stage failed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd, types.Stages, nil)
	},
}

func newStageCmd(st types.Stage, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:   string(st) + " [identifiers...]",
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, []types.Stage{st}, args)
		},
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(newStageCmd(types.StageExtract,
		"Scrape sources and move raw exports to the transform directory",
		`Extract runs the configured scraper once per source inside the extract
directory, then moves the raw export it produced into the transform
directory. Without identifiers every configured source is processed.`))
	rootCmd.AddCommand(newStageCmd(types.StageTransform,
		"Clean raw exports and move clean datasets to the load directory",
		`Transform normalizes each source's raw export found in the transform
directory, deletes the raw export, and moves the clean_ dataset into the
load directory.`))
	rootCmd.AddCommand(newStageCmd(types.StageLoad,
		"Hand clean datasets to the loader",
		`Load runs the configured loader once per clean dataset inside the load
directory and deletes the dataset when the loader succeeds. A failed load
keeps the dataset for a retry.`))
}

func runStages(cmd *cobra.Command, stages []types.Stage, identifiers []string) error {
	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}
	if len(identifiers) == 0 {
		identifiers = cfg.Sources
	}

	n, err := normalize.New(cfg.Normalize, logger)
	if err != nil {
		return err
	}
	manifest, err := stage.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return err
	}

	o, err := stage.New(cfg, stage.Deps{
		Runner:      process.NewRunner(),
		Transformer: n,
		Manifest:    manifest,
		Log:         logger,
		Out:         os.Stdout,
	})
	if err != nil {
		return err
	}

	report := o.RunStages(cmd.Context(), stages, identifiers)
	if report.HasFailures() {
		return fmt.Errorf("%d stage run(s) failed", report.Count(types.OutcomeFailed))
	}
	return nil
}
