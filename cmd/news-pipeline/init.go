// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the stage directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pipelineConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		for _, dir := range []string{cfg.Dirs.Extract, cfg.Dirs.Transform, cfg.Dirs.Load} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
			fmt.Fprintf(os.Stdout, "created: %s\n", dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
