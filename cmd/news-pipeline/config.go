// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pdiddy/news-pipeline/internal/tokenize"
	"github.com/pdiddy/news-pipeline/pkg/types"
)

const (
	defaultLogLevel = "info"
	defaultDB       = "articles.db"
	defaultManifest = "pipeline-manifest.yaml"
)

func setDefaults() {
	viper.SetDefault("sources", types.DefaultSources)
	viper.SetDefault("dirs.extract", "extract")
	viper.SetDefault("dirs.transform", "transform")
	viper.SetDefault("dirs.load", "load")
	viper.SetDefault("extract.timeout", "0s")
	viper.SetDefault("load.timeout", "0s")
	viper.SetDefault("normalize.language", tokenize.DefaultLanguage)
	viper.SetDefault("manifest", defaultManifest)
}

// pipelineConfig assembles the orchestrator configuration from viper. When
// no loader is configured, the built-in load-db command of this binary is
// used with an absolute database path, since the loader runs inside the load
// directory.
func pipelineConfig() (types.PipelineConfig, error) {
	cfg := types.PipelineConfig{
		Sources: viper.GetStringSlice("sources"),
		Dirs: types.StageDirs{
			Extract:   viper.GetString("dirs.extract"),
			Transform: viper.GetString("dirs.transform"),
			Load:      viper.GetString("dirs.load"),
		},
		Extract: types.CommandConfig{
			Command: viper.GetStringSlice("extract.command"),
			Timeout: viper.GetDuration("extract.timeout"),
		},
		Load: types.CommandConfig{
			Command: viper.GetStringSlice("load.command"),
			Timeout: viper.GetDuration("load.timeout"),
		},
		Normalize: types.NormalizeConfig{
			Language: viper.GetString("normalize.language"),
		},
		ManifestPath: viper.GetString("manifest"),
	}

	if len(cfg.Load.Command) == 0 {
		loader, err := builtinLoader()
		if err != nil {
			return types.PipelineConfig{}, err
		}
		cfg.Load.Command = loader
	}
	return cfg, nil
}

// builtinLoader returns the argv of this binary's load-db command.
func builtinLoader() ([]string, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving executable for the built-in loader: %w", err)
	}
	db, err := filepath.Abs(viper.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("resolving database path: %w", err)
	}
	return []string{exe, "load-db", "--db", db, "--log-level", viper.GetString("log.level")}, nil
}
