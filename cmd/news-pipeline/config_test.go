// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/news-pipeline/internal/normalize"
	"github.com/pdiddy/news-pipeline/pkg/types"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	t.Cleanup(viper.Reset)
}

func TestPipelineConfigDefaults(t *testing.T) {
	resetViper(t)
	viper.Set("db", "data/articles.db")

	cfg, err := pipelineConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, types.DefaultSources, cfg.Sources)
	assert.Equal(t, types.StageDirs{Extract: "extract", Transform: "transform", Load: "load"}, cfg.Dirs)
	assert.Empty(t, cfg.Extract.Command)
	assert.Equal(t, "spanish", cfg.Normalize.Language)
	assert.Equal(t, defaultManifest, cfg.ManifestPath)

	require.GreaterOrEqual(t, len(cfg.Load.Command), 4)
	assert.Equal(t, "load-db", cfg.Load.Command[1])
	assert.Equal(t, "--db", cfg.Load.Command[2])
	assert.True(t, filepath.IsAbs(cfg.Load.Command[3]))
	assert.Equal(t, "articles.db", filepath.Base(cfg.Load.Command[3]))
}

func TestPipelineConfigOverrides(t *testing.T) {
	resetViper(t)
	viper.Set("sources", []string{"elpais"})
	viper.Set("extract.command", []string{"python", "main.py"})
	viper.Set("extract.timeout", "90s")
	viper.Set("load.command", []string{"loader"})
	viper.Set("normalize.language", "english")

	cfg, err := pipelineConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"elpais"}, cfg.Sources)
	assert.Equal(t, []string{"python", "main.py"}, cfg.Extract.Command)
	assert.Equal(t, 90*time.Second, cfg.Extract.Timeout)
	assert.Equal(t, []string{"loader"}, cfg.Load.Command)
	assert.Equal(t, "english", cfg.Normalize.Language)
}

func TestPrintDataset(t *testing.T) {
	res := &normalize.Result{
		Dataset: &types.Dataset{Records: []types.ArticleRecord{{
			UID:          "0123456789abcdef0123456789abcdef",
			NewspaperUID: "elpais",
			Title:        sql.NullString{String: "Una nota", Valid: true},
			NTokensTitle: sql.NullInt64{Int64: 1, Valid: true},
			NTokensBody:  sql.NullInt64{Int64: 12, Valid: true},
		}}},
		Read:      3,
		CleanPath: "clean_elpais.csv",
	}

	var buf bytes.Buffer
	printDataset(&buf, res)

	out := buf.String()
	assert.Contains(t, out, "0123456789abcdef0123456789abcdef")
	assert.Contains(t, out, "Una nota")
	assert.Contains(t, out, "1 records (read 3")
	assert.Contains(t, out, "-> clean_elpais.csv")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "corto", truncate("corto", 10))
	assert.Equal(t, "informa...", truncate("información larga", 10))
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf, true)
	assert.Equal(t, version+"\n", buf.String())

	buf.Reset()
	printVersion(&buf, false)
	assert.Contains(t, buf.String(), "news-pipeline "+version+" (go")
	assert.Contains(t, buf.String(), "languages: [english spanish]")
}
