// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns one raw article export into one clean dataset.
//
// The transform sequence is fixed: load, attach source identifier, derive
// host, backfill missing titles, assign uid, strip body newlines, count title
// and body tokens, deduplicate by title, drop incomplete rows, persist to
// clean_<filename> next to the raw file.
package normalize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pdiddy/news-pipeline/internal/dataset"
	"github.com/pdiddy/news-pipeline/internal/tokenize"
	"github.com/pdiddy/news-pipeline/pkg/types"
)

// Normalizer applies the cleaning recipe to raw datasets.
type Normalizer struct {
	tok *tokenize.Tokenizer
	log *slog.Logger
}

// New returns a Normalizer that counts tokens with cfg.Language stopwords.
func New(cfg types.NormalizeConfig, log *slog.Logger) (*Normalizer, error) {
	lang := cfg.Language
	if lang == "" {
		lang = tokenize.DefaultLanguage
	}
	tok, err := tokenize.New(lang)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{tok: tok, log: log}, nil
}

// Result is the outcome of normalizing one raw dataset.
type Result struct {
	Dataset   *types.Dataset
	RawPath   string
	CleanPath string
	SourceID  string

	Read             int
	TitlesBackfilled int
	UIDsReplaced     int
	Duplicates       int
	Incomplete       int
}

// Normalize cleans the dataset at rawPath and writes it to CleanPath(rawPath).
//
// A missing raw file returns a nil Result and an error wrapping
// types.ErrArtifactNotFound; nothing is written in that case.
func (n *Normalizer) Normalize(ctx context.Context, rawPath string) (*Result, error) {
	log := n.log.With("file", rawPath)
	log.Info("starting cleaning process")

	ds, err := dataset.ReadFile(rawPath)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Dataset:   ds,
		RawPath:   rawPath,
		CleanPath: CleanPath(rawPath),
		SourceID:  SourceID(rawPath),
		Read:      len(ds.Records),
	}
	log.Debug("read raw dataset", "records", res.Read)

	log.Debug("attaching newspaper uid", "newspaper_uid", res.SourceID)
	AttachSourceID(ds, res.SourceID)

	DeriveHosts(ds)
	res.TitlesBackfilled = BackfillTitles(ds)
	res.UIDsReplaced = AssignUIDs(ds)
	if res.UIDsReplaced > 0 {
		log.Warn("rows shared a url; later rows replaced earlier ones", "replaced", res.UIDsReplaced)
	}
	StripBodyNewlines(ds)
	CountTokens(ds, n.tok, types.ColTitle)
	CountTokens(ds, n.tok, types.ColBody)
	res.Duplicates = DedupeTitles(ds)
	res.Incomplete = DropIncomplete(ds)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", rawPath, err)
	}

	if err := dataset.WriteFile(res.CleanPath, ds); err != nil {
		return nil, err
	}

	log.Info("saved clean dataset",
		"clean_file", res.CleanPath,
		"records", len(ds.Records),
		"titles_backfilled", res.TitlesBackfilled,
		"duplicates", res.Duplicates,
		"incomplete", res.Incomplete,
	)
	return res, nil
}
