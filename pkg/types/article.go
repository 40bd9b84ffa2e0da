// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the news-pipeline stages:
// article records and datasets, per-stage configuration, stage outcomes and
// the artifact manifest.
package types

import "database/sql"

// Canonical dataset column names. Raw exports carry at least ColURL and
// optionally ColTitle and ColBody; the remaining columns are derived by the
// normalizer.
const (
	ColUID          = "uid"
	ColURL          = "url"
	ColTitle        = "title"
	ColBody         = "body"
	ColNewspaperUID = "newspaper_uid"
	ColHost         = "host"
	ColTokensTitle  = "n_tokens_title"
	ColTokensBody   = "n_tokens_body"
)

// ArticleRecord is one row of a dataset.
type ArticleRecord struct {
	// UID is the hex MD5 digest of URL and the record's primary key.
	UID string `json:"uid" yaml:"uid"`

	// URL is the source-of-truth identity of the article. Empty means missing.
	URL string `json:"url" yaml:"url"`

	Title sql.NullString `json:"title" yaml:"title"`
	Body  sql.NullString `json:"body" yaml:"body"`

	// Host is the network authority of URL.
	Host string `json:"host" yaml:"host"`

	// NewspaperUID is the source identifier of the dataset the record came from.
	NewspaperUID string `json:"newspaper_uid" yaml:"newspaper_uid"`

	NTokensTitle sql.NullInt64 `json:"n_tokens_title" yaml:"n_tokens_title"`
	NTokensBody  sql.NullInt64 `json:"n_tokens_body" yaml:"n_tokens_body"`

	// Extra holds raw columns outside the canonical set, keyed by column name.
	Extra map[string]sql.NullString `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Complete reports whether the record has a value in every field, including
// the extra columns named in columns.
func (r ArticleRecord) Complete(columns []string) bool {
	if r.UID == "" || r.URL == "" || r.Host == "" || r.NewspaperUID == "" {
		return false
	}
	if !r.Title.Valid || !r.Body.Valid || !r.NTokensTitle.Valid || !r.NTokensBody.Valid {
		return false
	}
	for _, c := range columns {
		if !r.Extra[c].Valid {
			return false
		}
	}
	return true
}

// IsCanonical reports whether name is one of the canonical column names.
func IsCanonical(name string) bool {
	switch name {
	case ColUID, ColURL, ColTitle, ColBody, ColNewspaperUID, ColHost, ColTokensTitle, ColTokensBody:
		return true
	}
	return false
}

// Dataset is an ordered set of article records.
type Dataset struct {
	// Columns lists the columns of the source file in file order.
	Columns []string

	Records []ArticleRecord
}

// ExtraColumns returns the non-canonical columns in file order.
func (d *Dataset) ExtraColumns() []string {
	var extra []string
	for _, c := range d.Columns {
		if !IsCanonical(c) {
			extra = append(extra, c)
		}
	}
	return extra
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}
