// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset reads and writes article datasets as delimited text with a
// header row. An empty cell is a missing value.
package dataset

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/news-pipeline/pkg/types"
)

// ErrMissingColumn is returned when a dataset lacks the url column.
var ErrMissingColumn = errors.New("dataset is missing required column")

// derivedColumns are written after the raw columns, in this order.
var derivedColumns = []string{
	types.ColNewspaperUID,
	types.ColHost,
	types.ColTokensTitle,
	types.ColTokensBody,
}

// ReadFile parses the dataset at path. A missing file yields an error
// wrapping types.ErrArtifactNotFound.
func ReadFile(path string) (*types.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading dataset %s: %w: %w", path, types.ErrArtifactNotFound, err)
		}
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	return ds, nil
}

// Read parses a dataset from r. Canonical columns populate the typed record
// fields; every other column is kept in ArticleRecord.Extra.
func Read(r io.Reader) (*types.Dataset, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s (empty file)", ErrMissingColumn, types.ColURL)
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	if _, ok := index[types.ColURL]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, types.ColURL)
	}

	ds := &types.Dataset{Columns: append([]string(nil), header...)}
	extra := ds.ExtraColumns()

	for n := 1; ; n++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", n, err)
		}

		cell := func(name string) sql.NullString {
			i, ok := index[name]
			if !ok || i >= len(row) || row[i] == "" {
				return sql.NullString{}
			}
			return sql.NullString{String: row[i], Valid: true}
		}

		rec := types.ArticleRecord{
			UID:          cell(types.ColUID).String,
			URL:          cell(types.ColURL).String,
			Title:        cell(types.ColTitle),
			Body:         cell(types.ColBody),
			Host:         cell(types.ColHost).String,
			NewspaperUID: cell(types.ColNewspaperUID).String,
		}
		if rec.NTokensTitle, err = parseCount(cell(types.ColTokensTitle)); err != nil {
			return nil, fmt.Errorf("record %d: %s: %w", n, types.ColTokensTitle, err)
		}
		if rec.NTokensBody, err = parseCount(cell(types.ColTokensBody)); err != nil {
			return nil, fmt.Errorf("record %d: %s: %w", n, types.ColTokensBody, err)
		}
		if len(extra) > 0 {
			rec.Extra = make(map[string]sql.NullString, len(extra))
			for _, c := range extra {
				rec.Extra[c] = cell(c)
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// parseCount accepts integer counts and the float rendering ("3.0") some
// dataframe writers produce.
func parseCount(v sql.NullString) (sql.NullInt64, error) {
	if !v.Valid {
		return sql.NullInt64{}, nil
	}
	if n, err := strconv.ParseInt(v.String, 10, 64); err == nil {
		return sql.NullInt64{Int64: n, Valid: true}, nil
	}
	f, err := strconv.ParseFloat(v.String, 64)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("invalid count %q", v.String)
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}, nil
}

// Header returns the output column order for ds: uid first, then the source
// columns (with url, title and body guaranteed), then the derived columns.
func Header(ds *types.Dataset) []string {
	header := []string{types.ColUID}
	seen := map[string]bool{types.ColUID: true}
	for _, d := range derivedColumns {
		seen[d] = true
	}
	for _, c := range ds.Columns {
		if !seen[c] {
			header = append(header, c)
			seen[c] = true
		}
	}
	for _, c := range []string{types.ColURL, types.ColTitle, types.ColBody} {
		if !seen[c] {
			header = append(header, c)
			seen[c] = true
		}
	}
	return append(header, derivedColumns...)
}

// Write renders ds to w using Header(ds).
func Write(w io.Writer, ds *types.Dataset) error {
	cw := csv.NewWriter(w)
	header := Header(ds)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(header))
	for _, rec := range ds.Records {
		for i, c := range header {
			row[i] = field(rec, c)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record %s: %w", rec.UID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes ds to path through a temporary file in the same directory
// and renames it into place on success.
func WriteFile(path string, ds *types.Dataset) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dataset-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writeErr := Write(tmp, ds)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing dataset %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func field(rec types.ArticleRecord, column string) string {
	switch column {
	case types.ColUID:
		return rec.UID
	case types.ColURL:
		return rec.URL
	case types.ColTitle:
		return rec.Title.String
	case types.ColBody:
		return rec.Body.String
	case types.ColHost:
		return rec.Host
	case types.ColNewspaperUID:
		return rec.NewspaperUID
	case types.ColTokensTitle:
		return count(rec.NTokensTitle)
	case types.ColTokensBody:
		return count(rec.NTokensBody)
	}
	return rec.Extra[column].String
}

func count(n sql.NullInt64) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}
