// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists clean article datasets in a SQLite database. It is
// the reference loader behind the load-db command.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/news-pipeline/internal/dataset"
	"github.com/pdiddy/news-pipeline/pkg/types"
)

// ErrMissingUID is returned when a clean dataset row has no uid.
var ErrMissingUID = errors.New("record has no uid")

// Store manages the article database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the database at path and creates the schema if
// it does not exist.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			uid TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			title TEXT,
			body TEXT,
			newspaper_uid TEXT NOT NULL,
			host TEXT NOT NULL,
			n_tokens_title INTEGER,
			n_tokens_body INTEGER,
			extra TEXT,
			loaded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_newspaper_uid ON articles(newspaper_uid)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// LoadSummary holds counts from loading one clean dataset.
type LoadSummary struct {
	Inserted int
	Updated  int
}

// Total returns the number of records written.
func (s LoadSummary) Total() int {
	return s.Inserted + s.Updated
}

// Load reads the clean dataset at cleanPath and upserts every record, keyed
// by uid, in a single transaction. Nothing is written if any record fails.
func (s *Store) Load(ctx context.Context, cleanPath string) (LoadSummary, error) {
	ds, err := dataset.ReadFile(cleanPath)
	if err != nil {
		return LoadSummary{}, err
	}
	return s.LoadDataset(ctx, ds)
}

// LoadDataset upserts the records of ds in a single transaction.
func (s *Store) LoadDataset(ctx context.Context, ds *types.Dataset) (LoadSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := tx.PrepareContext(ctx, `SELECT count(*) FROM articles WHERE uid = ?`)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("preparing lookup: %w", err)
	}
	defer exists.Close()

	upsert, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (uid, url, title, body, newspaper_uid, host, n_tokens_title, n_tokens_body, extra, loaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
			url=excluded.url, title=excluded.title, body=excluded.body,
			newspaper_uid=excluded.newspaper_uid, host=excluded.host,
			n_tokens_title=excluded.n_tokens_title, n_tokens_body=excluded.n_tokens_body,
			extra=excluded.extra, loaded_at=excluded.loaded_at`)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("preparing upsert: %w", err)
	}
	defer upsert.Close()

	loadedAt := s.now().UTC().Format(time.RFC3339)
	var summary LoadSummary
	for i, rec := range ds.Records {
		if rec.UID == "" {
			return LoadSummary{}, fmt.Errorf("record %d (%s): %w", i+1, rec.URL, ErrMissingUID)
		}

		var n int
		if err := exists.QueryRowContext(ctx, rec.UID).Scan(&n); err != nil {
			return LoadSummary{}, fmt.Errorf("looking up %s: %w", rec.UID, err)
		}

		extra, err := encodeExtra(rec.Extra)
		if err != nil {
			return LoadSummary{}, fmt.Errorf("encoding extra columns of %s: %w", rec.UID, err)
		}

		if _, err := upsert.ExecContext(ctx,
			rec.UID, rec.URL, rec.Title, rec.Body,
			rec.NewspaperUID, rec.Host,
			rec.NTokensTitle, rec.NTokensBody,
			extra, loadedAt,
		); err != nil {
			return LoadSummary{}, fmt.Errorf("upserting %s: %w", rec.UID, err)
		}

		if n > 0 {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return LoadSummary{}, fmt.Errorf("committing: %w", err)
	}
	return summary, nil
}

// Count returns the number of stored articles.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return n, nil
}

// CountByNewspaper returns the number of stored articles per newspaper uid.
func (s *Store) CountByNewspaper(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT newspaper_uid, count(*) FROM articles GROUP BY newspaper_uid`)
	if err != nil {
		return nil, fmt.Errorf("counting articles: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// Get returns the article with the given uid. A missing article yields an
// error wrapping sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, uid string) (types.ArticleRecord, error) {
	var rec types.ArticleRecord
	var extra sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT uid, url, title, body, newspaper_uid, host, n_tokens_title, n_tokens_body, extra
		 FROM articles WHERE uid = ?`, uid,
	).Scan(&rec.UID, &rec.URL, &rec.Title, &rec.Body, &rec.NewspaperUID, &rec.Host,
		&rec.NTokensTitle, &rec.NTokensBody, &extra)
	if err != nil {
		return types.ArticleRecord{}, fmt.Errorf("getting article %s: %w", uid, err)
	}
	if rec.Extra, err = decodeExtra(extra); err != nil {
		return types.ArticleRecord{}, fmt.Errorf("decoding extra columns of %s: %w", uid, err)
	}
	return rec, nil
}

// encodeExtra stores extra columns as a JSON object; missing values become null.
func encodeExtra(extra map[string]sql.NullString) (sql.NullString, error) {
	if len(extra) == 0 {
		return sql.NullString{}, nil
	}
	m := make(map[string]*string, len(extra))
	for k, v := range extra {
		if v.Valid {
			s := v.String
			m[k] = &s
		} else {
			m[k] = nil
		}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeExtra(v sql.NullString) (map[string]sql.NullString, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var m map[string]*string
	if err := json.Unmarshal([]byte(v.String), &m); err != nil {
		return nil, err
	}
	out := make(map[string]sql.NullString, len(m))
	for k, p := range m {
		if p != nil {
			out[k] = sql.NullString{String: *p, Valid: true}
		} else {
			out[k] = sql.NullString{}
		}
	}
	return out, nil
}
