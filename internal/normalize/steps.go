// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/pdiddy/news-pipeline/internal/tokenize"
	"github.com/pdiddy/news-pipeline/pkg/types"
)

// CleanPrefix is prepended to a raw dataset's filename to name its clean output.
const CleanPrefix = "clean_"

// SourceID returns the source identifier embedded in a dataset filename: the
// base name up to its first underscore, or the whole base name if it has none.
func SourceID(filename string) string {
	base := filepath.Base(filename)
	id, _, _ := strings.Cut(base, "_")
	return id
}

// CleanPath returns the path of the clean dataset for rawPath, in the same
// directory.
func CleanPath(rawPath string) string {
	return filepath.Join(filepath.Dir(rawPath), CleanPrefix+filepath.Base(rawPath))
}

// UID returns the content-addressed identifier of an article URL.
func UID(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// Host returns the network authority of rawURL ([userinfo@]host[:port]), or
// "" if it does not parse.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.User != nil {
		return u.User.String() + "@" + u.Host
	}
	return u.Host
}

// TitleFromURL derives a title from the last path segment of rawURL, with
// hyphens turned into spaces. It reports false when the URL ends in a slash.
func TitleFromURL(rawURL string) (string, bool) {
	i := strings.LastIndex(rawURL, "/")
	last := rawURL[i+1:]
	if last == "" {
		return "", false
	}
	return strings.ReplaceAll(last, "-", " "), true
}

// AttachSourceID sets NewspaperUID on every record.
func AttachSourceID(ds *types.Dataset, id string) {
	for i := range ds.Records {
		ds.Records[i].NewspaperUID = id
	}
}

// DeriveHosts sets Host from URL on every record with a URL.
func DeriveHosts(ds *types.Dataset) {
	for i := range ds.Records {
		if ds.Records[i].URL != "" {
			ds.Records[i].Host = Host(ds.Records[i].URL)
		}
	}
}

// BackfillTitles fills missing titles from the URL and returns how many were filled.
func BackfillTitles(ds *types.Dataset) int {
	filled := 0
	for i := range ds.Records {
		r := &ds.Records[i]
		if r.Title.Valid || r.URL == "" {
			continue
		}
		if title, ok := TitleFromURL(r.URL); ok {
			r.Title = sql.NullString{String: title, Valid: true}
			filled++
		}
	}
	return filled
}

// AssignUIDs computes UID for every record and makes it the dataset key: a
// later record with an already-seen UID replaces the earlier one in place.
// It returns the number of replaced records.
func AssignUIDs(ds *types.Dataset) int {
	pos := make(map[string]int, len(ds.Records))
	out := ds.Records[:0]
	replaced := 0
	for _, r := range ds.Records {
		if r.URL != "" {
			r.UID = UID(r.URL)
		}
		if r.UID == "" {
			out = append(out, r)
			continue
		}
		if i, ok := pos[r.UID]; ok {
			out[i] = r
			replaced++
			continue
		}
		pos[r.UID] = len(out)
		out = append(out, r)
	}
	ds.Records = out
	return replaced
}

// StripBodyNewlines removes newline and carriage-return characters from bodies.
func StripBodyNewlines(ds *types.Dataset) {
	strip := strings.NewReplacer("\n", "", "\r", "")
	for i := range ds.Records {
		if ds.Records[i].Body.Valid {
			ds.Records[i].Body.String = strip.Replace(ds.Records[i].Body.String)
		}
	}
}

// CountTokens stores the meaningful-token count of column (title or body)
// for every record where that field is present.
func CountTokens(ds *types.Dataset, tok *tokenize.Tokenizer, column string) {
	for i := range ds.Records {
		r := &ds.Records[i]
		switch column {
		case types.ColTitle:
			if r.Title.Valid {
				r.NTokensTitle = sql.NullInt64{Int64: int64(tok.Count(r.Title.String)), Valid: true}
			}
		case types.ColBody:
			if r.Body.Valid {
				r.NTokensBody = sql.NullInt64{Int64: int64(tok.Count(r.Body.String)), Valid: true}
			}
		}
	}
}

// DedupeTitles keeps the first record for each title, preserving order, and
// returns the number removed. Records without a title are kept.
func DedupeTitles(ds *types.Dataset) int {
	seen := make(map[string]bool, len(ds.Records))
	out := ds.Records[:0]
	for _, r := range ds.Records {
		if r.Title.Valid {
			if seen[r.Title.String] {
				continue
			}
			seen[r.Title.String] = true
		}
		out = append(out, r)
	}
	removed := len(ds.Records) - len(out)
	ds.Records = out
	return removed
}

// DropIncomplete removes records with any missing field and returns the
// number removed.
func DropIncomplete(ds *types.Dataset) int {
	extra := ds.ExtraColumns()
	out := ds.Records[:0]
	for _, r := range ds.Records {
		if r.Complete(extra) {
			out = append(out, r)
		}
	}
	removed := len(ds.Records) - len(out)
	ds.Records = out
	return removed
}
