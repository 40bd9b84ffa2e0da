// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/news-pipeline/internal/dataset"
	"github.com/pdiddy/news-pipeline/internal/logging"
	"github.com/pdiddy/news-pipeline/internal/tokenize"
	"github.com/pdiddy/news-pipeline/pkg/types"
)

func newNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := New(types.NormalizeConfig{Language: "spanish"}, logging.Discard())
	require.NoError(t, err)
	return n
}

func writeRaw(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func str(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func TestSourceID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"eluniversal_2024_01_01.csv", "eluniversal"},
		{"transform/elpais_2024_01_01_articles.csv", "elpais"},
		{"nounderscore.csv", "nounderscore.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceID(tt.in))
		})
	}
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, filepath.Join("transform", "clean_elpais_2024.csv"), CleanPath(filepath.Join("transform", "elpais_2024.csv")))
	assert.Equal(t, "clean_elpais_2024.csv", CleanPath("elpais_2024.csv"))
}

func TestUIDDeterministic(t *testing.T) {
	u := "https://www.eluniversal.com/seccion/un-titulo-de-prueba"
	assert.Equal(t, UID(u), UID(u))
	assert.Len(t, UID(u), 32)
	assert.NotEqual(t, UID(u), UID(u+"-2"))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", UID(""))
}

func TestHostMatchesURLParser(t *testing.T) {
	for _, raw := range []string{
		"https://www.eluniversal.com/seccion/nota",
		"http://elpais.com:8080/a?b=c",
	} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, u.Host, Host(raw), raw)
	}
	assert.Equal(t, "", Host("://bad"))
	assert.Equal(t, "", Host("elpais.com/sin-esquema"))
}

func TestHostKeepsUserinfo(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://user@news.example.org/", "user@news.example.org"},
		{"https://user:pw@elpais.com:8443/x", "user:pw@elpais.com:8443"},
		{"https://elpais.com/x", "elpais.com"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Host(tt.url))
		})
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.eluniversal.com/seccion/un-titulo-de-prueba", "un titulo de prueba", true},
		{"https://elpais.com/nota", "nota", true},
		{"https://elpais.com/seccion/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := TitleFromURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssignUIDsReplacesEarlierRow(t *testing.T) {
	ds := &types.Dataset{Records: []types.ArticleRecord{
		{URL: "https://a.example/1", Title: str("first")},
		{URL: "https://a.example/2", Title: str("second")},
		{URL: "https://a.example/1", Title: str("third")},
	}}
	replaced := AssignUIDs(ds)
	assert.Equal(t, 1, replaced)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "third", ds.Records[0].Title.String)
	assert.Equal(t, UID("https://a.example/1"), ds.Records[0].UID)
	assert.Equal(t, "second", ds.Records[1].Title.String)
}

func TestDedupeTitlesKeepsFirst(t *testing.T) {
	ds := &types.Dataset{Records: []types.ArticleRecord{
		{URL: "u1", Title: str("same")},
		{URL: "u2", Title: str("other")},
		{URL: "u3", Title: str("same")},
		{URL: "u4", Title: str("other")},
	}}
	removed := DedupeTitles(ds)
	assert.Equal(t, 2, removed)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "u1", ds.Records[0].URL)
	assert.Equal(t, "u2", ds.Records[1].URL)
}

func TestStripBodyNewlines(t *testing.T) {
	ds := &types.Dataset{Records: []types.ArticleRecord{
		{Body: str("uno\r\ndos\ntres\r")},
		{},
	}}
	StripBodyNewlines(ds)
	assert.Equal(t, "unodostres", ds.Records[0].Body.String)
	assert.False(t, ds.Records[1].Body.Valid)
}

func TestCountTokens(t *testing.T) {
	tok, err := tokenize.New("spanish")
	require.NoError(t, err)
	ds := &types.Dataset{Records: []types.ArticleRecord{
		{Title: str("un titulo de prueba"), Body: str("   ")},
		{Title: str("")},
	}}
	CountTokens(ds, tok, types.ColTitle)
	CountTokens(ds, tok, types.ColBody)

	assert.Equal(t, sql.NullInt64{Int64: 2, Valid: true}, ds.Records[0].NTokensTitle)
	assert.Equal(t, sql.NullInt64{Int64: 0, Valid: true}, ds.Records[0].NTokensBody)
	assert.Equal(t, sql.NullInt64{Int64: 0, Valid: true}, ds.Records[1].NTokensTitle)
	assert.False(t, ds.Records[1].NTokensBody.Valid)
}

const rawEluniversal = `title,url,body,section
Noticia uno,https://www.eluniversal.com/politica/noticia-uno,"Primera línea
segunda línea",politica
,https://www.eluniversal.com/seccion/un-titulo-de-prueba,El cuerpo de la nota,cultura
Noticia uno,https://www.eluniversal.com/otra/noticia-repetida,Otro cuerpo,politica
Sin cuerpo,https://www.eluniversal.com/a/sin-cuerpo,,deportes
Sin seccion,https://www.eluniversal.com/a/sin-seccion,Texto,
,https://www.eluniversal.com/a/,Texto sin titulo posible,cultura
`

func TestNormalize(t *testing.T) {
	dir := t.TempDir()
	rawPath := writeRaw(t, dir, "eluniversal_2024_01_01.csv", rawEluniversal)

	res, err := newNormalizer(t).Normalize(context.Background(), rawPath)
	require.NoError(t, err)

	assert.Equal(t, "eluniversal", res.SourceID)
	assert.Equal(t, filepath.Join(dir, "clean_eluniversal_2024_01_01.csv"), res.CleanPath)
	assert.Equal(t, 6, res.Read)
	assert.Equal(t, 1, res.TitlesBackfilled)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 3, res.Incomplete)

	recs := res.Dataset.Records
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, "https://www.eluniversal.com/politica/noticia-uno", first.URL)
	assert.Equal(t, "Noticia uno", first.Title.String)
	assert.Equal(t, "Primera líneasegunda línea", first.Body.String)
	assert.Equal(t, "www.eluniversal.com", first.Host)
	assert.Equal(t, "eluniversal", first.NewspaperUID)
	assert.Equal(t, UID(first.URL), first.UID)
	assert.Equal(t, int64(1), first.NTokensTitle.Int64, "uno is a stopword")

	second := recs[1]
	assert.Equal(t, "un titulo de prueba", second.Title.String)
	assert.Equal(t, int64(2), second.NTokensTitle.Int64)
	assert.Equal(t, int64(2), second.NTokensBody.Int64, "cuerpo, nota")
	assert.Equal(t, "cultura", second.Extra["section"].String)

	for _, r := range recs {
		assert.True(t, r.Complete(res.Dataset.ExtraColumns()))
	}

	written, err := dataset.ReadFile(res.CleanPath)
	require.NoError(t, err)
	assert.Equal(t, recs, written.Records)
	assert.Equal(t, "uid", written.Columns[0])
}

func TestNormalizeMissingFile(t *testing.T) {
	dir := t.TempDir()
	res, err := newNormalizer(t).Normalize(context.Background(), filepath.Join(dir, "elpais_2024.csv"))
	assert.Nil(t, res)
	require.ErrorIs(t, err, types.ErrArtifactNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no clean artifact is written")
}

func TestNormalizeCanceled(t *testing.T) {
	dir := t.TempDir()
	rawPath := writeRaw(t, dir, "elpais_x.csv", "url,title,body\nhttps://elpais.com/a,A,B\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newNormalizer(t).Normalize(ctx, rawPath)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, CleanPath(rawPath))
}

func TestNewUnsupportedLanguage(t *testing.T) {
	_, err := New(types.NormalizeConfig{Language: "latin"}, nil)
	require.ErrorIs(t, err, tokenize.ErrUnsupportedLanguage)
}
