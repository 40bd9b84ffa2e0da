// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/news-pipeline/pkg/types"
)

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "manifest.yaml")

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Empty(t, m.Entries())

	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	require.NoError(t, m.Record(types.ManifestEntry{
		Identifier: "elpais",
		Stage:      types.StageTransform,
		Path:       "transform/elpais_2024.csv",
		Status:     types.ArtifactStaged,
	}))
	require.NoError(t, m.Record(types.ManifestEntry{
		Identifier: "eluniversal",
		Stage:      types.StageExtract,
		Status:     types.ArtifactFailed,
		Error:      "scraper exited with status 1",
	}))
	assert.FileExists(t, path)

	reloaded, err := LoadManifest(path)
	require.NoError(t, err)
	entries := reloaded.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "elpais", entries[0].Identifier)
	assert.Equal(t, "eluniversal", entries[1].Identifier)

	e, ok := reloaded.Get("elpais")
	require.True(t, ok)
	assert.Equal(t, types.StageTransform, e.Stage)
	assert.Equal(t, types.ArtifactStaged, e.Status)
	assert.Equal(t, "transform/elpais_2024.csv", e.Path)
	assert.True(t, fixed.Equal(e.UpdatedAt))

	e, ok = reloaded.Get("eluniversal")
	require.True(t, ok)
	assert.Equal(t, "scraper exited with status 1", e.Error)
}

func TestManifestRecordReplaces(t *testing.T) {
	m, err := LoadManifest("")
	require.NoError(t, err)

	require.NoError(t, m.Record(types.ManifestEntry{Identifier: "elpais", Stage: types.StageTransform, Status: types.ArtifactStaged}))
	require.NoError(t, m.Record(types.ManifestEntry{Identifier: "elpais", Stage: types.StageLoad, Status: types.ArtifactConsumed}))

	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, types.StageLoad, entries[0].Stage)
	assert.Equal(t, types.ArtifactConsumed, entries[0].Status)
}

func TestManifestInMemoryWritesNothing(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	m, err := LoadManifest("")
	require.NoError(t, err)
	require.NoError(t, m.Record(types.ManifestEntry{Identifier: "elpais", Status: types.ArtifactStaged}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadManifestInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries: [unterminated"), 0o644))

	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing manifest")
}
