// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/news-pipeline/pkg/types"
)

// manifestFile is the on-disk layout of the manifest.
type manifestFile struct {
	Entries []types.ManifestEntry `yaml:"entries"`
}

// Manifest records, per source identifier, which stage holds its artifact,
// where the artifact is and whether the last handoff succeeded. It is saved
// as YAML after every update when a path is set.
type Manifest struct {
	mu      sync.Mutex
	path    string
	entries map[string]types.ManifestEntry
	now     func() time.Time
}

// LoadManifest reads the manifest at path. A missing file yields an empty
// manifest. An empty path yields an in-memory manifest that is never saved.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{
		path:    path,
		entries: make(map[string]types.ManifestEntry),
		now:     time.Now,
	}
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var f manifestFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	for _, e := range f.Entries {
		m.entries[e.Identifier] = e
	}
	return m, nil
}

// Get returns the entry for identifier.
func (m *Manifest) Get(identifier string) (types.ManifestEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[identifier]
	return e, ok
}

// Entries returns all entries sorted by identifier.
func (m *Manifest) Entries() []types.ManifestEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked()
}

// Record stores entry (stamping UpdatedAt) and saves the manifest.
func (m *Manifest) Record(entry types.ManifestEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.UpdatedAt = m.now().UTC()
	m.entries[entry.Identifier] = entry
	return m.saveLocked()
}

func (m *Manifest) sortedLocked() []types.ManifestEntry {
	out := make([]types.ManifestEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// saveLocked writes the manifest through a temp file and rename.
func (m *Manifest) saveLocked() error {
	if m.path == "" {
		return nil
	}
	data, err := yaml.Marshal(manifestFile{Entries: m.sortedLocked()})
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing manifest %s: %w", m.path, errors.Join(writeErr, closeErr))
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming manifest: %w", err)
	}
	return nil
}
