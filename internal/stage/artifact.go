// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/news-pipeline/pkg/types"
)

// ErrAmbiguousArtifact is returned when more than one file in a stage
// directory matches a source identifier.
var ErrAmbiguousArtifact = errors.New("more than one artifact matches identifier")

// Locate returns the name of the single regular file directly inside dir
// whose name contains identifier. It fails with types.ErrArtifactNotFound
// when nothing matches and with ErrAmbiguousArtifact when several files do:
// one matching file per identifier per directory is a precondition.
// Hidden files (leading dot) are ignored.
func Locate(dir, identifier string) (string, error) {
	return locate(dir, identifier, "")
}

// locate is Locate that also ignores names starting with skipPrefix, when set.
func locate(dir, identifier, skipPrefix string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("locating artifact in %s: empty identifier", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading stage directory %s: %w", dir, err)
	}

	var matches []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if skipPrefix != "" && strings.HasPrefix(name, skipPrefix) {
			continue
		}
		if strings.Contains(name, identifier) {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: no file matching %q in %s", types.ErrArtifactNotFound, identifier, dir)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w %q in %s: %s",
			ErrAmbiguousArtifact, identifier, dir, strings.Join(matches, ", "))
	}
}

// Relocate moves the artifact at src to dst. It tries a rename first and
// falls back to copy + remove for cross-device moves. An existing dst is
// never overwritten.
func Relocate(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("relocating %s: %w: %w", src, types.ErrArtifactNotFound, err)
		}
		return fmt.Errorf("relocating %s: %w", src, err)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("relocating %s: destination %s already exists: %w", src, dst, fs.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("relocating %s: creating %s: %w", src, filepath.Dir(dst), err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("relocating %s to %s: %w", src, dst, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("relocating %s: removing source after copy: %w", src, err)
	}
	return nil
}

// copyFile copies src to a temp file beside dst and renames it into place.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".relocate-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
