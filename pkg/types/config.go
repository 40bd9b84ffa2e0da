// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Configuration validation errors.
var (
	ErrNoSources       = errors.New("at least one source identifier is required")
	ErrEmptySource     = errors.New("source identifiers must not be empty")
	ErrDuplicateSource = errors.New("source identifiers must be unique")
	ErrMissingStageDir = errors.New("extract, transform and load directories are required")
	ErrSharedStageDir  = errors.New("stage directories must be distinct")
	ErrMissingLoader   = errors.New("load.command is required")
	ErrNegativeTimeout = errors.New("stage timeouts must not be negative")
	ErrMissingLanguage = errors.New("normalize.language is required")
)

// DefaultSources are the source identifiers processed when none are configured.
var DefaultSources = []string{"eluniversal", "elpais"}

// StageDirs holds the working directory of each stage.
type StageDirs struct {
	Extract   string `json:"extract" yaml:"extract"`
	Transform string `json:"transform" yaml:"transform"`
	Load      string `json:"load" yaml:"load"`
}

// For returns the working directory of stage s.
func (d StageDirs) For(s Stage) string {
	switch s {
	case StageExtract:
		return d.Extract
	case StageTransform:
		return d.Transform
	case StageLoad:
		return d.Load
	}
	return ""
}

// CommandConfig describes an external stage processor.
type CommandConfig struct {
	// Command is the argv of the processor. The stage appends its own
	// argument (identifier or filename) as the final element.
	Command []string `json:"command" yaml:"command"`

	// Timeout bounds a single invocation. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// NormalizeConfig holds settings for the record normalizer.
type NormalizeConfig struct {
	// Language selects the stopword list used for token counts (e.g. "spanish").
	Language string `json:"language" yaml:"language"`
}

// PipelineConfig groups all stage configurations for the orchestrator.
type PipelineConfig struct {
	Sources   []string        `json:"sources" yaml:"sources"`
	Dirs      StageDirs       `json:"dirs" yaml:"dirs"`
	Extract   CommandConfig   `json:"extract" yaml:"extract"`
	Load      CommandConfig   `json:"load" yaml:"load"`
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize"`

	// ManifestPath is the YAML file recording artifact handoffs.
	ManifestPath string `json:"manifest" yaml:"manifest"`
}

// Validate checks the configuration for values the orchestrator cannot run with.
// An empty extract command is allowed: the stage then only relocates exports
// that are already present.
func (c PipelineConfig) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if strings.TrimSpace(s) == "" {
			return ErrEmptySource
		}
		if seen[s] {
			return fmt.Errorf("%w: %q", ErrDuplicateSource, s)
		}
		seen[s] = true
	}

	if c.Dirs.Extract == "" || c.Dirs.Transform == "" || c.Dirs.Load == "" {
		return ErrMissingStageDir
	}
	if c.Dirs.Extract == c.Dirs.Transform || c.Dirs.Transform == c.Dirs.Load || c.Dirs.Extract == c.Dirs.Load {
		return ErrSharedStageDir
	}

	if len(c.Load.Command) == 0 {
		return ErrMissingLoader
	}
	if c.Extract.Timeout < 0 || c.Load.Timeout < 0 {
		return ErrNegativeTimeout
	}
	if c.Normalize.Language == "" {
		return ErrMissingLanguage
	}
	return nil
}
