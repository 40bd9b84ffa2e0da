// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrArtifactNotFound is returned when a stage's expected input file is absent.
var ErrArtifactNotFound = errors.New("artifact not found")

// Stage is one phase of the pipeline.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTransform Stage = "transform"
	StageLoad      Stage = "load"
)

// Stages lists the pipeline phases in execution order.
var Stages = []Stage{StageExtract, StageTransform, StageLoad}

// OutcomeStatus is the result of running one stage for one identifier.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// FailureKind classifies a failed outcome.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureNotFound  FailureKind = "not-found"
	FailureAmbiguous FailureKind = "ambiguous"
	FailureIO        FailureKind = "io"
	FailureProcess   FailureKind = "process"
	FailureNormalize FailureKind = "normalize"
	FailureCanceled  FailureKind = "canceled"
)

// Outcome records what happened when a stage ran for one source identifier.
type Outcome struct {
	Identifier string        `json:"identifier" yaml:"identifier"`
	Stage      Stage         `json:"stage" yaml:"stage"`
	Status     OutcomeStatus `json:"status" yaml:"status"`
	Kind       FailureKind   `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Artifact is the path of the artifact the stage handed off (or failed on).
	Artifact string `json:"artifact,omitempty" yaml:"artifact,omitempty"`

	Err      error         `json:"-" yaml:"-"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// String renders the outcome as a one-line status report.
func (o Outcome) String() string {
	switch o.Status {
	case OutcomeFailed:
		return fmt.Sprintf("failed:    %-9s %s [%s] %v", o.Stage, o.Identifier, o.Kind, o.Err)
	case OutcomeSkipped:
		return fmt.Sprintf("skipped:   %-9s %s", o.Stage, o.Identifier)
	default:
		return fmt.Sprintf("succeeded: %-9s %s -> %s (%s)", o.Stage, o.Identifier, o.Artifact, o.Duration.Round(time.Millisecond))
	}
}

// ArtifactStatus is the state of an artifact recorded in the manifest.
type ArtifactStatus string

const (
	ArtifactStaged   ArtifactStatus = "staged"
	ArtifactConsumed ArtifactStatus = "consumed"
	ArtifactFailed   ArtifactStatus = "failed"
)

// ManifestEntry describes where an identifier's artifact currently lives.
type ManifestEntry struct {
	Identifier string         `json:"identifier" yaml:"identifier"`
	Stage      Stage          `json:"stage" yaml:"stage"`
	Path       string         `json:"path,omitempty" yaml:"path,omitempty"`
	Status     ArtifactStatus `json:"status" yaml:"status"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at" yaml:"updated_at"`
}
