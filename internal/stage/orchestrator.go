// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stage sequences Extract -> Transform -> Load for every configured
// source identifier and hands artifacts off between the stage directories.
//
// Each stage completes for all identifiers before the next begins. Every
// stage-per-identifier run yields a typed types.Outcome; an identifier that
// fails a stage is skipped by the later stages while the others continue.
//
// The scraper and the loader run as subprocesses. The transform stage calls
// the normalizer in-process through Transformer; the same normalizer is
// available standalone as the normalize command.
package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/news-pipeline/internal/normalize"
	"github.com/pdiddy/news-pipeline/internal/process"
	"github.com/pdiddy/news-pipeline/pkg/types"
)

// Transformer cleans one raw dataset into a clean dataset beside it.
// *normalize.Normalizer implements it.
type Transformer interface {
	Normalize(ctx context.Context, rawPath string) (*normalize.Result, error)
}

// Deps holds the collaborators an Orchestrator drives.
type Deps struct {
	Runner      process.Runner
	Transformer Transformer

	// Manifest records handoffs. Nil means an in-memory manifest.
	Manifest *Manifest

	Log *slog.Logger

	// Out receives one status line per outcome. Nil discards them.
	Out io.Writer
}

// Orchestrator runs the pipeline stages.
type Orchestrator struct {
	cfg         types.PipelineConfig
	runner      process.Runner
	transformer Transformer
	manifest    *Manifest
	log         *slog.Logger
	out         io.Writer
	now         func() time.Time
}

// New validates cfg and returns an Orchestrator.
func New(cfg types.PipelineConfig, deps Deps) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if deps.Runner == nil || deps.Transformer == nil {
		return nil, errors.New("orchestrator needs a runner and a transformer")
	}
	o := &Orchestrator{
		cfg:         cfg,
		runner:      deps.Runner,
		transformer: deps.Transformer,
		manifest:    deps.Manifest,
		log:         deps.Log,
		out:         deps.Out,
		now:         time.Now,
	}
	if o.manifest == nil {
		o.manifest, _ = LoadManifest("")
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	if o.out == nil {
		o.out = io.Discard
	}
	return o, nil
}

// Manifest returns the manifest the orchestrator updates.
func (o *Orchestrator) Manifest() *Manifest { return o.manifest }

// Run executes every stage for every configured identifier.
func (o *Orchestrator) Run(ctx context.Context) Report {
	return o.RunStages(ctx, types.Stages, o.cfg.Sources)
}

// RunStages executes the given stages, in order, for identifiers. Each
// stage finishes for all identifiers before the next one starts.
func (o *Orchestrator) RunStages(ctx context.Context, stages []types.Stage, identifiers []string) Report {
	var report Report
	failed := make(map[string]bool, len(identifiers))

	for _, st := range stages {
		o.log.Info("starting stage", "stage", st, "sources", len(identifiers))
		for _, id := range identifiers {
			var out types.Outcome
			switch {
			case failed[id]:
				out = types.Outcome{Identifier: id, Stage: st, Status: types.OutcomeSkipped}
			case ctx.Err() != nil:
				out = o.canceled(id, st, ctx.Err())
			default:
				out = o.RunStage(ctx, st, id)
			}
			if out.Status == types.OutcomeFailed {
				failed[id] = true
			}
			report.Outcomes = append(report.Outcomes, out)
			fmt.Fprintln(o.out, out)
		}
	}

	fmt.Fprintf(o.out, "\nRun summary: %d succeeded, %d skipped, %d failed (total: %d)\n",
		report.Count(types.OutcomeSucceeded), report.Count(types.OutcomeSkipped),
		report.Count(types.OutcomeFailed), len(report.Outcomes))
	return report
}

// RunStage runs a single stage for one identifier.
func (o *Orchestrator) RunStage(ctx context.Context, st types.Stage, identifier string) types.Outcome {
	switch st {
	case types.StageExtract:
		return o.RunExtract(ctx, identifier)
	case types.StageTransform:
		return o.RunTransform(ctx, identifier)
	case types.StageLoad:
		return o.RunLoad(ctx, identifier)
	}
	return o.fail(identifier, st, "", o.now(), fmt.Errorf("unknown stage %q", st), types.FailureIO)
}

// RunExtract invokes the scraper for identifier (when one is configured),
// then moves its raw export from the extract to the transform directory.
func (o *Orchestrator) RunExtract(ctx context.Context, identifier string) types.Outcome {
	start := o.now()
	log := o.log.With("stage", types.StageExtract, "source", identifier)

	if len(o.cfg.Extract.Command) > 0 {
		cmd := o.command(o.cfg.Extract, o.cfg.Dirs.Extract, identifier)
		log.Info("running scraper", "command", cmd.String())
		res, err := o.runner.Run(ctx, cmd)
		if err != nil {
			return o.fail(identifier, types.StageExtract, "", start, err, types.FailureProcess)
		}
		log.Debug("scraper finished", "duration", res.Duration)
	}

	name, err := Locate(o.cfg.Dirs.Extract, identifier)
	if err != nil {
		return o.fail(identifier, types.StageExtract, "", start, err, types.FailureIO)
	}
	src := filepath.Join(o.cfg.Dirs.Extract, name)
	dst := filepath.Join(o.cfg.Dirs.Transform, name)

	log.Info("moving raw artifact", "from", src, "to", dst)
	if err := Relocate(src, dst); err != nil {
		return o.fail(identifier, types.StageExtract, src, start, err, types.FailureIO)
	}
	return o.succeed(identifier, types.StageExtract, types.StageTransform, dst, start)
}

// RunTransform normalizes identifier's raw artifact, moves the clean
// artifact into the load directory, then deletes the raw artifact. Until the
// clean artifact is in place the raw one stays put, so a failed transform
// can be retried from the same input.
func (o *Orchestrator) RunTransform(ctx context.Context, identifier string) types.Outcome {
	start := o.now()
	log := o.log.With("stage", types.StageTransform, "source", identifier)

	rawPath, err := o.artifact(identifier, types.StageTransform)
	if err != nil {
		return o.fail(identifier, types.StageTransform, "", start, err, types.FailureIO)
	}

	dst := filepath.Join(o.cfg.Dirs.Load, filepath.Base(normalize.CleanPath(rawPath)))
	if _, err := os.Stat(dst); err == nil {
		err = fmt.Errorf("clean artifact %s already exists: %w", dst, fs.ErrExist)
		return o.fail(identifier, types.StageTransform, rawPath, start, err, types.FailureIO)
	}

	log.Info("normalizing raw artifact", "file", rawPath)
	res, err := o.transformer.Normalize(ctx, rawPath)
	if err != nil {
		return o.fail(identifier, types.StageTransform, rawPath, start, err, types.FailureNormalize)
	}

	log.Info("moving clean artifact", "from", res.CleanPath, "to", dst, "records", res.Dataset.Len())
	if err := Relocate(res.CleanPath, dst); err != nil {
		if rmErr := os.Remove(res.CleanPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Warn("removing unplaced clean artifact failed", "file", res.CleanPath, "error", rmErr)
		}
		return o.fail(identifier, types.StageTransform, rawPath, start, err, types.FailureIO)
	}

	if err := os.Remove(rawPath); err != nil {
		return o.fail(identifier, types.StageTransform, rawPath, start, fmt.Errorf("deleting raw artifact: %w", err), types.FailureIO)
	}
	return o.succeed(identifier, types.StageTransform, types.StageLoad, dst, start)
}

// RunLoad invokes the loader on identifier's clean artifact and deletes the
// artifact once the loader exits zero. A failed load leaves it in place.
func (o *Orchestrator) RunLoad(ctx context.Context, identifier string) types.Outcome {
	start := o.now()
	log := o.log.With("stage", types.StageLoad, "source", identifier)

	path, err := o.artifact(identifier, types.StageLoad)
	if err != nil {
		return o.fail(identifier, types.StageLoad, "", start, err, types.FailureIO)
	}

	cmd := o.command(o.cfg.Load, o.cfg.Dirs.Load, filepath.Base(path))
	log.Info("running loader", "command", cmd.String())
	if _, err := o.runner.Run(ctx, cmd); err != nil {
		return o.fail(identifier, types.StageLoad, path, start, err, types.FailureProcess)
	}

	if err := os.Remove(path); err != nil {
		return o.fail(identifier, types.StageLoad, path, start, fmt.Errorf("deleting clean artifact: %w", err), types.FailureIO)
	}
	out := types.Outcome{
		Identifier: identifier,
		Stage:      types.StageLoad,
		Status:     types.OutcomeSucceeded,
		Artifact:   path,
		Duration:   o.now().Sub(start),
	}
	o.record(types.ManifestEntry{Identifier: identifier, Stage: types.StageLoad, Path: path, Status: types.ArtifactConsumed})
	return out
}

// artifact resolves identifier's input file for stage st. A manifest entry
// that points to an existing file in the stage directory wins; otherwise the
// directory is scanned with Locate.
func (o *Orchestrator) artifact(identifier string, st types.Stage) (string, error) {
	dir := o.cfg.Dirs.For(st)
	if e, ok := o.manifest.Get(identifier); ok && e.Stage == st && e.Status == types.ArtifactStaged && e.Path != "" {
		if filepath.Clean(filepath.Dir(e.Path)) == filepath.Clean(dir) &&
			(st != types.StageTransform || !strings.HasPrefix(filepath.Base(e.Path), normalize.CleanPrefix)) {
			if _, err := os.Stat(e.Path); err == nil {
				return e.Path, nil
			}
		}
	}
	// Clean outputs are never raw input.
	skip := ""
	if st == types.StageTransform {
		skip = normalize.CleanPrefix
	}
	name, err := locate(dir, identifier, skip)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (o *Orchestrator) command(cc types.CommandConfig, dir, arg string) process.Command {
	argv := make([]string, 0, len(cc.Command)+1)
	argv = append(argv, cc.Command...)
	argv = append(argv, arg)
	return process.Command{Argv: argv, Dir: dir, Timeout: cc.Timeout}
}

func (o *Orchestrator) succeed(identifier string, st, next types.Stage, artifact string, start time.Time) types.Outcome {
	o.record(types.ManifestEntry{Identifier: identifier, Stage: next, Path: artifact, Status: types.ArtifactStaged})
	return types.Outcome{
		Identifier: identifier,
		Stage:      st,
		Status:     types.OutcomeSucceeded,
		Artifact:   artifact,
		Duration:   o.now().Sub(start),
	}
}

// fail builds a failed outcome. fallback is the kind used when Classify
// cannot tell the cause from the error itself.
func (o *Orchestrator) fail(identifier string, st types.Stage, artifact string, start time.Time, err error, fallback types.FailureKind) types.Outcome {
	kind := Classify(err)
	if kind == types.FailureNone {
		kind = fallback
	}
	o.log.Error("stage failed", "stage", st, "source", identifier, "kind", kind, "error", err)
	o.record(types.ManifestEntry{
		Identifier: identifier,
		Stage:      st,
		Path:       artifact,
		Status:     types.ArtifactFailed,
		Error:      err.Error(),
	})
	return types.Outcome{
		Identifier: identifier,
		Stage:      st,
		Status:     types.OutcomeFailed,
		Kind:       kind,
		Artifact:   artifact,
		Err:        err,
		Duration:   o.now().Sub(start),
	}
}

// canceled builds the outcome for a stage that never started because the
// run was canceled. The manifest is left alone: it still describes where the
// identifier's artifact is.
func (o *Orchestrator) canceled(identifier string, st types.Stage, err error) types.Outcome {
	o.log.Warn("stage not started", "stage", st, "source", identifier, "error", err)
	return types.Outcome{
		Identifier: identifier,
		Stage:      st,
		Status:     types.OutcomeFailed,
		Kind:       types.FailureCanceled,
		Err:        err,
	}
}

// record saves a manifest entry. A manifest write failure is logged, not
// fatal: the artifacts themselves are already in place.
func (o *Orchestrator) record(e types.ManifestEntry) {
	if err := o.manifest.Record(e); err != nil {
		o.log.Warn("manifest update failed", "source", e.Identifier, "error", err)
	}
}

// Classify maps an error from a stage to its failure kind. It returns
// types.FailureNone for nil and for errors it cannot attribute.
func Classify(err error) types.FailureKind {
	var exitErr *process.ExitError
	switch {
	case err == nil:
		return types.FailureNone
	case errors.Is(err, context.Canceled):
		return types.FailureCanceled
	case errors.Is(err, types.ErrArtifactNotFound):
		return types.FailureNotFound
	case errors.Is(err, ErrAmbiguousArtifact):
		return types.FailureAmbiguous
	case errors.As(err, &exitErr), errors.Is(err, context.DeadlineExceeded):
		return types.FailureProcess
	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrExist), errors.Is(err, os.ErrPermission):
		return types.FailureIO
	}
	var pathErr *os.PathError
	var linkErr *os.LinkError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) {
		return types.FailureIO
	}
	return types.FailureNone
}
