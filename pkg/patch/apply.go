package patch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// workspace abstracts the storage a patch driver reads and writes, so the
// same driver serves the filesystem and in-memory snapshots.
type workspace interface {
	// Validate rejects paths the driver must not touch.
	Validate(path string) *Error
	// Load returns the raw content at path; exists is false for absent files.
	Load(path string) (content string, exists bool, err *Error)
	// Store persists content at path.
	Store(path, content string) *Error
}

// apply drives the patches sequentially over the workspace. Per-hunk and
// per-patch failures land in the reports; only context cancellation and a
// missing workspace surface as errors.
func apply(ctx context.Context, patches []Patch, ws workspace, opts Options) ([]Report, error) {
	if ws == nil {
		return nil, errors.New("nil workspace")
	}
	reports := make([]Report, 0, len(patches))
	for i := range patches {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		reports = append(reports, applyOne(&patches[i], ws, opts))
	}
	return reports, nil
}

func applyOne(p *Patch, ws workspace, opts Options) Report {
	report := Report{Path: p.Path()}
	if report.Path == "" {
		report.Err = &Error{
			Code:    CodeEmptyPath,
			Message: "patch has no target path; bind one with Patch.BindPath",
		}
		return report
	}
	logger := opts.logger().With(zap.String("path", report.Path))

	if err := ws.Validate(report.Path); err != nil {
		report.Err = err
		return report
	}

	content, exists, lerr := ws.Load(report.Path)
	if lerr != nil {
		report.Err = lerr
		return report
	}
	report.Before = content
	report.After = content

	if p.IsCreate() {
		if exists && content != "" {
			report.Err = &Error{
				Code:    CodeFileExists,
				Path:    report.Path,
				Message: fmt.Sprintf("cannot create %s: file already exists", report.Path),
			}
			return report
		}
	} else if !exists {
		report.Err = &Error{
			Code:    CodeTargetNotFound,
			Path:    report.Path,
			Message: fmt.Sprintf("target file not found: %s", report.Path),
		}
		return report
	}

	lines, endsWithNewline := splitLines(content)
	touched := false

	switch {
	case p.IsDelete():
		lines = nil
		touched = true
		report.Status = "D"
		for i := range p.Hunks {
			report.Hunks = append(report.Hunks, HunkResult{Number: i + 1})
		}

	case p.IsCreate():
		for i := range p.Hunks {
			result := HunkResult{Number: i + 1}
			if fail := validateCreationHunk(p, i); fail != nil {
				result.Failure = fail
			} else {
				lines = p.Hunks[i].NewBlock()
				touched = true
				result.Location = &Location{Start: 0, Type: MatchExact, Score: 1.0}
			}
			report.Hunks = append(report.Hunks, result)
		}

	default:
		finder := opts.finder()
		for i := range p.Hunks {
			hunk := &p.Hunks[i]
			result := HunkResult{Number: i + 1}
			if !hunk.HasChanges() {
				logger.Debug("skipping hunk without changes", zap.Int("hunk", i+1))
				report.Hunks = append(report.Hunks, result)
				continue
			}
			loc, fail := finder.Find(hunk, lines, &opts)
			if fail != nil {
				logger.Warn("hunk did not apply",
					zap.Int("hunk", i+1),
					zap.String("kind", string(fail.Kind)),
					zap.String("detail", fail.Detail))
				result.Failure = fail
				report.Hunks = append(report.Hunks, result)
				continue
			}
			var warnings []string
			lines, result.Replaced, warnings = applyHunk(lines, loc, hunk, logger)
			located := loc
			result.Location = &located
			result.Warnings = warnings
			touched = true
			report.Hunks = append(report.Hunks, result)
		}
	}

	if opts.Strict && report.FailureCount() > 0 {
		// strict mode voids the whole application after the fact and
		// leaves the file untouched
		snapshot := report
		snapshot.Err = nil
		report.Err = &Error{
			Code:    CodePartialApply,
			Path:    report.Path,
			Message: fmt.Sprintf("%d of %d hunks failed for %s", report.FailureCount(), len(report.Hunks), report.Path),
			Report:  &snapshot,
		}
		report.Status = ""
		return report
	}

	if !touched {
		return report
	}

	endsOut := endsWithNewline
	if p.IsCreate() || !exists {
		endsOut = true
	}
	if !p.EndsWithNewline {
		endsOut = false
	}
	report.After = joinLines(lines, endsOut)

	if report.Status == "" {
		if p.IsCreate() || !exists {
			report.Status = "A"
		} else {
			report.Status = "M"
		}
	}

	if !opts.DryRun {
		if err := ws.Store(report.Path, report.After); err != nil {
			report.Err = err
			return report
		}
	}
	return report
}

// validateCreationHunk enforces the creation invariant: exactly one hunk,
// additions only.
func validateCreationHunk(p *Patch, index int) *HunkFailure {
	if index > 0 || len(p.Hunks) != 1 {
		return &HunkFailure{
			Kind:   FailMalformedHunk,
			Detail: "file creation patches must contain exactly one hunk",
		}
	}
	for _, line := range p.Hunks[index].Lines {
		if line.Kind != LineAddition {
			return &HunkFailure{
				Kind:   FailMalformedHunk,
				Detail: "file creation hunks may only contain additions",
			}
		}
	}
	return nil
}
