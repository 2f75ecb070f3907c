package patch

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DevNull is the path unified diffs use to mark file creation and deletion.
const DevNull = "/dev/null"

// LineKind identifies the role of a single hunk line.
type LineKind string

const (
	// LineContext is an unchanged line carried for anchoring.
	LineContext LineKind = "context"
	// LineAddition is a line inserted by the patch.
	LineAddition LineKind = "addition"
	// LineDeletion is a line removed by the patch.
	LineDeletion LineKind = "deletion"
)

// HunkLine is one tagged line of a hunk. Content carries the text without the
// leading prefix character and without a trailing newline.
type HunkLine struct {
	Kind    LineKind
	Content string
}

// Hunk captures one contiguous edit parsed from a `@@ -a,b +c,d @@` section.
// The header numbers are hints only; the finder locates the hunk by content.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []HunkLine
}

// OldBlock returns the Context and Deletion contents in order. This is the
// block the finder searches for in the target file.
func (h *Hunk) OldBlock() []string {
	block := make([]string, 0, len(h.Lines))
	for _, line := range h.Lines {
		if line.Kind != LineAddition {
			block = append(block, line.Content)
		}
	}
	return block
}

// NewBlock returns the Context and Addition contents in order, the text the
// matched region becomes.
func (h *Hunk) NewBlock() []string {
	block := make([]string, 0, len(h.Lines))
	for _, line := range h.Lines {
		if line.Kind != LineDeletion {
			block = append(block, line.Content)
		}
	}
	return block
}

// HasChanges reports whether the hunk contains at least one addition or
// deletion. Context-only hunks are skipped during application.
func (h *Hunk) HasChanges() bool {
	for _, line := range h.Lines {
		if line.Kind != LineContext {
			return true
		}
	}
	return false
}

// Patch represents the changes for a single file.
type Patch struct {
	// OldPath and NewPath come from the ---/+++ headers with a single
	// leading a/ or b/ segment stripped. DevNull marks creation (old) or
	// deletion (new). Both are empty for conflict-marker patches until
	// BindPath is called.
	OldPath string
	NewPath string
	Hunks   []Hunk
	// EndsWithNewline is false when the diff carried a
	// `\ No newline at end of file` marker for the final line.
	EndsWithNewline bool
}

// IsCreate reports whether the patch creates a new file.
func (p *Patch) IsCreate() bool { return p.OldPath == DevNull }

// IsDelete reports whether the patch empties the target file.
func (p *Patch) IsDelete() bool { return p.NewPath == DevNull }

// Path returns the target path the patch should be applied to: the new path
// unless the patch is a deletion, in which case the old path.
func (p *Patch) Path() string {
	if p.NewPath != "" && p.NewPath != DevNull {
		return p.NewPath
	}
	if p.OldPath != "" && p.OldPath != DevNull {
		return p.OldPath
	}
	return ""
}

// BindPath assigns a target path to a patch that was parsed without headers,
// such as one produced by the conflict-marker parser.
func (p *Patch) BindPath(path string) {
	p.OldPath = path
	p.NewPath = path
}

// MatchType records which search stage located a hunk.
type MatchType string

const (
	// MatchExact means the old block matched the target line for line.
	MatchExact MatchType = "exact"
	// MatchWhitespace means the old block matched after trimming
	// surrounding whitespace on both sides.
	MatchWhitespace MatchType = "whitespace"
	// MatchFuzzy means the old block matched by similarity scoring.
	MatchFuzzy MatchType = "fuzzy"
)

// Location is the result of finding a hunk in a target file.
type Location struct {
	// Start is the 0-based line index where the hunk's old block begins.
	Start int
	Type  MatchType
	// Score is the window similarity in [0,1]. Exact and whitespace
	// matches report 1.0.
	Score float64
}

// FailureKind classifies why a hunk could not be located or applied.
type FailureKind string

const (
	FailContextNotFound FailureKind = "context-not-found"
	FailAmbiguousMatch  FailureKind = "ambiguous-match"
	FailBelowThreshold  FailureKind = "below-threshold"
	FailMalformedHunk   FailureKind = "malformed-hunk"
)

// HunkFailure describes a per-hunk failure. It is recorded in the report and
// never aborts the surrounding patch unless strict mode is on.
type HunkFailure struct {
	Kind   FailureKind
	Detail string
	// BestStart and BestScore carry the nearest miss when Kind is
	// FailBelowThreshold, for diagnostics.
	BestStart int
	BestScore float64
}

// HunkResult tracks how a single hunk fared during application.
type HunkResult struct {
	Number   int
	Location *Location
	// Replaced is the number of target lines consumed by the hunk.
	Replaced int
	// Warnings records soft conditions such as stale deletions.
	Warnings []string
	Failure  *HunkFailure
}

// Applied reports whether the hunk was spliced into the target.
func (r *HunkResult) Applied() bool { return r.Failure == nil }

// Report aggregates the outcome of applying one patch.
type Report struct {
	Path string
	// Status mirrors git short status: "A" added, "M" modified, "D"
	// emptied. Empty when the file was not touched.
	Status string
	Hunks  []HunkResult
	// Before and After hold the file content around the application so
	// callers can render proposed changes, e.g. for dry runs.
	Before string
	After  string
	// Err is set when a patch-level fatal error (unsafe path, I/O,
	// strict-mode demotion) prevented or voided the application.
	Err *Error
}

// AllApplied reports whether every hunk applied cleanly and no patch-level
// error occurred.
func (r *Report) AllApplied() bool {
	if r.Err != nil {
		return false
	}
	for i := range r.Hunks {
		if !r.Hunks[i].Applied() {
			return false
		}
	}
	return true
}

// SuccessCount returns the number of hunks that applied.
func (r *Report) SuccessCount() int {
	n := 0
	for i := range r.Hunks {
		if r.Hunks[i].Applied() {
			n++
		}
	}
	return n
}

// FailureCount returns the number of hunks that did not apply.
func (r *Report) FailureCount() int {
	return len(r.Hunks) - r.SuccessCount()
}

// Error codes reported by patch application.
const (
	CodePathUnsafe       = "PATH_UNSAFE"
	CodeEmptyPath        = "EMPTY_PATH"
	CodeFileExists       = "FILE_EXISTS"
	CodeTargetNotFound   = "TARGET_NOT_FOUND"
	CodeTargetIsDir      = "TARGET_IS_DIRECTORY"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeIO               = "IO_ERROR"
	CodePartialApply     = "PARTIAL_APPLY"
)

// Error represents a structured failure while applying a patch. It satisfies
// the error interface so it can be returned directly from Apply* helpers.
type Error struct {
	Code    string
	Path    string
	Message string
	// Report carries the per-hunk outcomes when Code is CodePartialApply.
	Report *Report
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return "patch error"
}

// Parse error codes.
const (
	CodeMissingPlusHeader   = "MISSING_PLUS_HEADER"
	CodeMalformedHunkHeader = "MALFORMED_HUNK_HEADER"
	CodeUnterminatedFence   = "UNTERMINATED_FENCE"
)

// ParseError reports a hard structural problem in the patch text. Line is the
// 1-based line number in the original input, including any surrounding
// markdown the diff was embedded in.
type ParseError struct {
	Line    int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// DefaultFuzzFactor is the similarity threshold used when callers do not pick
// one. 0.0 disables fuzzy matching entirely.
const DefaultFuzzFactor = 0.7

// Options configure how patches are located and applied. The zero value runs
// exact and whitespace matching only, without logging.
type Options struct {
	// DryRun skips file writes; reports still describe what would happen.
	DryRun bool
	// FuzzFactor is the minimum similarity in [0,1] for accepting a fuzzy
	// match. 0.0 disables fuzzy matching.
	FuzzFactor float64
	// Strict converts any hunk failure into a patch-level error and leaves
	// the file untouched.
	Strict bool
	// Finder overrides the built-in layered search strategy.
	Finder Finder
	// Logger receives debug traces and soft warnings. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns Options with fuzzy matching enabled at
// DefaultFuzzFactor.
func DefaultOptions() Options {
	return Options{FuzzFactor: DefaultFuzzFactor}
}

func (o *Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *Options) finder() Finder {
	if o.Finder == nil {
		return ContextFinder{}
	}
	return o.Finder
}

// FilesystemOptions augments Options with the directory patch paths are
// resolved against.
type FilesystemOptions struct {
	Options
	TargetDir string
}

// splitLines normalizes line endings and splits into lines. The returned
// slice never carries a trailing empty element for content ending in a
// newline; endsWithNewline records that convention instead.
func splitLines(input string) (lines []string, endsWithNewline bool) {
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	if normalized == "" {
		return nil, false
	}
	endsWithNewline = strings.HasSuffix(normalized, "\n")
	if endsWithNewline {
		normalized = strings.TrimSuffix(normalized, "\n")
	}
	return strings.Split(normalized, "\n"), endsWithNewline
}

// joinLines is the inverse of splitLines.
func joinLines(lines []string, endsWithNewline bool) string {
	if len(lines) == 0 {
		return ""
	}
	content := strings.Join(lines, "\n")
	if endsWithNewline {
		content += "\n"
	}
	return content
}
