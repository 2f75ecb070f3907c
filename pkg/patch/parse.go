package patch

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Parser converts unified-diff text into patches. The zero value is ready to
// use. Logger receives advisory diagnostics, such as hunk headers whose
// declared counts disagree with the observed line counts.
type Parser struct {
	Logger *zap.Logger
}

// ParseUnified parses unified-diff text into patches without logging.
func ParseUnified(input string) ([]Patch, error) {
	p := Parser{}
	return p.Parse(input)
}

// Parse converts the textual representation of a unified diff into patches.
func (p *Parser) Parse(input string) ([]Patch, error) {
	lines, _ := splitLines(input)
	return p.parseLines(lines, 0)
}

type parseState int

const (
	seekingHeader parseState = iota
	expectingPlusHeader
	seekingHunk
	inHunk
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// gitHeaderPrefixes are the extended headers Git interleaves between file
// sections. They terminate a hunk but are never absorbed as context.
var gitHeaderPrefixes = []string{
	"diff --git",
	"index ",
	"new file mode",
	"deleted file mode",
	"rename from",
	"rename to",
	"similarity index",
}

func isGitHeader(line string) bool {
	for _, prefix := range gitHeaderPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// parseLines runs the parser state machine. offset is the number of original
// input lines preceding lines[0], so parse errors report absolute 1-based
// line numbers even for diffs embedded in markdown.
func (p *Parser) parseLines(lines []string, offset int) ([]Patch, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		patches []Patch
		cur     *Patch
		curHunk *Hunk
		oldPath string
		state   = seekingHeader
	)

	flushHunk := func() {
		if curHunk == nil || cur == nil {
			curHunk = nil
			return
		}
		validateHunkCounts(curHunk, cur.Path(), logger)
		cur.Hunks = append(cur.Hunks, *curHunk)
		curHunk = nil
	}

	flushPatch := func() {
		flushHunk()
		if cur != nil && len(cur.Hunks) > 0 {
			patches = append(patches, *cur)
		}
		cur = nil
	}

	startHunk := func(line string, lineNo int) *ParseError {
		m := hunkHeaderRe.FindStringSubmatch(line)
		if m == nil {
			return &ParseError{
				Line:    lineNo,
				Code:    CodeMalformedHunkHeader,
				Message: fmt.Sprintf("malformed hunk header %q", line),
			}
		}
		curHunk = &Hunk{
			OldStart: atoiDefault(m[1], 0),
			OldCount: atoiDefault(m[2], 1),
			NewStart: atoiDefault(m[3], 0),
			NewCount: atoiDefault(m[4], 1),
		}
		return nil
	}

	for i, line := range lines {
		lineNo := offset + i + 1

		switch state {
		case seekingHeader:
			if rest, ok := strings.CutPrefix(line, "--- "); ok {
				oldPath = extractHeaderPath(rest)
				state = expectingPlusHeader
			}

		case expectingPlusHeader:
			switch {
			case strings.HasPrefix(line, "+++ "):
				newPath := extractHeaderPath(line[len("+++ "):])
				cur = &Patch{OldPath: oldPath, NewPath: newPath, EndsWithNewline: true}
				state = seekingHunk
			case strings.TrimSpace(line) == "":
				// tolerated between headers
			case isGitHeader(line):
				// continued metadata between headers
			case strings.HasPrefix(line, "--- "):
				oldPath = extractHeaderPath(line[len("--- "):])
			default:
				return nil, &ParseError{
					Line:    lineNo,
					Code:    CodeMissingPlusHeader,
					Message: fmt.Sprintf("expected +++ header after --- %s, got %q", oldPath, line),
				}
			}

		case seekingHunk:
			switch {
			case strings.HasPrefix(line, "@@"):
				if err := startHunk(line, lineNo); err != nil {
					return nil, err
				}
				state = inHunk
			case strings.HasPrefix(line, "--- "):
				flushPatch()
				oldPath = extractHeaderPath(line[len("--- "):])
				state = expectingPlusHeader
			default:
				// prose and git metadata between the headers and the
				// first hunk are ignored
			}

		case inHunk:
			switch {
			case strings.HasPrefix(line, "@@"):
				flushHunk()
				if err := startHunk(line, lineNo); err != nil {
					return nil, err
				}
			case strings.HasPrefix(line, "--- "):
				flushPatch()
				oldPath = extractHeaderPath(line[len("--- "):])
				state = expectingPlusHeader
			case isGitHeader(line):
				flushPatch()
				state = seekingHeader
			case line == "":
				curHunk.Lines = append(curHunk.Lines, HunkLine{Kind: LineContext})
			case line[0] == ' ':
				curHunk.Lines = append(curHunk.Lines, HunkLine{Kind: LineContext, Content: line[1:]})
			case line[0] == '+':
				curHunk.Lines = append(curHunk.Lines, HunkLine{Kind: LineAddition, Content: line[1:]})
			case line[0] == '-':
				curHunk.Lines = append(curHunk.Lines, HunkLine{Kind: LineDeletion, Content: line[1:]})
			case line[0] == '\\':
				if cur != nil {
					cur.EndsWithNewline = false
				}
			default:
				logger.Debug("ignoring unclassifiable hunk line",
					zap.Int("line", lineNo), zap.String("text", line))
			}
		}
	}

	flushPatch()
	return patches, nil
}

// validateHunkCounts compares the header's declared counts against the
// observed line counts. Mismatches are advisory; observed counts win.
func validateHunkCounts(h *Hunk, path string, logger *zap.Logger) {
	oldSeen, newSeen := 0, 0
	for _, line := range h.Lines {
		switch line.Kind {
		case LineContext:
			oldSeen++
			newSeen++
		case LineDeletion:
			oldSeen++
		case LineAddition:
			newSeen++
		}
	}
	if h.OldCount != oldSeen || h.NewCount != newSeen {
		logger.Warn("hunk header counts disagree with observed lines",
			zap.String("path", path),
			zap.Int("declaredOld", h.OldCount), zap.Int("observedOld", oldSeen),
			zap.Int("declaredNew", h.NewCount), zap.Int("observedNew", newSeen))
	}
}

// extractHeaderPath pulls the path out of a ---/+++ header remainder. It
// drops a trailing tab-separated timestamp and strips a single leading a/ or
// b/ segment; DevNull is preserved verbatim.
func extractHeaderPath(rest string) string {
	if tab := strings.IndexByte(rest, '\t'); tab >= 0 {
		rest = rest[:tab]
	}
	path := strings.TrimSpace(rest)
	if path == DevNull {
		return path
	}
	if trimmed, ok := strings.CutPrefix(path, "a/"); ok {
		return trimmed
	}
	if trimmed, ok := strings.CutPrefix(path, "b/"); ok {
		return trimmed
	}
	return path
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
