package patch

import (
	"fmt"
	"strings"
)

// ExtractMarkdownPatches scans markdown text for fenced code blocks that
// contain unified diffs and parses each candidate without logging.
func ExtractMarkdownPatches(input string) ([]Patch, error) {
	p := Parser{}
	return p.ExtractMarkdown(input)
}

// ExtractMarkdown walks the input line by line looking for fenced code
// blocks. A block closes at the first line whose leading backtick run is at
// least as long as the opener's; shorter runs are nested fences and belong to
// the content. Every block is examined regardless of its info-string, but
// parse errors only propagate for blocks explicitly tagged diff or patch.
func (p *Parser) ExtractMarkdown(input string) ([]Patch, error) {
	lines, _ := splitLines(input)
	var patches []Patch

	i := 0
	for i < len(lines) {
		ticks := fenceTicks(lines[i])
		if ticks == 0 {
			i++
			continue
		}
		indent := leadingWhitespace(lines[i])
		info := fenceInfo(lines[i])

		end := -1
		for j := i + 1; j < len(lines); j++ {
			if closesFence(lines[j], ticks) {
				end = j
				break
			}
		}
		if end < 0 {
			return nil, &ParseError{
				Line:    i + 1,
				Code:    CodeUnterminatedFence,
				Message: fmt.Sprintf("code fence opened on line %d is never closed", i+1),
			}
		}

		content := make([]string, 0, end-i-1)
		for _, line := range lines[i+1 : end] {
			content = append(content, strings.TrimPrefix(line, indent))
		}

		if containsTopLevelDiffHeader(content) {
			blockPatches, err := p.parseLines(content, i+1)
			switch {
			case err != nil && isDiffInfo(info):
				return nil, err
			case err != nil:
				// lenient mode: a block that merely resembles a diff
				// is skipped, not fatal
			default:
				patches = append(patches, blockPatches...)
			}
		}
		i = end + 1
	}

	return patches, nil
}

// closesFence reports whether line closes a fence opened with open backticks:
// its leading non-whitespace must be a run of at least open backticks and
// nothing else.
func closesFence(line string, open int) bool {
	trimmed := strings.TrimLeft(line, " \t")
	n := 0
	for n < len(trimmed) && trimmed[n] == '`' {
		n++
	}
	if n < open {
		return false
	}
	return strings.TrimSpace(trimmed[n:]) == ""
}

// containsTopLevelDiffHeader reports whether the block content has a `--- `
// line outside any nested fence. Blocks without one are not diff candidates.
func containsTopLevelDiffHeader(content []string) bool {
	var stack []int
	for _, line := range content {
		if n := fenceTicks(line); n > 0 {
			if len(stack) == 0 {
				stack = append(stack, n)
			} else if n >= stack[len(stack)-1] {
				stack = stack[:len(stack)-1]
			} else {
				stack = append(stack, n)
			}
			continue
		}
		if len(stack) == 0 && strings.HasPrefix(line, "--- ") {
			return true
		}
	}
	return false
}

// fenceInfo returns the info-string of an opening fence line.
func fenceInfo(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	trimmed = strings.TrimLeft(trimmed, "`")
	return strings.TrimSpace(trimmed)
}

// isDiffInfo reports whether the info-string explicitly marks a diff block.
func isDiffInfo(info string) bool {
	first, _, _ := strings.Cut(info, " ")
	return first == "diff" || first == "patch"
}

func leadingWhitespace(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return line[:i]
		}
	}
	return line
}
