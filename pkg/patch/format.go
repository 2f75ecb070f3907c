package patch

import (
	"fmt"
	"strings"
)

// RenderUnified renders a patch back to canonical unified-diff text.
// Re-parsing the result yields an equal patch.
func RenderUnified(p *Patch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", formatHeaderPath(p.OldPath, "a/"))
	fmt.Fprintf(&b, "+++ %s\n", formatHeaderPath(p.NewPath, "b/"))
	for i := range p.Hunks {
		h := &p.Hunks[i]
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, line := range h.Lines {
			switch line.Kind {
			case LineAddition:
				b.WriteByte('+')
			case LineDeletion:
				b.WriteByte('-')
			default:
				b.WriteByte(' ')
			}
			b.WriteString(line.Content)
			b.WriteByte('\n')
		}
	}
	if !p.EndsWithNewline {
		b.WriteString("\\ No newline at end of file\n")
	}
	return b.String()
}

func formatHeaderPath(path, prefix string) string {
	if path == "" || path == DevNull {
		return path
	}
	return prefix + path
}

// Invert returns a patch that undoes p: paths swapped, additions and
// deletions exchanged, header ranges mirrored. Applying the inverse to a
// cleanly patched file restores the original.
func Invert(p *Patch) *Patch {
	inv := &Patch{
		OldPath:         p.NewPath,
		NewPath:         p.OldPath,
		EndsWithNewline: p.EndsWithNewline,
		Hunks:           make([]Hunk, 0, len(p.Hunks)),
	}
	for i := range p.Hunks {
		h := &p.Hunks[i]
		ih := Hunk{
			OldStart: h.NewStart,
			OldCount: h.NewCount,
			NewStart: h.OldStart,
			NewCount: h.OldCount,
			Lines:    make([]HunkLine, 0, len(h.Lines)),
		}
		for _, line := range h.Lines {
			switch line.Kind {
			case LineAddition:
				ih.Lines = append(ih.Lines, HunkLine{Kind: LineDeletion, Content: line.Content})
			case LineDeletion:
				ih.Lines = append(ih.Lines, HunkLine{Kind: LineAddition, Content: line.Content})
			default:
				ih.Lines = append(ih.Lines, line)
			}
		}
		inv.Hunks = append(inv.Hunks, ih)
	}
	return inv
}
