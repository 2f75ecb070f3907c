package patch

import (
	"path"
	"path/filepath"
	"strings"
)

// ValidateRelPath rejects candidate paths that would escape root. The check
// is purely lexical: `.` and `..` components are resolved textually and the
// filesystem is never consulted, so it is equally safe for dry runs. root may
// be empty for workspaces without a directory notion, in which case only the
// candidate itself is checked.
func ValidateRelPath(root, candidate string) *Error {
	if strings.TrimSpace(candidate) == "" {
		return &Error{Code: CodeEmptyPath, Message: "empty target path"}
	}

	slashed := filepath.ToSlash(candidate)
	if path.IsAbs(slashed) || filepath.IsAbs(candidate) {
		return &Error{
			Code:    CodePathUnsafe,
			Path:    candidate,
			Message: "absolute paths are not allowed: " + candidate,
		}
	}

	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return &Error{
			Code:    CodePathUnsafe,
			Path:    candidate,
			Message: "path escapes the target directory: " + candidate,
		}
	}

	if root != "" {
		rootClean := filepath.Clean(root)
		joined := filepath.Clean(filepath.Join(rootClean, filepath.FromSlash(cleaned)))
		rel, err := filepath.Rel(rootClean, joined)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return &Error{
				Code:    CodePathUnsafe,
				Path:    candidate,
				Message: "path escapes the target directory: " + candidate,
			}
		}
	}
	return nil
}

// cleanRelPath normalizes a validated relative path to slash form for use as
// a workspace key.
func cleanRelPath(candidate string) string {
	return path.Clean(filepath.ToSlash(candidate))
}
