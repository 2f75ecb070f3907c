package patch

import "context"

// ApplyToMemory applies patches to an in-memory document store represented
// by a map. The provided map is copied before mutation and the updated
// snapshot is returned alongside the per-patch reports.
func ApplyToMemory(ctx context.Context, patches []Patch, files map[string]string, opts Options) (map[string]string, []Report, error) {
	snapshot := make(map[string]string, len(files))
	for k, v := range files {
		snapshot[k] = v
	}
	ws := &memoryWorkspace{files: snapshot}
	reports, err := apply(ctx, patches, ws, opts)
	if err != nil {
		return nil, nil, err
	}
	return ws.files, reports, nil
}

// ApplyMemoryPatch auto-detects and parses a raw payload, then applies it to
// an in-memory map of files.
func ApplyMemoryPatch(ctx context.Context, payload string, files map[string]string, opts Options) (map[string]string, []Report, error) {
	patches, err := ParseAuto(payload)
	if err != nil {
		return nil, nil, err
	}
	return ApplyToMemory(ctx, patches, files, opts)
}

type memoryWorkspace struct {
	files map[string]string
}

func (ws *memoryWorkspace) Validate(path string) *Error {
	return ValidateRelPath("", path)
}

func (ws *memoryWorkspace) Load(path string) (string, bool, *Error) {
	content, ok := ws.files[cleanRelPath(path)]
	return content, ok, nil
}

func (ws *memoryWorkspace) Store(path, content string) *Error {
	ws.files[cleanRelPath(path)] = content
	return nil
}
