package stacktrace

import "strings"

// InternalPaths extracts the "internal/...go:line" frames from a debug.Stack dump.
// Frames from the standard library and third-party modules are skipped.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "/") && !strings.Contains(line, ":\\") {
			continue
		}

		at := strings.Index(line, "/internal/")
		if at == -1 || !strings.Contains(line, ".go:") {
			continue
		}

		frame := line[at+1:]
		if sp := strings.IndexByte(frame, ' '); sp != -1 {
			frame = frame[:sp]
		}
		paths = append(paths, frame)
	}
	return paths
}
