package parsers

import "strings"

// Entry is one candidate pattern read from an import source.
type Entry struct {
	Line int    // 1-based source line
	Raw  string // token as written, comments and BOM removed
}

// stripLineBOM removes a UTF-8 byte order mark from the start of a line.
func stripLineBOM(line string) string {
	return strings.TrimPrefix(line, "\uFEFF")
}

// classifyLine reports whether a line is blank or a whole-line '#' comment.
func classifyLine(line string) (isEmpty, isComment bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true, false
	}
	return false, strings.HasPrefix(trimmed, "#")
}

// stripInlineComment cuts everything from the first '#'.
func stripInlineComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// dedupe drops entries whose raw token (case-insensitive) was already seen,
// keeping the first occurrence.
func dedupe(in []Entry) []Entry {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, e := range in {
		key := strings.ToLower(e.Raw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
