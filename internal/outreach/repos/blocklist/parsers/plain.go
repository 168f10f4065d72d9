package parsers

import (
	"bufio"
	"io"
	"strings"

	"github.com/haukened/outreach-gate/internal/outreach/common/log"
)

// ParsePlainList reads one pattern per line.
//
// Behavior:
// - '#' starts a comment, whole-line or inline
// - blank lines are skipped
// - the first whitespace separated token of a line is the pattern; the rest is ignored
// - tokens are deduplicated case-insensitively, first occurrence wins
//
// Tokens are not validated here; the repository normalizes each one and
// reports the ones that fail.
func ParsePlainList(r io.Reader, logger log.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	out := make([]Entry, 0, 64)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())
		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}
		fields := strings.Fields(stripInlineComment(line))
		if len(fields) == 0 {
			continue
		}
		out = append(out, Entry{Line: lineNum, Raw: fields[0]})
	}
	if err := scanner.Err(); err != nil {
		logger.Warn(map[string]any{"line": lineNum, "error": err}, "plain list scan failed")
		return nil, err
	}
	out = dedupe(out)
	logger.Debug(map[string]any{"count": len(out), "lines": lineNum}, "plain list parsed")
	return out, nil
}
