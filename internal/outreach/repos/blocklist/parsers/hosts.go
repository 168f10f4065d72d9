package parsers

import (
	"bufio"
	"io"
	"strings"

	"github.com/haukened/outreach-gate/internal/outreach/common/log"
)

// ParseHostsFile reads /etc/hosts style lines ("<ip> <name> [<name>...]") and
// returns every hostname as a plain pattern. The address column is ignored,
// so sinkhole lists pointing at 0.0.0.0 or 127.0.0.1 import as is.
//
// Hosts syntax has no wildcards: tokens containing '*' or starting with '.'
// are skipped, as is "localhost".
func ParseHostsFile(r io.Reader, logger log.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	out := make([]Entry, 0, 64)
	lineNum := 0
	skipped := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())
		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}
		fields := strings.Fields(stripInlineComment(line))
		if len(fields) < 2 {
			skipped++
			continue
		}
		for _, name := range fields[1:] {
			if strings.HasPrefix(name, ".") || strings.Contains(name, "*") || strings.EqualFold(name, "localhost") {
				skipped++
				continue
			}
			out = append(out, Entry{Line: lineNum, Raw: name})
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn(map[string]any{"line": lineNum, "error": err}, "hosts file scan failed")
		return nil, err
	}
	out = dedupe(out)
	logger.Debug(map[string]any{"count": len(out), "lines": lineNum, "skipped": skipped}, "hosts file parsed")
	return out, nil
}
