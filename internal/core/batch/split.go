// Package batch splits a pasted blob of one or more reminder emails into
// individual fragments.
package batch

import (
	"strings"
)

// Delimiter is the separator line between emails in a pasted batch.
const Delimiter = "---"

// Split cuts raw on lines consisting solely of Delimiter (surrounding spaces,
// tabs and carriage returns are ignored). Each fragment is trimmed; fragments
// that are whitespace-only are discarded, everything else is kept in order.
// Empty input yields an empty, non-nil slice.
func Split(raw string) []string {
	out := make([]string, 0, 4)
	if strings.TrimSpace(raw) == "" {
		return out
	}

	var cur strings.Builder
	flush := func() {
		if frag := strings.TrimSpace(cur.String()); frag != "" {
			out = append(out, frag)
		}
		cur.Reset()
	}

	for _, line := range strings.Split(raw, "\n") {
		if isDelimiter(line) {
			flush()
			continue
		}
		cur.WriteString(strings.TrimSuffix(line, "\r"))
		cur.WriteByte('\n')
	}
	flush()
	return out
}

func isDelimiter(line string) bool {
	return strings.Trim(line, " \t\r") == Delimiter
}
