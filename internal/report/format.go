package report

import (
	"strconv"
	"strings"
)

// formatNOK renders whole kroner with space-grouped thousands, the way
// FINN itself displays prices.
func formatNOK(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}

	s := strconv.Itoa(n)
	if len(s) > 3 {
		var b strings.Builder
		lead := len(s) % 3
		if lead > 0 {
			b.WriteString(s[:lead])
		}
		for i := lead; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}

	if neg {
		s = "-" + s
	}
	return s + " kr"
}

// clip truncates a string to at most limit runes.
func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
