package outcome

import (
	"strconv"
	"strings"
)

// DefaultExcerptLines is how many trailing output lines a diagnostic keeps.
const DefaultExcerptLines = 12

// Excerpt returns the last maxLines non-blank lines of stdout followed by
// stderr. maxLines <= 0 keeps everything.
func Excerpt(stdout, stderr []byte, maxLines int) string {
	var lines []string
	for _, chunk := range [][]byte{stdout, stderr} {
		for _, line := range strings.Split(strings.ReplaceAll(string(chunk), "\r", "\n"), "\n") {
			line = strings.TrimRight(line, " \t")
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, line)
		}
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = append([]string{"..."}, lines[len(lines)-maxLines:]...)
	}
	return strings.Join(lines, "\n")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
