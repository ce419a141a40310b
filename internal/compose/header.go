package compose

import (
	"regexp"
	"strings"
)

// Scanned books print the page number alone on the first line, either
// bracketed or set off with dashes.
var pageLabelRes = []*regexp.Regexp{
	regexp.MustCompile(`^[\[(【〔「]\s*(\d{1,4})\s*[\])】〕」]$`),
	regexp.MustCompile(`^[-‐−ー]+\s*(\d{1,4})\s*[-‐−ー]+$`),
}

// ExtractPageLabel reports the printed page number when the line is
// nothing but one, so the compositor can render it as a centered
// header instead of body text.
func ExtractPageLabel(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	for _, re := range pageLabelRes {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}
