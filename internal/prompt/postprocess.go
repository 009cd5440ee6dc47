package prompt

import (
	"strings"
)

// sectionLabels are the structure headings the description step tends to emit.
var sectionLabels = []string{
	"subject", "appearance", "clothing", "action",
	"environment", "lighting", "camera angle", "camera", "style",
}

// quotePairs lists the opening/closing quote pairs stripped from the ends.
var quotePairs = [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}}

// PostProcess flattens raw model text into one paragraph, appends the fixed
// composition clauses for sel and terminates it with exactly one period.
// Feeding its own output back in returns the same string.
func PostProcess(raw string, sel Selection) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		line = stripLabel(cleanMarkdown(line))
		if line != "" {
			parts = append(parts, line)
		}
	}

	text := collapseSpaces(strings.Join(parts, " "))
	text = stripQuotes(text)

	var clauses []string
	for _, t := range sel.Active() {
		c := t.Clause()
		if !strings.Contains(text, c) {
			clauses = append(clauses, c)
		}
	}
	if len(clauses) > 0 {
		body := strings.TrimRight(strings.TrimSpace(text), ".")
		if body == "" {
			text = strings.Join(clauses, ", ")
		} else {
			text = body + ", " + strings.Join(clauses, ", ")
		}
	}

	return terminate(text)
}

// cleanMarkdown removes bullet, heading and bold markers.
func cleanMarkdown(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*#> ")
	line = strings.ReplaceAll(line, "**", "")
	return strings.TrimSpace(line)
}

// stripLabel drops a leading "label:" when label is a known section heading.
func stripLabel(line string) string {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return line
	}
	head := strings.ToLower(strings.TrimSpace(line[:idx]))
	for _, l := range sectionLabels {
		if head == l {
			return strings.TrimSpace(line[idx+1:])
		}
	}
	return line
}

func collapseSpaces(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}

// stripQuotes removes exactly one matching quote pair wrapping s.
func stripQuotes(s string) string {
	for _, q := range quotePairs {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			return strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
		}
	}
	return s
}

// terminate ensures a single trailing period. Empty input stays empty.
func terminate(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), ". ")
	if s == "" {
		return ""
	}
	return s + "."
}
