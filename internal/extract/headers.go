package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// edgeLines is how many lines at the top and bottom of a page are considered
// header or footer candidates.
const edgeLines = 3

// pageNumber matches labelled page numbers such as "Page 3" or "3 of 10". A
// bare number is only stripped when it repeats like any other edge line.
var pageNumber = regexp.MustCompile(`(?i)^(?:page\s*\d{1,4}(?:\s*(?:/|of)\s*\d{1,4})?|\d{1,4}\s*(?:/|of)\s*\d{1,4})$`)

// stripRepeatedLines removes header and footer lines: edge lines that repeat
// on at least max(2, ceil(pages/2)) pages, and labelled page numbers. Digit
// runs are ignored when comparing lines so "Page 9" and "Page 10" count as
// one line.
func stripRepeatedLines(pages [][]string) ([][]string, int) {
	nonEmpty := 0
	for _, lines := range pages {
		if len(lines) > 0 {
			nonEmpty++
		}
	}

	threshold := max(2, (nonEmpty+1)/2)
	counts := make(map[string]int)
	if nonEmpty >= 2 {
		for _, lines := range pages {
			seen := make(map[string]bool)
			for _, idx := range edgeIndexes(len(lines)) {
				key := lineKey(lines[idx])
				if key == "" || seen[key] {
					continue
				}
				seen[key] = true
				counts[key]++
			}
		}
	}

	stripped := 0
	out := make([][]string, len(pages))
	for p, lines := range pages {
		edges := make(map[int]bool)
		for _, idx := range edgeIndexes(len(lines)) {
			edges[idx] = true
		}
		kept := make([]string, 0, len(lines))
		for i, line := range lines {
			if edges[i] && (counts[lineKey(line)] >= threshold || pageNumber.MatchString(line)) {
				stripped++
				continue
			}
			kept = append(kept, line)
		}
		out[p] = kept
	}

	return out, stripped
}

func edgeIndexes(n int) []int {
	if n <= 2*edgeLines {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, 0, 2*edgeLines)
	for i := 0; i < edgeLines; i++ {
		idx = append(idx, i)
	}
	for i := n - edgeLines; i < n; i++ {
		idx = append(idx, i)
	}
	return idx
}

func lineKey(line string) string {
	var b strings.Builder
	digits := false
	for _, r := range line {
		switch {
		case unicode.IsDigit(r):
			if !digits {
				b.WriteByte('#')
			}
			digits = true
			continue
		case unicode.IsSpace(r):
		default:
			b.WriteRune(unicode.ToLower(r))
		}
		digits = false
	}
	return b.String()
}
