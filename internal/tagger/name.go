package tagger

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/spigell/resume-screener/internal/taxonomy"
)

// nameLines is how many lines from the top of a resume are searched for the
// candidate name.
const nameLines = 10

var (
	nameLabel = regexp.MustCompile(`(?i)^(?:full\s+)?name\s*[:\-]\s*(.+)$`)
	// A name is two to four capitalised words, optionally with one middle
	// initial: "Jane Doe", "John A. Smith", "Mary-Jane O'Neil".
	namePattern = regexp.MustCompile(`^\p{Lu}[\p{Ll}'’-]+(?:\s+\p{Lu}\.?)?(?:\s+\p{Lu}[\p{Ll}'’-]+){1,3}$`)
	contactLine = regexp.MustCompile(`(?i)@\w|\d{3}.*\d{3}.*\d{4}|\b(?:street|st\.|road|avenue|drive|email|e-mail|phone|tel)\b`)
)

// candidateName returns the name written at the top of the resume, or "" when
// no line looks like one. Lines with contact details, known skills or job
// title words are skipped.
func (t *Tagger) candidateName(text string) string {
	lines := strings.Split(text, "\n")
	titles := t.tax.TitleKeywords()

	for _, line := range lines[:min(nameLines, len(lines))] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := nameLabel.FindStringSubmatch(line); m != nil {
			if name := strings.TrimSpace(m[1]); namePattern.MatchString(name) {
				return name
			}
			continue
		}
		if contactLine.MatchString(line) || !namePattern.MatchString(line) {
			continue
		}
		if containsAny(taxonomy.Tokenize(line), titles) || t.hasExactSkill(line) {
			continue
		}
		return line
	}
	return ""
}

func (t *Tagger) hasExactSkill(line string) bool {
	for _, h := range t.FindSkills(line) {
		if h.Distance == 0 {
			return true
		}
	}
	return false
}

// KeyTerms returns the sorted distinct content words of text: tokens of at
// least three characters with a letter that are not common filler words.
func KeyTerms(text string) []string {
	var terms []string
	for _, tok := range taxonomy.Tokenize(text) {
		if utf8.RuneCountInString(tok) < 3 || !hasLetter(tok) || commonWords[tok] || stopWords[tok] {
			continue
		}
		terms = append(terms, tok)
	}
	slices.Sort(terms)
	return slices.Compact(terms)
}

var commonWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "you": true, "our": true,
	"are": true, "was": true, "were": true, "will": true, "this": true, "that": true,
	"from": true, "have": true, "has": true, "had": true, "not": true, "but": true,
	"all": true, "any": true, "can": true, "who": true, "into": true, "over": true,
	"their": true, "they": true, "them": true, "your": true, "about": true,
	"also": true, "more": true, "most": true, "other": true, "such": true,
	"than": true, "then": true, "there": true, "these": true, "those": true,
	"what": true, "when": true, "where": true, "which": true, "while": true,
	"would": true, "been": true, "being": true, "each": true, "per": true,
	"using": true, "used": true, "use": true, "well": true, "work": true,
	"must": true, "need": true, "plus": true, "nice": true, "bonus": true,
	"year": true, "etc": true,
}
