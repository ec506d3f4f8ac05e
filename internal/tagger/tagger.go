// Package tagger turns normalized resume text into a candidate profile:
// canonical skills, titles, years of experience and contact details.
package tagger

import (
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/taxonomy"
)

const (
	DefaultMaxEditDistance = 2
	DefaultFuzzyMinLength  = 6

	// longAliasLength is the alias length from which the full edit distance
	// budget applies. Shorter aliases accept a single edit only.
	longAliasLength = 9
	maxTitles       = 5
)

// Options tune the fuzzy fallback. Zero values mean defaults.
type Options struct {
	MaxEditDistance int `mapstructure:"max-edit-distance"`
	FuzzyMinLength  int `mapstructure:"fuzzy-min-length"`
	// DisableFuzzy turns the edit-distance fallback off entirely.
	DisableFuzzy bool `mapstructure:"disable-fuzzy"`
}

// Hit is one skill occurrence found in text.
type Hit struct {
	Skill screening.SkillID
	// Term is the text as found, Alias the taxonomy term it resolved to.
	Term     string
	Alias    string
	Distance int
}

type Tagger struct {
	tax  *taxonomy.Taxonomy
	opts Options
}

func New(tax *taxonomy.Taxonomy, opts Options) *Tagger {
	if opts.MaxEditDistance <= 0 || opts.MaxEditDistance > DefaultMaxEditDistance {
		opts.MaxEditDistance = DefaultMaxEditDistance
	}
	if opts.FuzzyMinLength <= 0 {
		opts.FuzzyMinLength = DefaultFuzzyMinLength
	}
	return &Tagger{tax: tax, opts: opts}
}

// Tag builds a profile with default options.
func Tag(text screening.NormalizedText, tax *taxonomy.Taxonomy) screening.CandidateProfile {
	return New(tax, Options{}).Tag(text)
}

func (t *Tagger) Tag(text screening.NormalizedText) screening.CandidateProfile {
	hits := t.FindSkills(text.Text)

	skills := make([]screening.SkillID, 0, len(hits))
	exact := make(map[screening.SkillID]bool, len(hits))
	for _, h := range hits {
		skills = append(skills, h.Skill)
		if h.Distance == 0 {
			exact[h.Skill] = true
		}
	}
	slices.Sort(skills)
	skills = slices.Compact(skills)

	var fuzzy []screening.FuzzyMatch
	seen := make(map[screening.SkillID]bool)
	for _, h := range hits {
		if h.Distance == 0 || exact[h.Skill] || seen[h.Skill] {
			continue
		}
		seen[h.Skill] = true
		fuzzy = append(fuzzy, screening.FuzzyMatch{
			Term:       h.Term,
			Skill:      h.Skill,
			Distance:   h.Distance,
			Confidence: confidence(h.Distance, h.Alias),
		})
	}
	slices.SortFunc(fuzzy, func(a, b screening.FuzzyMatch) int {
		return strings.Compare(string(a.Skill), string(b.Skill))
	})

	return screening.CandidateProfile{
		DocumentID:      text.DocumentID,
		Name:            t.candidateName(text.Text),
		Skills:          skills,
		Titles:          t.titles(text.Text),
		ExperienceYears: ExperienceYears(text.Text),
		Contact:         ExtractContact(text.Text),
		Education:       t.education(text.Text),
		FuzzyMatches:    fuzzy,
		Terms:           KeyTerms(text.Text),
	}
}

// FindSkills returns skill hits in text order. The longest alias starting at a
// token wins, and an alias only matches whole tokens.
func (t *Tagger) FindSkills(text string) []Hit {
	tokens := taxonomy.Tokenize(text)
	maxN := t.tax.MaxAliasTokens()

	var hits []Hit
	for i := 0; i < len(tokens); {
		matched := 0
		for n := min(maxN, len(tokens)-i); n >= 1; n-- {
			if alias, ok := t.tax.Lookup(tokens[i : i+n]); ok {
				hits = append(hits, Hit{Skill: alias.Skill, Term: alias.Term, Alias: alias.Term})
				matched = n
				break
			}
		}
		if matched > 0 {
			i += matched
			continue
		}

		if hit, ok := t.fuzzy(tokens[i]); ok {
			hits = append(hits, hit)
		}
		i++
	}

	return hits
}

func (t *Tagger) fuzzy(token string) (Hit, bool) {
	if t.opts.DisableFuzzy {
		return Hit{}, false
	}
	tokenLen := utf8.RuneCountInString(token)
	if tokenLen < t.opts.FuzzyMinLength || stopWords[token] || !hasLetter(token) {
		return Hit{}, false
	}

	best := Hit{Distance: math.MaxInt}
	for _, alias := range t.tax.FuzzyAliases() {
		aliasLen := utf8.RuneCountInString(alias.Term)
		if aliasLen < t.opts.FuzzyMinLength {
			continue
		}
		allowed := t.allowedDistance(aliasLen)
		if abs(aliasLen-tokenLen) > allowed {
			continue
		}
		d := levenshtein.ComputeDistance(token, alias.Term)
		if d == 0 || d > allowed || d >= best.Distance {
			continue
		}
		best = Hit{Skill: alias.Skill, Term: token, Alias: alias.Term, Distance: d}
	}

	if best.Skill == "" {
		return Hit{}, false
	}
	return best, true
}

func (t *Tagger) allowedDistance(aliasLen int) int {
	if aliasLen < longAliasLength {
		return min(1, t.opts.MaxEditDistance)
	}
	return t.opts.MaxEditDistance
}

func (t *Tagger) titles(text string) []string {
	keywords := t.tax.TitleKeywords()
	if len(keywords) == 0 {
		return nil
	}

	var titles []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "@") {
			continue
		}
		tokens := taxonomy.Tokenize(line)
		if len(tokens) == 0 || len(tokens) > 8 {
			continue
		}
		if !containsAny(tokens, keywords) {
			continue
		}
		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		titles = append(titles, line)
		if len(titles) == maxTitles {
			break
		}
	}
	return titles
}

func (t *Tagger) education(text string) string {
	keywords := t.tax.EducationKeywords()
	if len(keywords) == 0 {
		return ""
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !containsAny(taxonomy.Tokenize(line), keywords) {
			continue
		}
		parts := make([]string, 0, 5)
		for _, l := range lines[i:min(i+5, len(lines))] {
			if l = strings.TrimSpace(l); l != "" {
				parts = append(parts, l)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// confidence is 1 - distance/len(alias), rounded to two decimals.
func confidence(distance int, alias string) float64 {
	length := utf8.RuneCountInString(alias)
	if length == 0 {
		return 0
	}
	c := 1 - float64(distance)/float64(length)
	return math.Round(c*100) / 100
}

func containsAny(tokens, keywords []string) bool {
	for _, tok := range tokens {
		if slices.Contains(keywords, tok) {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// stopWords are frequent resume words long enough to reach the fuzzy
// fallback.
var stopWords = map[string]bool{
	"experience": true, "experienced": true, "worked": true, "working": true,
	"skills": true, "summary": true, "responsible": true, "developed": true,
	"development": true, "managed": true, "management": true, "projects": true,
	"project": true, "team": true, "teams": true, "years": true, "company": true,
	"education": true, "university": true, "bachelor": true, "master": true,
	"including": true, "support": true, "systems": true, "system": true,
	"services": true, "service": true, "implemented": true, "designed": true,
	"requirements": true, "required": true, "preferred": true, "strong": true,
	"knowledge": true, "ability": true, "building": true, "across": true,
	"through": true, "within": true, "should": true, "engineer": true,
	"engineering": true, "developer": true, "senior": true, "junior": true,
}
