// Package jobreq parses a free-text job description into the skills it
// requires or prefers and the minimum experience it asks for.
package jobreq

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/tagger"
	"github.com/spigell/resume-screener/internal/taxonomy"
)

const (
	DefaultRequiredWeight  = 1.0
	DefaultPreferredWeight = 0.4
	DefaultMaxLength       = 2000
)

// Policy is the fixed weighting policy. Numeric weighting cues inside the
// text are not interpreted.
type Policy struct {
	RequiredWeight  float64 `mapstructure:"required-weight"`
	PreferredWeight float64 `mapstructure:"preferred-weight"`
	// MaxLength caps the description length in runes. Zero disables the cap.
	MaxLength int `mapstructure:"max-length"`
}

// DefaultPolicy returns required 1.0, preferred 0.4 and a 2000 rune cap.
func DefaultPolicy() Policy {
	return Policy{
		RequiredWeight:  DefaultRequiredWeight,
		PreferredWeight: DefaultPreferredWeight,
		MaxLength:       DefaultMaxLength,
	}
}

type marker int

const (
	markerNone marker = iota
	markerRequired
	markerPreferred
)

var (
	requiredMarkers  = regexp.MustCompile(`\b(?:must|required|requirements?|need to have|mandatory)\b`)
	// Bare "plus" and "advantage" are not markers: "Python, SQL, plus 3 years"
	// is still a requirement.
	preferredMarkers = regexp.MustCompile(`\b(?:preferred|nice[ -]to[ -]have|bonus|desirable|advantageous|an? (?:big |huge |strong )?(?:plus|advantage))\b`)

	clauseBreak = regexp.MustCompile(`,\s*`)

	// A line that is only a heading, e.g. "Requirements:" or "Nice to have".
	headingLine = regexp.MustCompile(`^[\p{L} /&-]{2,40}:?$`)

	sentenceBreak = regexp.MustCompile(`[.!?;](?:\s+|$)|\n+`)
	bullet        = regexp.MustCompile(`^\s*(?:[-*•·●▪]|\d+[.)])\s*`)

	// Used on required sentences only, where "5+ years" needs no verb.
	plusYears    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\+\s*(?:years?|yrs?)\b`)
	atLeastYears = regexp.MustCompile(`\b(?:at least|minimum(?: of)?)\s+(\d+(?:\.\d+)?)\s*(?:years?|yrs?)\b`)
)

// Parser turns job descriptions into requirements. It is safe for
// concurrent use.
type Parser struct {
	tagger *tagger.Tagger
	policy Policy
}

func NewParser(tax *taxonomy.Taxonomy, opts tagger.Options, policy Policy) *Parser {
	if policy.RequiredWeight <= 0 {
		policy.RequiredWeight = DefaultRequiredWeight
	}
	if policy.PreferredWeight <= 0 {
		policy.PreferredWeight = DefaultPreferredWeight
	}
	if policy.MaxLength < 0 {
		policy.MaxLength = 0
	}
	return &Parser{tagger: tagger.New(tax, opts), policy: policy}
}

// Parse parses text with the default policy.
func Parse(text string, tax *taxonomy.Taxonomy) (screening.JobRequirements, error) {
	return NewParser(tax, tagger.Options{}, DefaultPolicy()).Parse(text)
}

func (p *Parser) Parse(text string) (screening.JobRequirements, error) {
	if strings.TrimSpace(text) == "" {
		return screening.JobRequirements{}, screening.WrapError(screening.ErrEmptyJobDescription, "parsing job description", nil)
	}
	if p.policy.MaxLength > 0 && utf8.RuneCountInString(text) > p.policy.MaxLength {
		return screening.JobRequirements{}, screening.WrapError(screening.ErrJobDescriptionTooLong, "parsing job description", nil)
	}

	sentences := p.sentences(text)
	explicitRequired := false
	for _, s := range sentences {
		if s.marker == markerRequired {
			explicitRequired = true
			break
		}
	}

	required := make(map[screening.SkillID]bool)
	preferred := make(map[screening.SkillID]bool)
	var requiredLines, experienceLines []string

	for _, s := range sentences {
		kind := s.marker
		if kind == markerNone {
			kind = markerRequired
			if explicitRequired {
				kind = markerPreferred
			}
		}
		if kind == markerRequired {
			requiredLines = append(requiredLines, s.text)
		}
		// Years stated next to a preferred skill are not a minimum.
		if kind == markerRequired || s.marker == markerNone {
			experienceLines = append(experienceLines, s.text)
		}

		for _, hit := range p.tagger.FindSkills(s.text) {
			switch kind {
			case markerRequired:
				required[hit.Skill] = true
			case markerPreferred:
				preferred[hit.Skill] = true
			}
		}
	}

	req := screening.JobRequirements{
		Required:  sortedSet(required, nil),
		Preferred: sortedSet(preferred, required),
		Weights:   make(map[screening.SkillID]float64, len(required)+len(preferred)),
	}
	for _, s := range req.Required {
		req.Weights[s] = p.policy.RequiredWeight
	}
	for _, s := range req.Preferred {
		req.Weights[s] = p.policy.PreferredWeight
	}

	years := tagger.ExperienceYears(strings.Join(experienceLines, "\n"))
	if bare := tagger.MaxYears(strings.ToLower(strings.Join(requiredLines, "\n")), plusYears, atLeastYears); bare != nil {
		if years == nil || *bare > *years {
			years = bare
		}
	}
	req.MinExperienceYears = years
	req.Terms = tagger.KeyTerms(text)

	return req, nil
}

type sentence struct {
	text   string
	marker marker
}

// sentences splits text into sentences and assigns each one the marker it
// carries itself or inherits from the closest heading above it. A heading is a
// short line ending with a colon, or one that names no skill.
func (p *Parser) sentences(text string) []sentence {
	var (
		out     []sentence
		heading = markerNone
	)

	for _, line := range strings.Split(text, "\n") {
		line = bullet.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if headingLine.MatchString(line) {
			m := classify(strings.ToLower(line))
			switch {
			case strings.HasSuffix(line, ":"):
				heading = m
				continue
			case m != markerNone && len(p.tagger.FindSkills(line)) == 0:
				heading = m
				continue
			}
		}

		for _, part := range splitSentences(line) {
			for _, c := range splitMixed(part) {
				if c.marker == markerNone {
					c.marker = heading
				}
				out = append(out, c)
			}
		}
	}

	return out
}

func splitSentences(line string) []string {
	var parts []string
	for _, piece := range sentenceBreak.Split(line, -1) {
		if piece = strings.TrimSpace(piece); piece != "" {
			parts = append(parts, piece)
		}
	}
	return parts
}

// splitMixed returns part as one sentence unless it carries both markers, as in
// "Requirements: Go, Kubernetes is a plus". Such a sentence is split into
// comma separated clauses. A clause without a marker takes the marker of the
// closest marked clause before it, or after it for leading clauses.
func splitMixed(part string) []sentence {
	lowered := strings.ToLower(part)
	if !preferredMarkers.MatchString(lowered) || !requiredMarkers.MatchString(lowered) {
		return []sentence{{text: part, marker: classify(lowered)}}
	}

	clauses := clauseBreak.Split(part, -1)
	out := make([]sentence, 0, len(clauses))
	current := markerNone
	for _, c := range clauses {
		if c = strings.TrimSpace(c); c == "" {
			continue
		}
		if m := classify(strings.ToLower(c)); m != markerNone {
			current = m
		}
		out = append(out, sentence{text: c, marker: current})
	}

	first := markerNone
	for _, c := range out {
		if c.marker != markerNone {
			first = c.marker
			break
		}
	}
	for i := range out {
		if out[i].marker != markerNone {
			break
		}
		out[i].marker = first
	}
	return out
}

// classify prefers the preferred marker when a clause carries both.
func classify(lowered string) marker {
	switch {
	case preferredMarkers.MatchString(lowered):
		return markerPreferred
	case requiredMarkers.MatchString(lowered):
		return markerRequired
	default:
		return markerNone
	}
}

func sortedSet(set, exclude map[screening.SkillID]bool) []screening.SkillID {
	out := make([]screening.SkillID, 0, len(set))
	for s := range set {
		if exclude[s] {
			continue
		}
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
