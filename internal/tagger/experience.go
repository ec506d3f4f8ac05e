package tagger

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/resume-screener/internal/screening"
)

// maxPlausibleYears drops matches such as "2019 years" produced by dates.
const maxPlausibleYears = 60

var (
	yearsBeforeVerb = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)\b[^.;\n]{0,40}?\b(?:experience|worked|working)`)
	verbBeforeYears = regexp.MustCompile(`\b(?:experience|worked|working)[^.;\n\d]{0,40}?(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)\b`)

	emailPattern = regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
)

// ExperienceYears returns the largest "<N> years" figure found near the words
// experience/worked/working, or nil when the text states none.
func ExperienceYears(text string) *float64 {
	return MaxYears(strings.ToLower(text), yearsBeforeVerb, verbBeforeYears)
}

// MaxYears applies each pattern to lowered text and returns the maximum value
// captured by the first group. Values above a plausible career length are
// ignored.
func MaxYears(lowered string, patterns ...*regexp.Regexp) *float64 {
	var (
		best  float64
		found bool
	)
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(lowered, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil || v > maxPlausibleYears {
				continue
			}
			if !found || v > best {
				best = v
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	return &best
}

// ExtractContact returns the first e-mail address and phone number in text.
func ExtractContact(text string) screening.Contact {
	return screening.Contact{
		Email: emailPattern.FindString(text),
		Phone: strings.TrimSpace(phonePattern.FindString(text)),
	}
}
