package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/spigell/resume-screener/internal/screening"
)

// maxInvalidShare is the share of invalid UTF-8 bytes above which text is
// treated as being in an encoding we cannot read.
const maxInvalidShare = 0.1

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00A0}\x{2007}\x{202F}]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
	controlChars    = regexp.MustCompile(`[\x00-\x08\x0B\x0E-\x1F\x7F]`)
)

// Normalize applies NFKC, folds exotic spaces, collapses runs of whitespace
// and trims every line.
func Normalize(s string) (string, []string, error) {
	var warnings []string

	if !utf8.ValidString(s) {
		invalid := countInvalid(s)
		if len(s) > 0 && float64(invalid)/float64(len(s)) > maxInvalidShare {
			return "", nil, screening.WrapError(screening.ErrUnsupportedEncoding, "normalize text",
				fmt.Errorf("%d of %d bytes are not valid UTF-8", invalid, len(s)))
		}
		s = strings.ToValidUTF8(s, "")
		warnings = append(warnings, fmt.Sprintf("replaced %d invalid bytes", invalid))
	}

	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = controlChars.ReplaceAllString(s, "")
	s = horizontalSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s), warnings, nil
}

func countInvalid(s string) int {
	invalid := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			invalid++
		}
		i += size
	}
	return invalid
}
