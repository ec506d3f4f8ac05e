package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/spigell/resume-screener/internal/screening"
)

func extractPDF(ctx context.Context, data []byte) (text string, warnings []string, err error) {
	// The pdf package panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			text, warnings = "", nil
			err = screening.WrapError(screening.ErrCorruptDocument, "read pdf", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, screening.WrapError(screening.ErrCorruptDocument, "open pdf", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return "", nil, screening.WrapError(screening.ErrCorruptDocument, "open pdf", fmt.Errorf("no pages"))
	}

	pages := make([][]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			warnings = append(warnings, fmt.Sprintf("page %d has no content stream", i))
			pages = append(pages, nil)
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", nil, screening.WrapError(screening.ErrCorruptDocument, fmt.Sprintf("read pdf page %d", i), err)
		}

		lines := splitLines(content)
		if len(lines) == 0 {
			warnings = append(warnings, fmt.Sprintf("page %d has no text", i))
		}
		pages = append(pages, lines)
	}

	pages, stripped := stripRepeatedLines(pages)
	if stripped > 0 {
		warnings = append(warnings, fmt.Sprintf("stripped %d header/footer lines", stripped))
	}

	var b strings.Builder
	for _, lines := range pages {
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	return b.String(), warnings, nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
