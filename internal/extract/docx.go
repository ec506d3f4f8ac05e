package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/spigell/resume-screener/internal/screening"
)

const (
	docxBody = "word/document.xml"
	// maxDocumentXML bounds the decompressed body to keep zip bombs out.
	maxDocumentXML = 64 << 20
)

var errUnsupportedCharset = errors.New("unsupported charset")

// skipped lists elements whose subtree never contributes text.
var skipped = map[string]bool{
	"drawing":   true,
	"pict":      true,
	"object":    true,
	"fldChar":   true,
	"instrText": true,
	"delText":   true,
}

func extractDOCX(data []byte) (string, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, screening.WrapError(screening.ErrCorruptDocument, "open docx container", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", nil, screening.WrapError(screening.ErrCorruptDocument, "open docx container", fmt.Errorf("%s not found", docxBody))
	}

	rc, err := body.Open()
	if err != nil {
		return "", nil, screening.WrapError(screening.ErrCorruptDocument, "open "+docxBody, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, maxDocumentXML))
	if err != nil {
		return "", nil, screening.WrapError(screening.ErrCorruptDocument, "read "+docxBody, err)
	}

	raw, err = decodeUTF16(raw)
	if err != nil {
		return "", nil, screening.WrapError(screening.ErrUnsupportedEncoding, "decode "+docxBody, err)
	}

	text, err := walkParagraphs(raw)
	if err != nil {
		if errors.Is(err, errUnsupportedCharset) {
			return "", nil, screening.WrapError(screening.ErrUnsupportedEncoding, "parse "+docxBody, err)
		}
		return "", nil, screening.WrapError(screening.ErrCorruptDocument, "parse "+docxBody, err)
	}

	return text, nil, nil
}

// walkParagraphs streams the WordprocessingML body. Text runs are joined,
// tabs and breaks kept, and every paragraph ends with a newline.
func walkParagraphs(raw []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(label) {
		case "utf-8", "utf8", "utf-16", "utf16", "utf-16le", "utf-16be":
			// UTF-16 input has already been converted by decodeUTF16.
			return input, nil
		default:
			return nil, fmt.Errorf("%w: %s", errUnsupportedCharset, label)
		}
	}

	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch name := t.Name.Local; {
			case skipped[name]:
				if err := dec.Skip(); err != nil {
					return "", err
				}
			case name == "t":
				inText = true
			case name == "tab":
				b.WriteByte('\t')
			case name == "br" || name == "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String(), nil
}

// decodeUTF16 converts a UTF-16 body with a byte order mark to UTF-8 and
// drops a UTF-8 byte order mark. Other input is returned as is.
func decodeUTF16(raw []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return raw[3:], nil
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}), bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(decoder, raw)
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return raw, nil
	}
}
