package input

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/spigell/resume-screener/internal/screening"
)

// DefaultMaxFileSize bounds a single resume file.
const DefaultMaxFileSize = 20 << 20

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

type LoadOptions struct {
	MaxFileSize int64
	// NewID generates document ids; uuid.NewString when nil.
	NewID func() string
}

// Loaded holds accepted documents and files rejected at the boundary.
type Loaded struct {
	Documents []screening.RawDocument
	Rejected  []screening.Failure
}

// LoadDocuments reads every path. Directories contribute their regular files,
// non-recursively and in name order. A path that does not exist or a
// directory that cannot be listed is an error. A file that cannot be read, is
// over the size limit or is not PDF or DOCX is rejected with its own kind and
// the rest are still loaded.
func LoadDocuments(paths []string, opts LoadOptions) (*Loaded, error) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	files, err := expand(paths)
	if err != nil {
		return nil, err
	}

	loaded := &Loaded{}
	for _, path := range files {
		id := opts.NewID()
		name := filepath.Base(path)

		data, err := readFile(path, opts.MaxFileSize)
		if err != nil {
			loaded.Rejected = append(loaded.Rejected, screening.Failure{
				DocumentID: id,
				Filename:   name,
				Kind:       screening.KindOf(err),
				Message:    err.Error(),
			})
			continue
		}

		mime, ok := DetectMime(name, data)
		if !ok {
			loaded.Rejected = append(loaded.Rejected, screening.Failure{
				DocumentID: id,
				Filename:   name,
				Kind:       screening.KindUnsupportedFormat,
				Message:    fmt.Sprintf("detected %s", http.DetectContentType(data)),
			})
			continue
		}

		loaded.Documents = append(loaded.Documents, screening.RawDocument{
			ID:       id,
			Filename: name,
			MimeType: mime,
			Bytes:    data,
		})
	}

	return loaded, nil
}

// DetectMime decides between PDF and DOCX using the file signature first and
// the extension second. A file named .pdf that is not a PDF is still routed
// to the PDF extractor so it is reported as corrupt, not unsupported.
func DetectMime(filename string, data []byte) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case bytes.HasPrefix(data, pdfMagic), ext == ".pdf":
		return screening.MimePDF, true
	case ext == ".docx":
		return screening.MimeDOCX, true
	case bytes.HasPrefix(data, zipMagic) && ext == "":
		return screening.MimeDOCX, true
	default:
		return "", false
	}
}

func expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("resume path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", p, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
				names = append(names, e.Name())
			}
		}
		slices.Sort(names)
		for _, name := range names {
			files = append(files, filepath.Join(p, name))
		}
	}
	return files, nil
}

func readFile(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, screening.WrapError(screening.ErrUnreadableFile, "opening resume", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, screening.WrapError(screening.ErrUnreadableFile, "reading resume", err)
	}
	if int64(len(data)) > limit {
		return nil, screening.WrapError(screening.ErrFileTooLarge, "reading resume", fmt.Errorf("file is larger than %d bytes", limit))
	}
	return data, nil
}
