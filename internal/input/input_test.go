package input

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/resume-screener/internal/screening"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadText(t *testing.T) {
	dir := t.TempDir()
	jd := filepath.Join(dir, "jd.txt")
	writeFile(t, jd, []byte("\n  Must have Go.  \n"))
	blank := filepath.Join(dir, "blank.txt")
	writeFile(t, blank, []byte(" \n\t"))

	text, err := LoadText(Source{Value: "  Preferred: AWS  "})
	if err != nil || text != "Preferred: AWS" {
		t.Fatalf("expected trimmed inline text, got %q (%v)", text, err)
	}

	text, err = LoadText(Source{Value: "ignored", File: jd})
	if err != nil || text != "Must have Go." {
		t.Fatalf("expected file text to take precedence, got %q (%v)", text, err)
	}

	for _, src := range []Source{{}, {Value: "   "}, {File: blank}} {
		_, err := LoadText(src)
		if !errors.Is(err, screening.ErrEmptyJobDescription) {
			t.Fatalf("expected ErrEmptyJobDescription for %+v, got %v", src, err)
		}
		if !screening.IsFatal(err) {
			t.Fatalf("empty job description must be fatal")
		}
	}

	if _, err := LoadText(Source{File: filepath.Join(dir, "missing.txt")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b_resume.pdf"), []byte("%PDF-1.4 body"))
	writeFile(t, filepath.Join(dir, "a_resume.docx"), []byte("PK\x03\x04body"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("plain text"))
	writeFile(t, filepath.Join(dir, ".hidden.pdf"), []byte("%PDF-1.4 hidden"))
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "nested", "deep.pdf"), []byte("%PDF-1.4 deep"))

	extra := filepath.Join(t.TempDir(), "extra")
	writeFile(t, extra, []byte("PK\x03\x04zip without extension"))

	seq := 0
	loaded, err := LoadDocuments([]string{dir, " ", extra}, LoadOptions{
		NewID: func() string {
			seq++
			return fmt.Sprintf("doc-%d", seq)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expect := []struct {
		id, filename, mime string
	}{
		{"doc-1", "a_resume.docx", screening.MimeDOCX},
		{"doc-2", "b_resume.pdf", screening.MimePDF},
		{"doc-4", "extra", screening.MimeDOCX},
	}
	if len(loaded.Documents) != len(expect) {
		t.Fatalf("expected %d documents, got %+v", len(expect), loaded.Documents)
	}
	for i, e := range expect {
		doc := loaded.Documents[i]
		if doc.ID != e.id || doc.Filename != e.filename || doc.MimeType != e.mime {
			t.Fatalf("document %d: expected %+v, got %s/%s/%s", i, e, doc.ID, doc.Filename, doc.MimeType)
		}
	}

	if len(loaded.Rejected) != 1 {
		t.Fatalf("expected one rejected file, got %+v", loaded.Rejected)
	}
	rejected := loaded.Rejected[0]
	if rejected.Filename != "notes.txt" || rejected.Kind != screening.KindUnsupportedFormat || rejected.DocumentID != "doc-3" {
		t.Fatalf("unexpected rejection %+v", rejected)
	}
}

func TestLoadDocumentsErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadDocuments([]string{filepath.Join(dir, "missing.pdf")}, LoadOptions{}); err == nil {
		t.Fatalf("expected error for a missing path")
	}

	loaded, err := LoadDocuments(nil, LoadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded.Documents) != 0 || len(loaded.Rejected) != 0 {
		t.Fatalf("expected nothing loaded, got %+v", loaded)
	}
}

func TestLoadDocumentsRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_good.pdf"), []byte("%PDF-1.4 small"))
	writeFile(t, filepath.Join(dir, "b_big.pdf"), append([]byte("%PDF-1.4 "), make([]byte, 2048)...))

	loaded, err := LoadDocuments([]string{dir}, LoadOptions{MaxFileSize: 1024})
	if err != nil {
		t.Fatalf("one oversized file must not fail the whole load: %v", err)
	}

	if len(loaded.Documents) != 1 || loaded.Documents[0].Filename != "a_good.pdf" {
		t.Fatalf("expected a_good.pdf to be loaded, got %+v", loaded.Documents)
	}
	if len(loaded.Rejected) != 1 {
		t.Fatalf("expected one rejected file, got %+v", loaded.Rejected)
	}
	rejected := loaded.Rejected[0]
	if rejected.Filename != "b_big.pdf" || rejected.Kind != screening.KindFileTooLarge {
		t.Fatalf("unexpected rejection %+v", rejected)
	}
	if rejected.Message == "" {
		t.Fatalf("expected the reason in the rejection message")
	}
}

func TestDetectMime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		data     []byte
		mime     string
		ok       bool
	}{
		{name: "pdf signature", filename: "cv.bin", data: []byte("%PDF-1.7"), mime: screening.MimePDF, ok: true},
		{name: "pdf extension without signature", filename: "CV.PDF", data: []byte("garbage"), mime: screening.MimePDF, ok: true},
		{name: "docx extension", filename: "cv.docx", data: []byte("PK\x03\x04"), mime: screening.MimeDOCX, ok: true},
		{name: "zip without extension", filename: "cv", data: []byte("PK\x03\x04"), mime: screening.MimeDOCX, ok: true},
		{name: "zip with other extension", filename: "cv.zip", data: []byte("PK\x03\x04"), ok: false},
		{name: "legacy doc", filename: "cv.doc", data: []byte{0xD0, 0xCF, 0x11, 0xE0}, ok: false},
		{name: "text", filename: "cv.txt", data: []byte("hello"), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mime, ok := DetectMime(tt.filename, tt.data)
			if mime != tt.mime || ok != tt.ok {
				t.Fatalf("expected %q/%t, got %q/%t", tt.mime, tt.ok, mime, ok)
			}
		})
	}
}
