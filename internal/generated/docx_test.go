package generated

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestRenderDOCXPackagesParagraphs(t *testing.T) {
	data, err := RenderDOCX("Претензия", "Строка <1>\n\nСтрока & 2")
	if err != nil {
		t.Fatalf("RenderDOCX: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		files[f.Name] = string(body)
	}
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		if _, ok := files[name]; !ok {
			t.Fatalf("missing %s", name)
		}
	}

	doc := files["word/document.xml"]
	if !strings.Contains(doc, "<w:b/>") || !strings.Contains(doc, "Претензия") {
		t.Fatalf("expected bold title, got %s", doc)
	}
	if !strings.Contains(doc, "Строка &lt;1&gt;") || !strings.Contains(doc, "Строка &amp; 2") {
		t.Fatalf("expected escaped text, got %s", doc)
	}
	if got := strings.Count(doc, "<w:p>"); got != 4 {
		t.Fatalf("expected 4 paragraphs, got %d", got)
	}
}

func TestDOCXName(t *testing.T) {
	cases := map[string]string{
		"claim.txt": "claim.docx",
		"claim":     "claim.docx",
		".txt":      "document.docx",
	}
	for in, want := range cases {
		if got := DOCXName(in); got != want {
			t.Fatalf("DOCXName(%q) = %q, want %q", in, got, want)
		}
	}
}
