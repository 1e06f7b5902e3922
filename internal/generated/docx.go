package generated

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"path"
	"strings"
	"time"
)

// DOCXContentType is the MIME type of a Word document.
const DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// RenderDOCX lays out plain text as a Word document: the title in bold, then
// one paragraph per line, with blank lines kept as empty paragraphs.
func RenderDOCX(title, text string) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	if strings.TrimSpace(title) != "" {
		if err := writeParagraph(&body, title, true); err != nil {
			return nil, err
		}
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if err := writeParagraph(&body, line, false); err != nil {
			return nil, err
		}
	}
	body.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="850" w:bottom="1134" w:left="1701" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`)
	body.WriteString(`</w:body></w:document>`)

	var out bytes.Buffer
	writer := zip.NewWriter(&out)
	files := []struct {
		name    string
		content []byte
	}{
		{name: "[Content_Types].xml", content: []byte(contentTypesXML)},
		{name: "_rels/.rels", content: []byte(relsXML)},
		{name: "word/document.xml", content: body.Bytes()},
	}
	for _, f := range files {
		if err := writeZipEntry(writer, f.name, f.content); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DOCXName swaps the extension of name for .docx.
func DOCXName(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	if base == "" {
		base = "document"
	}
	return base + ".docx"
}

func writeParagraph(buf *bytes.Buffer, text string, bold bool) error {
	buf.WriteString(`<w:p>`)
	if text != "" {
		buf.WriteString(`<w:r>`)
		if bold {
			buf.WriteString(`<w:rPr><w:b/></w:rPr>`)
		}
		buf.WriteString(`<w:t xml:space="preserve">`)
		if err := xml.EscapeText(buf, []byte(text)); err != nil {
			return err
		}
		buf.WriteString(`</w:t></w:r>`)
	}
	buf.WriteString(`</w:p>`)
	return nil
}

func writeZipEntry(writer *zip.Writer, name string, content []byte) error {
	header := &zip.FileHeader{Name: name, Method: zip.Deflate}
	header.Modified = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	w, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}
