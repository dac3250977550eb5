package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

const DefaultDOCXFontFamily = "Malgun Gothic"

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// DOCX writes text as a single-paragraph word document. Line breaks become
// <w:br/> and every script slot of the run uses fontFamily.
func DOCX(text, fontFamily string) ([]byte, error) {
	if strings.TrimSpace(fontFamily) == "" {
		fontFamily = DefaultDOCXFontFamily
	}
	documentXML, err := documentXMLFor(text, fontFamily)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	parts := []struct {
		name    string
		content []byte
	}{
		{name: "[Content_Types].xml", content: []byte(contentTypesXML)},
		{name: "_rels/.rels", content: []byte(rootRelsXML)},
		{name: "word/_rels/document.xml.rels", content: []byte(documentRelsXML)},
		{name: "word/document.xml", content: documentXML},
	}

	var output bytes.Buffer
	writer := zip.NewWriter(&output)
	modified := time.Now().UTC()
	for _, part := range parts {
		if err := writeZipEntry(writer, part.name, part.content, modified); err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return output.Bytes(), nil
}

func documentXMLFor(text, fontFamily string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r>`)
	b.WriteString(`<w:rPr><w:rFonts`)
	for _, slot := range []string{"ascii", "hAnsi", "eastAsia", "cs"} {
		b.WriteString(` w:` + slot + `="`)
		if err := xml.EscapeText(&b, []byte(fontFamily)); err != nil {
			return nil, err
		}
		b.WriteString(`"`)
	}
	b.WriteString(`/></w:rPr>`)

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString(`<w:br/>`)
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		if err := xml.EscapeText(&b, []byte(line)); err != nil {
			return nil, err
		}
		b.WriteString(`</w:t>`)
	}
	b.WriteString(`</w:r></w:p><w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`)
	return b.Bytes(), nil
}

func writeZipEntry(writer *zip.Writer, name string, content []byte, modified time.Time) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	}
	dst, err := writer.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = dst.Write(content)
	return err
}
