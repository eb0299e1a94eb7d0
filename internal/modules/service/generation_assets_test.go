package service

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_PlainFormats(t *testing.T) {
	for _, ft := range []string{"txt", ".txt", "md", "markdown"} {
		got, err := extractText(ft, []byte("  产品规格说明\n重量 120g  "))
		require.NoError(t, err, ft)
		assert.Equal(t, "产品规格说明\n重量 120g", got)
	}
}

func TestExtractText_UnsupportedType(t *testing.T) {
	_, err := extractText("pptx", []byte("x"))
	assert.Error(t, err)
}

func TestExtractText_BrokenPDF(t *testing.T) {
	_, err := extractText("pdf", []byte("not a pdf"))
	assert.Error(t, err)
}

// buildDocx assembles a minimal Word archive with the given paragraphs.
func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
		"_rels/.rels":         `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`,
		"word/document.xml":   body.String(),
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractText_Docx(t *testing.T) {
	data := buildDocx(t, "产品规格说明", "重量 120g")
	got, err := extractText("docx", data)
	require.NoError(t, err)
	assert.Equal(t, "产品规格说明\n重量 120g", got)
}

func TestExtractText_BrokenDocx(t *testing.T) {
	_, err := extractText("docx", []byte("not a zip archive"))
	assert.Error(t, err)
}
