package services

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/types"
)

const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DocxBuilder renders a memo draft into a DOCX byte stream. Rendering is
// deterministic: the section order follows the draft's declared field order
// and the archive carries fixed timestamps, so the same logical tree always
// produces the same bytes.
type DocxBuilder interface {
	Build(title string, draft *types.MemoDraft) ([]byte, error)
}

type docxBuilder struct {
	log *logger.Logger
}

func NewDocxBuilder(baseLog *logger.Logger) DocxBuilder {
	return &docxBuilder{log: baseLog.With("service", "DocxBuilder")}
}

type docxParagraph struct {
	text  string
	style string
}

func (b *docxBuilder) Build(title string, draft *types.MemoDraft) ([]byte, error) {
	paragraphs := []docxParagraph{{text: title, style: "Title"}}

	// Marshal the draft and walk the resulting token stream. Struct fields
	// marshal in declaration order, which pins the section ordering.
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("marshal memo draft: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	paragraphs, err = walkMemoValue(dec, 0, paragraphs)
	if err != nil {
		return nil, fmt.Errorf("walk memo draft: %w", err)
	}

	return writeDocx(paragraphs)
}

// walkMemoValue consumes one JSON value from the decoder. Top-level object
// keys become section headings; nested keys become label paragraphs; scalar
// leaves become body paragraphs.
func walkMemoValue(dec *json.Decoder, depth int, paragraphs []docxParagraph) ([]docxParagraph, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key token %v", keyTok)
				}
				if depth == 0 {
					paragraphs = append(paragraphs, docxParagraph{text: titleize(key), style: "Heading1"})
				} else {
					paragraphs = append(paragraphs, docxParagraph{text: titleize(key) + ":"})
				}
				paragraphs, err = walkMemoValue(dec, depth+1, paragraphs)
				if err != nil {
					return nil, err
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
		case '[':
			for dec.More() {
				paragraphs, err = walkMemoValue(dec, depth, paragraphs)
				if err != nil {
					return nil, err
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
		}
		return paragraphs, nil
	case string:
		return append(paragraphs, docxParagraph{text: t}), nil
	case json.Number:
		return append(paragraphs, docxParagraph{text: t.String()}), nil
	case bool:
		return append(paragraphs, docxParagraph{text: fmt.Sprintf("%t", t)}), nil
	case nil:
		return append(paragraphs, docxParagraph{text: ""}), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func titleize(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

const docxContentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const docxRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

func writeDocx(paragraphs []docxParagraph) ([]byte, error) {
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString("<w:p>")
		if p.style != "" {
			doc.WriteString(`<w:pPr><w:pStyle w:val="` + p.style + `"/></w:pPr>`)
		}
		doc.WriteString(`<w:r><w:t xml:space="preserve">`)
		doc.WriteString(xmlEscape(p.text))
		doc.WriteString(`</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", docxContentTypesXML},
		{"_rels/.rels", docxRelsXML},
		{"word/document.xml", doc.String()},
	}
	// Fixed modification time keeps the archive byte-stable across builds.
	epoch := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, entry := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     entry.name,
			Method:   zip.Deflate,
			Modified: epoch,
		})
		if err != nil {
			return nil, fmt.Errorf("create docx entry %s: %w", entry.name, err)
		}
		if _, err := io.WriteString(w, entry.body); err != nil {
			return nil, fmt.Errorf("write docx entry %s: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize docx archive: %w", err)
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
