package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ExtractText sniffs the true file type from magic bytes and extracts plain
// text. Supported: PDF, DOCX, PPTX, TXT/MD, HTML. Unsupported or unreadable
// payloads yield empty text rather than an error; the pipeline treats a deck
// it cannot read as a deck with nothing to say.
func ExtractText(originalName string, mimeType string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	if len(data) == 0 {
		return ""
	}

	if isPDF(data) {
		text, err := extractPDF(data)
		if err != nil {
			return ""
		}
		return text
	}
	if isZip(data) {
		text, err := extractOpenXML(data)
		if err != nil {
			return ""
		}
		return text
	}
	if looksLikeHTML(data) || mt == "text/html" || ext == ".html" || ext == ".htm" {
		return extractHTML(string(data))
	}
	if isProbablyText(data) || mt == "text/plain" || ext == ".txt" || ext == ".md" || ext == ".markdown" {
		return normalizeText(string(data))
	}
	return ""
}

// ------------------------
// Sniff helpers
// ------------------------

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func looksLikeHTML(b []byte) bool {
	s := strings.ToLower(string(b[:min(len(b), 2048)]))
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		return true
	}
	return strings.Contains(s, "<html") && strings.Contains(s, "</html>")
}

func isProbablyText(b []byte) bool {
	sample := b[:min(len(b), 4096)]
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}

// ------------------------
// Extractors
// ------------------------

func extractPDF(data []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return normalizeText(string(b)), nil
}

// extractOpenXML handles docx and pptx containers: text nodes named "t"
// under word/document.xml or ppt/slides/*.xml.
func extractOpenXML(zipBytes []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, f := range zr.File {
		isWordDoc := f.Name == "word/document.xml"
		isSlide := strings.HasPrefix(f.Name, "ppt/slides/") && strings.HasSuffix(f.Name, ".xml")
		if !isWordDoc && !isSlide {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		b, _ := io.ReadAll(rc)
		_ = rc.Close()
		out.WriteString(extractTextNodes(b, "t"))
		out.WriteString("\n")
	}
	s := normalizeText(out.String())
	if s == "" {
		return "", fmt.Errorf("no text extracted from openxml container")
	}
	return s, nil
}

func extractTextNodes(xmlBytes []byte, local string) string {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	var out strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != local {
			continue
		}
		var v string
		_ = dec.DecodeElement(&v, &se)
		if v != "" {
			out.WriteString(v)
			out.WriteString(" ")
		}
	}
	return out.String()
}

var htmlTagRe = regexp.MustCompile(`(?s)<[^>]*>`)

func extractHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return normalizeText(s)
}

// normalizeText collapses runs of spaces and tabs per line but keeps line
// breaks: metadata inference works line by line, so the first non-empty line
// and founder/team prefixes must survive extraction.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
