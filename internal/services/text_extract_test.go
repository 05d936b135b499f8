package services

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestExtractTextPlainText(t *testing.T) {
	in := "Acme Robotics\r\nFounders:   Jane Doe, John Roe\r\n\r\nWe build agri drones"
	got := ExtractText("deck.txt", "text/plain", []byte(in))

	want := "Acme Robotics\nFounders: Jane Doe, John Roe\n\nWe build agri drones"
	if got != want {
		t.Fatalf("plain text extraction:\nwant=%q\ngot=%q", want, got)
	}
}

func TestExtractTextPreservesLineStructure(t *testing.T) {
	in := "Acme Robotics\n\tFounders:\tJane Doe\nSecond   line   here"
	got := ExtractText("notes.md", "", []byte(in))

	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("line structure lost: %q", got)
	}
	if lines[0] != "Acme Robotics" {
		t.Fatalf("first line: got=%q", lines[0])
	}
	if lines[2] != "Second line here" {
		t.Fatalf("intra-line whitespace not collapsed: got=%q", lines[2])
	}
}

func TestExtractTextHTML(t *testing.T) {
	in := `<!DOCTYPE html><html><body><h1>Acme Robotics</h1>
<p>Founders: Jane&nbsp;Doe</p></body></html>`
	got := ExtractText("deck.html", "text/html", []byte(in))

	if !strings.Contains(got, "Acme Robotics") {
		t.Fatalf("html text missing heading: %q", got)
	}
	if !strings.Contains(got, "Founders: Jane Doe") {
		t.Fatalf("html entities not decoded: %q", got)
	}
	if strings.Contains(got, "<") {
		t.Fatalf("tags leaked into extracted text: %q", got)
	}
}

func TestExtractTextDocx(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	_, _ = w.Write([]byte(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Acme Robotics</w:t></w:r></w:p><w:p><w:r><w:t>We build agri drones</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	got := ExtractText("deck.docx", "", buf.Bytes())
	if !strings.Contains(got, "Acme Robotics") || !strings.Contains(got, "We build agri drones") {
		t.Fatalf("docx extraction: got=%q", got)
	}
}

func TestExtractTextPptxSlides(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("ppt/slides/slide1.xml")
	_, _ = w.Write([]byte(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="x"><a:t>Traction Slide</a:t></p:sld>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	got := ExtractText("deck.pptx", "", buf.Bytes())
	if !strings.Contains(got, "Traction Slide") {
		t.Fatalf("pptx extraction: got=%q", got)
	}
}

func TestExtractTextUnsupportedBinary(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0x00, 0x01, 0x02, 0x00, 0xFF}
	if got := ExtractText("logo.png", "image/png", data); got != "" {
		t.Fatalf("binary payload must yield empty text, got=%q", got)
	}
}

func TestExtractTextEmptyPayload(t *testing.T) {
	if got := ExtractText("deck.pdf", "application/pdf", nil); got != "" {
		t.Fatalf("empty payload must yield empty text, got=%q", got)
	}
}

func TestExtractTextCorruptContainer(t *testing.T) {
	// PDF magic with garbage body must not error, just come back empty.
	if got := ExtractText("deck.pdf", "", []byte("%PDF-1.7 garbage")); got != "" {
		t.Fatalf("corrupt pdf must yield empty text, got=%q", got)
	}
	if got := ExtractText("deck.docx", "", []byte{'P', 'K', 3, 4, 0, 0}); got != "" {
		t.Fatalf("corrupt zip must yield empty text, got=%q", got)
	}
}
