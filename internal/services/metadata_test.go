package services

import (
	"strings"
	"testing"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
)

func newTestMetadataService(t *testing.T) MetadataService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return NewMetadataService(log)
}

func TestInferFromPitchText(t *testing.T) {
	ms := newTestMetadataService(t)
	text := "Acme Robotics\nFounders: Jane Doe, John Roe\nWe build agri drones"

	company, founders, sector := ms.Infer("abc123", text)
	if company != "Acme Robotics" {
		t.Fatalf("company: want=%q got=%q", "Acme Robotics", company)
	}
	if len(founders) != 2 || founders[0] != "Jane Doe" || founders[1] != "John Roe" {
		t.Fatalf("founders: want=[Jane Doe John Roe] got=%v", founders)
	}
	if sector != "Agriculture" {
		t.Fatalf("sector: want=%q got=%q", "Agriculture", sector)
	}
}

func TestInferEmptyTextUsesFallbacks(t *testing.T) {
	ms := newTestMetadataService(t)

	company, founders, sector := ms.Infer("xyz789", "")
	if company != "Deal xyz789" {
		t.Fatalf("company fallback: want=%q got=%q", "Deal xyz789", company)
	}
	if len(founders) != 0 {
		t.Fatalf("founders: want empty got=%v", founders)
	}
	if sector != "General" {
		t.Fatalf("sector: want=%q got=%q", "General", sector)
	}
}

func TestInferSkipsLongFirstLine(t *testing.T) {
	ms := newTestMetadataService(t)
	text := "this first line has far too many tokens to be a company name\nNimbus\nmore text"

	company, _, _ := ms.Infer("d1", text)
	if company != "Nimbus" {
		t.Fatalf("company: want=%q got=%q", "Nimbus", company)
	}
}

func TestInferFoundersCappedAtFive(t *testing.T) {
	ms := newTestMetadataService(t)
	text := "Co\nTeam: A, B, C\nFounders: D, E, F, G"

	_, founders, _ := ms.Infer("d1", text)
	if len(founders) != 5 {
		t.Fatalf("founders cap: want=5 got=%d (%v)", len(founders), founders)
	}
	want := []string{"A", "B", "C", "D", "E"}
	for i, name := range want {
		if founders[i] != name {
			t.Fatalf("founders[%d]: want=%q got=%q", i, name, founders[i])
		}
	}
}

func TestInferFounderLineWithoutColon(t *testing.T) {
	ms := newTestMetadataService(t)
	text := "Co\nTeam of dreamers"

	_, founders, _ := ms.Infer("d1", text)
	if len(founders) != 1 || founders[0] != "Team of dreamers" {
		t.Fatalf("founders: want=[Team of dreamers] got=%v", founders)
	}
}

func TestInferSectorFirstTableMatchWins(t *testing.T) {
	ms := newTestMetadataService(t)
	// "health" appears before "fintech" in the body, but "ai" sits earlier in
	// the keyword table and matches via "maintain".
	text := "Co\nwe maintain health records for fintech clients"

	_, _, sector := ms.Infer("d1", text)
	if sector != "Artificial Intelligence" {
		t.Fatalf("sector: want=%q got=%q", "Artificial Intelligence", sector)
	}
}

func TestInferTotalOverGarbage(t *testing.T) {
	ms := newTestMetadataService(t)
	company, founders, sector := ms.Infer("d1", strings.Repeat("\n \t\n", 50))
	if company != "Deal d1" || len(founders) != 0 || sector != "General" {
		t.Fatalf("whitespace-only text: got company=%q founders=%v sector=%q", company, founders, sector)
	}
}
