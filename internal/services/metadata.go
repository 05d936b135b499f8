package services

import (
	"fmt"
	"strings"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
)

const maxFounderNames = 5

// sectorKeywords is matched against the full text in order; the first hit
// wins, so more specific keywords must come before broader ones.
var sectorKeywords = []struct {
	keyword string
	sector  string
}{
	{"ai", "Artificial Intelligence"},
	{"health", "Healthcare"},
	{"fintech", "FinTech"},
	{"agri", "Agriculture"},
	{"edtech", "Education Technology"},
}

// MetadataService derives company-level metadata from extracted pitch text
// with deterministic rules. Total over any input, including empty text.
type MetadataService interface {
	Infer(dealID, text string) (companyName string, founders []string, sector string)
}

type metadataService struct {
	log *logger.Logger
}

func NewMetadataService(baseLog *logger.Logger) MetadataService {
	return &metadataService{log: baseLog.With("service", "MetadataService")}
}

func (ms *metadataService) Infer(dealID, text string) (string, []string, string) {
	company := guessCompanyName(text)
	if company == "" {
		company = fmt.Sprintf("Deal %s", dealID)
	}
	founders := guessFounders(text)
	sector := guessSector(text)
	ms.log.Debug("Inferred deal metadata", "deal_id", dealID, "company", company, "sector", sector, "founders", len(founders))
	return company, founders, sector
}

// guessCompanyName returns the first non-empty line with at most five
// whitespace-separated tokens, case preserved.
func guessCompanyName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(strings.Fields(line)) <= 5 {
			return line
		}
	}
	return ""
}

// guessFounders scans for lines starting with "founder" or "team" (case
// insensitive), splits the part after the first colon on commas, and keeps
// the first five names in discovery order.
func guessFounders(text string) []string {
	founders := []string{}
	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(line)
		lowered := strings.ToLower(clean)
		if !strings.HasPrefix(lowered, "founder") && !strings.HasPrefix(lowered, "team") {
			continue
		}
		rest := clean
		if idx := strings.Index(clean, ":"); idx >= 0 {
			rest = clean[idx+1:]
		}
		for _, segment := range strings.Split(rest, ",") {
			if name := strings.TrimSpace(segment); name != "" {
				founders = append(founders, name)
			}
		}
	}
	if len(founders) > maxFounderNames {
		founders = founders[:maxFounderNames]
	}
	return founders
}

func guessSector(text string) string {
	lowered := strings.ToLower(text)
	for _, entry := range sectorKeywords {
		if strings.Contains(lowered, entry.keyword) {
			return entry.sector
		}
	}
	return "General"
}
