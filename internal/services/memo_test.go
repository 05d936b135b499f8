package services

import (
	"strings"
	"testing"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/types"
)

func newTestMemoService(t *testing.T) MemoService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return NewMemoService(log)
}

func weightageWith(traction, team int) types.Weightage {
	w := types.DefaultWeightage()
	w.Traction = traction
	w.TeamStrength = team
	return w
}

func TestCompositeRiskScoreDefaults(t *testing.T) {
	if got := CompositeRiskScore(weightageWith(20, 20)); got != 5.0 {
		t.Fatalf("risk score (20,20): want=5.0 got=%v", got)
	}
	if got := CompositeRiskScore(weightageWith(40, 40)); got != 10.0 {
		t.Fatalf("risk score (40,40): want=10.0 got=%v", got)
	}
}

func TestCompositeRiskScoreRoundsHalfUp(t *testing.T) {
	// (11 + 0) / 40 * 5 = 1.375 -> 1.38 under half-up rounding.
	if got := CompositeRiskScore(weightageWith(11, 0)); got != 1.38 {
		t.Fatalf("risk score (11,0): want=1.38 got=%v", got)
	}
	// (1 + 0) / 40 * 5 = 0.125 -> 0.13.
	if got := CompositeRiskScore(weightageWith(1, 0)); got != 0.13 {
		t.Fatalf("risk score (1,0): want=0.13 got=%v", got)
	}
}

func TestSynthesizeFounderProfiles(t *testing.T) {
	ms := newTestMemoService(t)
	draft, _ := ms.Synthesize("Acme", "General", []string{"Jane", "John"}, "", types.DefaultWeightage())

	founders := draft.CompanyOverview.Founders
	if len(founders) != 2 {
		t.Fatalf("founder profiles: want=2 got=%d", len(founders))
	}
	if founders[0].Name != "Jane" || founders[1].Name != "John" {
		t.Fatalf("founder names: got %v", founders)
	}
	if founders[0].Education != "Not provided" || founders[0].ProfessionalBackground != "Pending founder interview" {
		t.Fatalf("founder placeholder fields wrong: %+v", founders[0])
	}
}

func TestSynthesizeSentinelFounderWhenNoneKnown(t *testing.T) {
	ms := newTestMemoService(t)
	draft, _ := ms.Synthesize("Acme", "General", nil, "", types.DefaultWeightage())

	founders := draft.CompanyOverview.Founders
	if len(founders) != 1 {
		t.Fatalf("founder profiles: want=1 sentinel got=%d", len(founders))
	}
	if founders[0].Name != "Founder Information Pending" {
		t.Fatalf("sentinel name: got=%q", founders[0].Name)
	}
}

func TestSynthesizeSummaryTruncation(t *testing.T) {
	ms := newTestMemoService(t)
	long := strings.Repeat("a", 350)
	draft, _ := ms.Synthesize("Acme", "General", nil, long, types.DefaultWeightage())

	want := "Derived from pitch materials: " + strings.Repeat("a", 300) + "..."
	if draft.BusinessModel.RevenueStreams != want {
		t.Fatalf("revenue streams narrative: got len=%d want len=%d", len(draft.BusinessModel.RevenueStreams), len(want))
	}

	short := "concise pitch"
	draft, _ = ms.Synthesize("Acme", "General", nil, short, types.DefaultWeightage())
	if draft.BusinessModel.RevenueStreams != "Derived from pitch materials: concise pitch" {
		t.Fatalf("short pitch must not get ellipsis: %q", draft.BusinessModel.RevenueStreams)
	}
}

func TestSynthesizeExactly300CharsNoEllipsis(t *testing.T) {
	ms := newTestMemoService(t)
	exact := strings.Repeat("b", 300)
	draft, _ := ms.Synthesize("Acme", "General", nil, exact, types.DefaultWeightage())
	if strings.HasSuffix(draft.BusinessModel.RevenueStreams, "...") {
		t.Fatalf("300-char pitch must not be truncated")
	}
}

func TestSynthesizeClaimProbability(t *testing.T) {
	ms := newTestMemoService(t)

	draft, _ := ms.Synthesize("Acme", "General", nil, "", weightageWith(73, 20))
	if len(draft.ClaimsAnalysis) != 1 {
		t.Fatalf("claims analysis: want 1 entry got=%d", len(draft.ClaimsAnalysis))
	}
	if draft.ClaimsAnalysis[0].SimulatedProbability != "73%" {
		t.Fatalf("claim probability: want=73%% got=%q", draft.ClaimsAnalysis[0].SimulatedProbability)
	}

	draft, _ = ms.Synthesize("Acme", "General", nil, "", weightageWith(0, 20))
	if draft.ClaimsAnalysis[0].SimulatedProbability != "1%" {
		t.Fatalf("claim probability floor: want=1%% got=%q", draft.ClaimsAnalysis[0].SimulatedProbability)
	}
}

func TestSynthesizeDerivedFieldsDeterministic(t *testing.T) {
	ms := newTestMemoService(t)
	w := weightageWith(33, 47)
	pitch := "Nimbus\nWe automate freight brokering"

	first, _ := ms.Synthesize("Nimbus", "General", []string{"A"}, pitch, w)
	second, _ := ms.Synthesize("Nimbus", "General", []string{"A"}, pitch, w)

	if first.RiskMetrics.CompositeRiskScore != second.RiskMetrics.CompositeRiskScore {
		t.Fatalf("risk score not deterministic: %v vs %v", first.RiskMetrics.CompositeRiskScore, second.RiskMetrics.CompositeRiskScore)
	}
	if first.ClaimsAnalysis[0].SimulatedProbability != second.ClaimsAnalysis[0].SimulatedProbability {
		t.Fatalf("claim probability not deterministic")
	}
	if first.BusinessModel.RevenueStreams != second.BusinessModel.RevenueStreams {
		t.Fatalf("summary excerpt not deterministic")
	}
}
