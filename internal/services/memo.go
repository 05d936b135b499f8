package services

import (
	"fmt"
	"math"
	"time"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/types"
)

const summaryMaxRunes = 300

// MemoService synthesizes a structured memo draft from company metadata,
// extracted text, and weightage. The draft content is a deterministic
// placeholder; the contract is shape stability plus the numeric derivations
// (composite risk score, claim probability, summary excerpt). A scoring or
// language model can replace this behind the same interface.
type MemoService interface {
	Synthesize(companyName, sector string, founders []string, pitchText string, weightage types.Weightage) (types.MemoDraft, time.Time)
}

type memoService struct {
	log *logger.Logger
}

func NewMemoService(baseLog *logger.Logger) MemoService {
	return &memoService{log: baseLog.With("service", "MemoService")}
}

func (ms *memoService) Synthesize(companyName, sector string, founders []string, pitchText string, weightage types.Weightage) (types.MemoDraft, time.Time) {
	profiles := founderProfiles(founders)
	summary := summarize(pitchText)
	riskScore := CompositeRiskScore(weightage)

	draft := types.MemoDraft{
		CompanyOverview: types.MemoCompanyOverview{
			Name:       companyName,
			Sector:     sector,
			Founders:   profiles,
			Technology: "Insights require detailed parsing of the pitch deck",
		},
		MarketAnalysis: types.MemoMarketAnalysis{
			IndustrySizeAndGrowth: types.IndustrySizeAndGrowth{
				TotalAddressableMarket: types.MarketSizeMetric{
					Name:   "Total Addressable Market",
					Value:  "Pending validation",
					CAGR:   "Pending",
					Source: "Requires analyst input",
				},
				ServiceableObtainableMarket: types.MarketSizeMetric{
					Name:       "Serviceable Obtainable Market",
					Value:      "Pending validation",
					Projection: "Pending",
					CAGR:       "Pending",
					Source:     "Requires analyst input",
				},
				Commentary: "Auto-generated summary from available material.",
			},
			SubSegmentOpportunities: []string{"Further research required"},
			CompetitorDetails: []types.CompetitorDetail{
				{
					Name:          "Competitor Placeholder",
					Category:      sector,
					BusinessModel: "Comparable startup",
					Funding:       "Unknown",
					Margins:       "Unknown",
					Commentary:    "Add manually once public data is aggregated.",
				},
			},
			RecentNews: "News scraping pipeline not configured in local mode.",
		},
		BusinessModel: types.MemoBusinessModel{
			RevenueStreams: "Derived from pitch materials: " + summary,
			Pricing:        "Requires analyst confirmation.",
			UnitEconomics:  "Awaiting data from founder conversation.",
			Scalability:    "Linked to team execution and market pull.",
		},
		Financials: types.MemoFinancials{
			ARRMRR: types.ARRMRR{
				CurrentBookedARR: "Unavailable",
				CurrentMRR:       "Unavailable",
			},
			BurnAndRunway: types.BurnAndRunway{
				FundingAsk:     "Pending",
				StatedRunway:   "Pending",
				ImpliedNetBurn: "Pending",
			},
			FundingHistory:     "Provide deal history once verified.",
			ValuationRationale: "Will be generated from financial data ingestion.",
			Projections: []types.FinancialProjection{
				{Year: "Year 1", Revenue: "To be forecasted"},
			},
		},
		ClaimsAnalysis: []types.ClaimAnalysis{
			{
				Claim:                 "Key growth claim extracted from memo.",
				AnalysisMethod:        "Simulation placeholder",
				InputDatasetLength:    "0",
				SimulationAssumptions: "Awaiting dataset",
				SimulatedProbability:  fmt.Sprintf("%d%%", max(weightage.Traction, 1)),
				Result:                "Pending validation",
			},
		},
		RiskMetrics: types.MemoRiskMetrics{
			CompositeRiskScore:     riskScore,
			ScoreInterpretation:    "Lower is better. Replace once risk engine is integrated.",
			NarrativeJustification: "Generated using default heuristics.",
		},
		Conclusion: types.MemoConclusion{
			OverallAttractiveness: "Automatic draft. Requires investment committee review.",
		},
	}

	return draft, time.Now().UTC()
}

// CompositeRiskScore is (team_strength + traction) / 40 * 5, rounded half-up
// to two decimals.
func CompositeRiskScore(w types.Weightage) float64 {
	raw := float64(w.TeamStrength+w.Traction) / 40 * 5
	return math.Floor(raw*100+0.5) / 100
}

func founderProfiles(founders []string) []types.FounderProfile {
	if len(founders) == 0 {
		return []types.FounderProfile{
			{Name: "Founder Information Pending"},
		}
	}
	profiles := make([]types.FounderProfile, len(founders))
	for i, name := range founders {
		profiles[i] = types.FounderProfile{
			Name:                   name,
			Education:              "Not provided",
			ProfessionalBackground: "Pending founder interview",
		}
	}
	return profiles
}

// summarize returns the first 300 characters of the pitch text, with an
// ellipsis when truncated. Counted in runes so multibyte text is not split.
func summarize(pitchText string) string {
	runes := []rune(pitchText)
	if len(runes) <= summaryMaxRunes {
		return pitchText
	}
	return string(runes[:summaryMaxRunes]) + "..."
}
