package types

// MemoDraft is the fixed-shape investment memo body. The field set and JSON
// names are part of the external contract consumed by the document renderer
// and API clients; renames here are breaking changes.
type MemoDraft struct {
	CompanyOverview MemoCompanyOverview `json:"company_overview"`
	MarketAnalysis  MemoMarketAnalysis  `json:"market_analysis"`
	BusinessModel   MemoBusinessModel   `json:"business_model"`
	Financials      MemoFinancials      `json:"financials"`
	ClaimsAnalysis  []ClaimAnalysis     `json:"claims_analysis"`
	RiskMetrics     MemoRiskMetrics     `json:"risk_metrics"`
	Conclusion      MemoConclusion      `json:"conclusion"`
}

type FounderProfile struct {
	Name                   string `json:"name"`
	Education              string `json:"education"`
	ProfessionalBackground string `json:"professional_background"`
	PreviousVentures       string `json:"previous_ventures"`
}

type MemoCompanyOverview struct {
	Name       string           `json:"name"`
	Sector     string           `json:"sector"`
	Founders   []FounderProfile `json:"founders"`
	Technology string           `json:"technology"`
}

type MarketSizeMetric struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	CAGR       string `json:"cagr"`
	Source     string `json:"source"`
	Projection string `json:"projection,omitempty"`
}

type IndustrySizeAndGrowth struct {
	TotalAddressableMarket      MarketSizeMetric `json:"total_addressable_market"`
	ServiceableObtainableMarket MarketSizeMetric `json:"serviceable_obtainable_market"`
	Commentary                  string           `json:"commentary"`
}

type CompetitorDetail struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	BusinessModel string `json:"business_model"`
	Funding       string `json:"funding"`
	Margins       string `json:"margins"`
	Commentary    string `json:"commentary"`
}

type MemoMarketAnalysis struct {
	IndustrySizeAndGrowth   IndustrySizeAndGrowth `json:"industry_size_and_growth"`
	SubSegmentOpportunities []string              `json:"sub_segment_opportunities"`
	CompetitorDetails       []CompetitorDetail    `json:"competitor_details"`
	RecentNews              string                `json:"recent_news"`
}

type MemoBusinessModel struct {
	RevenueStreams string `json:"revenue_streams"`
	Pricing        string `json:"pricing"`
	UnitEconomics  string `json:"unit_economics"`
	Scalability    string `json:"scalability"`
}

type ARRMRR struct {
	CurrentBookedARR string `json:"current_booked_arr"`
	CurrentMRR       string `json:"current_mrr"`
}

type BurnAndRunway struct {
	FundingAsk     string `json:"funding_ask"`
	StatedRunway   string `json:"stated_runway"`
	ImpliedNetBurn string `json:"implied_net_burn"`
}

type FinancialProjection struct {
	Year    string `json:"year"`
	Revenue string `json:"revenue"`
}

type MemoFinancials struct {
	ARRMRR             ARRMRR                `json:"arr_mrr"`
	BurnAndRunway      BurnAndRunway         `json:"burn_and_runway"`
	FundingHistory     string                `json:"funding_history"`
	ValuationRationale string                `json:"valuation_rationale"`
	Projections        []FinancialProjection `json:"projections"`
}

type ClaimAnalysis struct {
	Claim                 string `json:"claim"`
	AnalysisMethod        string `json:"analysis_method"`
	InputDatasetLength    string `json:"input_dataset_length"`
	SimulationAssumptions string `json:"simulation_assumptions"`
	SimulatedProbability  string `json:"simulated_probability"`
	Result                string `json:"result"`
}

type MemoRiskMetrics struct {
	CompositeRiskScore     float64 `json:"composite_risk_score"`
	ScoreInterpretation    string  `json:"score_interpretation"`
	NarrativeJustification string  `json:"narrative_justification"`
}

type MemoConclusion struct {
	OverallAttractiveness string `json:"overall_attractiveness"`
}
