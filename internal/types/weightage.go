package types

const defaultWeight = 20

// Weightage is the five-dimension scoring configuration that drives memo
// synthesis. Dimensions are relative integer weights; the system does not
// force them to sum to 100.
type Weightage struct {
	Traction          int `json:"traction"`
	TeamStrength      int `json:"team_strength"`
	ClaimCredibility  int `json:"claim_credibility"`
	FinancialHealth   int `json:"financial_health"`
	MarketOpportunity int `json:"market_opportunity"`
}

// WeightageInput is the wire form of a weightage payload. Missing dimensions
// fall back to the default weight instead of zero.
type WeightageInput struct {
	Traction          *int `json:"traction"`
	TeamStrength      *int `json:"team_strength"`
	ClaimCredibility  *int `json:"claim_credibility"`
	FinancialHealth   *int `json:"financial_health"`
	MarketOpportunity *int `json:"market_opportunity"`
}

func DefaultWeightage() Weightage {
	return Weightage{
		Traction:          defaultWeight,
		TeamStrength:      defaultWeight,
		ClaimCredibility:  defaultWeight,
		FinancialHealth:   defaultWeight,
		MarketOpportunity: defaultWeight,
	}
}

func (in WeightageInput) Resolve() Weightage {
	w := DefaultWeightage()
	if in.Traction != nil {
		w.Traction = *in.Traction
	}
	if in.TeamStrength != nil {
		w.TeamStrength = *in.TeamStrength
	}
	if in.ClaimCredibility != nil {
		w.ClaimCredibility = *in.ClaimCredibility
	}
	if in.FinancialHealth != nil {
		w.FinancialHealth = *in.FinancialHealth
	}
	if in.MarketOpportunity != nil {
		w.MarketOpportunity = *in.MarketOpportunity
	}
	return w
}
