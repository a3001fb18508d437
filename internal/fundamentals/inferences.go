package fundamentals

import "github.com/bobmcallan/horizon/internal/models"

// Pillar weights for the quality grade.
var pillarWeights = map[string]float64{
	"valuation":        0.20,
	"growth":           0.20,
	"health":           0.25,
	"efficiency":       0.15,
	"earnings_quality": 0.20,
}

// sectorOperatingMarginBenchmark is the default OM benchmark used by the
// margin-fragility cap.
const sectorOperatingMarginBenchmark = 0.15

// marginFragilityCap caps the quality score when operating margin is under
// half the sector benchmark while FCF is negative.
const marginFragilityCap = 65

// Infer runs the qualitative rule engine over an enriched record.
func Infer(d *models.FundamentalData) *models.FundamentalInferences {
	if d == nil {
		return nil
	}

	scores := map[string]float64{
		"valuation":        scoreValuation(d),
		"growth":           scoreGrowth(d),
		"health":           scoreHealth(d),
		"efficiency":       scoreEfficiency(d),
		"earnings_quality": scoreEarningsQuality(d),
	}

	inf := &models.FundamentalInferences{
		Valuation:       labelValuation(scores["valuation"]),
		Growth:          labelGrowth(d.RevenueGrowth),
		Health:          labelHealth(d),
		Efficiency:      labelEfficiency(d.ROE),
		EarningsQuality: labelEarningsQuality(d.FCFToNIRatio),
		Risk:            assessRisk(d),
		PillarScores:    scores,
	}
	inf.Quality = gradeQuality(d, scores, inf.Risk)
	return inf
}

func scoreValuation(d *models.FundamentalData) float64 {
	score := 50.0
	if d.EarningsYield != nil {
		switch {
		case *d.EarningsYield > 0.08:
			score += 30
		case *d.EarningsYield > 0.05:
			score += 15
		case *d.EarningsYield < 0.02:
			score -= 20
		}
	}
	if d.PriceToBook != nil && *d.PriceToBook > 10 {
		score -= 10
	}
	return clampScore(score)
}

func scoreGrowth(d *models.FundamentalData) float64 {
	score := 50.0
	if d.RevenueGrowth != nil {
		switch {
		case *d.RevenueGrowth > 0.20:
			score += 35
		case *d.RevenueGrowth > 0.08:
			score += 20
		case *d.RevenueGrowth < 0:
			score -= 25
		}
	}
	if d.EarningsGrowth != nil && *d.EarningsGrowth > 0.15 {
		score += 10
	}
	return clampScore(score)
}

func scoreHealth(d *models.FundamentalData) float64 {
	score := 50.0
	if d.NetCashStatus == "Net Cash" {
		score += 25
	}
	if d.DebtToEquity != nil {
		switch {
		case *d.DebtToEquity > 2:
			score -= 30
		case *d.DebtToEquity > 1:
			score -= 15
		case *d.DebtToEquity < 0.3:
			score += 10
		}
	}
	if d.CurrentRatio != nil && *d.CurrentRatio < 1 {
		score -= 15
	}
	return clampScore(score)
}

func scoreEfficiency(d *models.FundamentalData) float64 {
	score := 50.0
	if d.ROE != nil {
		switch {
		case *d.ROE > 0.20:
			score += 30
		case *d.ROE > 0.10:
			score += 15
		case *d.ROE < 0:
			score -= 30
		}
	}
	if d.OperatingMargin != nil && *d.OperatingMargin > 0.25 {
		score += 10
	}
	return clampScore(score)
}

func scoreEarningsQuality(d *models.FundamentalData) float64 {
	score := 50.0
	if d.FCFToNIRatio != nil {
		switch {
		case *d.FCFToNIRatio > 1.0:
			score += 30
		case *d.FCFToNIRatio > 0.6:
			score += 15
		case *d.FCFToNIRatio < 0:
			score -= 35
		}
	}
	return clampScore(score)
}

func assessRisk(d *models.FundamentalData) models.RiskAssessment {
	score := 20.0
	var factors []string

	if d.DebtToEquity != nil && *d.DebtToEquity > 2 {
		score += 25
		factors = append(factors, "High leverage")
	}
	if d.FreeCashFlow != nil && *d.FreeCashFlow < 0 {
		score += 20
		factors = append(factors, "Negative free cash flow")
	}
	if d.NetMargin != nil && *d.NetMargin < 0 {
		score += 20
		factors = append(factors, "Unprofitable")
	}
	if d.RevenueGrowth != nil && *d.RevenueGrowth < -0.05 {
		score += 15
		factors = append(factors, "Shrinking revenue")
	}
	if d.Beta != nil && *d.Beta > 1.8 {
		score += 10
		factors = append(factors, "High beta")
	}

	score = clampScore(score)
	level := "LOW"
	switch {
	case score >= 75:
		level = "SEVERE"
	case score >= 55:
		level = "HIGH"
	case score >= 35:
		level = "MODERATE"
	}
	return models.RiskAssessment{Level: level, Score: score, Factors: factors}
}

func gradeQuality(d *models.FundamentalData, scores map[string]float64, risk models.RiskAssessment) models.QualityGrade {
	total := 0.0
	for pillar, weight := range pillarWeights {
		total += scores[pillar] * weight
	}

	penalty := 0.0
	if d.InsiderOwnership != nil && *d.InsiderOwnership < 0.01 {
		penalty = 5
	}
	total -= penalty

	capped := false
	if d.OperatingMargin != nil && *d.OperatingMargin < sectorOperatingMarginBenchmark/2 &&
		d.FreeCashFlow != nil && *d.FreeCashFlow < 0 && total > marginFragilityCap {
		total = marginFragilityCap
		capped = true
	}
	total = clampScore(total)

	grade := "F"
	switch {
	case total >= 85:
		grade = "A"
	case total >= 70:
		grade = "B"
	case total >= 55:
		grade = "C"
	case total >= 40:
		grade = "D"
	}

	return models.QualityGrade{
		Score:              total,
		Grade:              grade,
		GovernancePenalty:  penalty,
		MarginFragilityCap: capped,
	}
}

func labelValuation(score float64) string {
	switch {
	case score >= 70:
		return "Undervalued"
	case score >= 45:
		return "Fairly Valued"
	default:
		return "Expensive"
	}
}

func labelGrowth(g *float64) string {
	if g == nil {
		return "Unknown"
	}
	switch {
	case *g > 0.20:
		return "High Growth"
	case *g > 0.05:
		return "Moderate Growth"
	case *g >= 0:
		return "Flat"
	default:
		return "Declining"
	}
}

func labelHealth(d *models.FundamentalData) string {
	if d.NetCashStatus == "Net Cash" {
		return "Fortress Balance Sheet"
	}
	if d.DebtToEquity != nil && *d.DebtToEquity > 2 {
		return "Highly Leveraged"
	}
	return "Adequate"
}

func labelEfficiency(roe *float64) string {
	if roe == nil {
		return "Unknown"
	}
	switch {
	case *roe > 0.20:
		return "Excellent"
	case *roe > 0.10:
		return "Good"
	case *roe >= 0:
		return "Weak"
	default:
		return "Value Destructive"
	}
}

func labelEarningsQuality(fcfToNI *float64) string {
	if fcfToNI == nil {
		return "Unknown"
	}
	switch {
	case *fcfToNI > 1.0:
		return "Cash Rich Earnings"
	case *fcfToNI > 0.6:
		return "Solid"
	case *fcfToNI >= 0:
		return "Accrual Heavy"
	default:
		return "Paper Earnings"
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
