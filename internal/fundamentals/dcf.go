package fundamentals

import (
	"math"

	"github.com/bobmcallan/horizon/internal/models"
)

const (
	dcfBaseDiscountRate   = 0.10
	dcfRiskPremium        = 0.02
	dcfTerminalGrowth     = 0.025
	dcfDominanceThreshold = 0.85
)

// terminal-growth sensitivity grid values
var dcfSensitivityGrowths = []float64{0.01, 0.02, 0.025, 0.03, 0.04}

// ComputeDCF runs the three-stage model: years 1-5 at the observed revenue
// growth, years 6-10 fading linearly to terminal growth, then a Gordon
// terminal value. Requires FCF, shares outstanding and a growth estimate.
func ComputeDCF(d *models.FundamentalData) *models.DCFValuation {
	if d == nil || d.FreeCashFlow == nil || d.SharesOutstanding == nil || *d.SharesOutstanding <= 0 {
		return &models.DCFValuation{Status: models.DCFStatusUndefined}
	}

	growth := 0.05
	if d.RevenueGrowth != nil {
		growth = *d.RevenueGrowth
	}
	// Cap explosive growth assumptions; the fade stage handles the decay.
	growth = math.Min(growth, 0.40)

	discount := dcfBaseDiscountRate
	if d.FreeCashFlowMargin != nil && *d.FreeCashFlowMargin < 0.10 {
		discount += dcfRiskPremium
	}

	val := runThreeStage(*d.FreeCashFlow, growth, discount, dcfTerminalGrowth, *d.SharesOutstanding)

	val.Sensitivity = make([]models.DCFSensitivityPoint, 0, len(dcfSensitivityGrowths))
	for _, tg := range dcfSensitivityGrowths {
		point := runThreeStage(*d.FreeCashFlow, growth, discount, tg, *d.SharesOutstanding)
		val.Sensitivity = append(val.Sensitivity, models.DCFSensitivityPoint{
			TerminalGrowth: tg,
			PerShare:       point.PerShare,
		})
	}
	return val
}

func runThreeStage(fcf, growth, discount, terminalGrowth, shares float64) *models.DCFValuation {
	if discount <= terminalGrowth {
		return &models.DCFValuation{
			Status:         models.DCFStatusUndefined,
			DiscountRate:   discount,
			TerminalGrowth: terminalGrowth,
		}
	}

	cash := fcf
	stage1 := 0.0
	for year := 1; year <= 5; year++ {
		cash *= 1 + growth
		stage1 += cash / math.Pow(1+discount, float64(year))
	}

	stage2 := 0.0
	for year := 6; year <= 10; year++ {
		// Linear fade from the stage-1 growth to terminal growth.
		frac := float64(year-5) / 5
		g := growth + (terminalGrowth-growth)*frac
		cash *= 1 + g
		stage2 += cash / math.Pow(1+discount, float64(year))
	}

	terminalValue := cash * (1 + terminalGrowth) / (discount - terminalGrowth)
	terminalPV := terminalValue / math.Pow(1+discount, 10)

	total := stage1 + stage2 + terminalPV
	val := &models.DCFValuation{
		Status:         models.DCFStatusOK,
		DiscountRate:   discount,
		TerminalGrowth: terminalGrowth,
		Stage1PV:       stage1,
		Stage2PV:       stage2,
		TerminalPV:     terminalPV,
	}

	if total <= 0 {
		val.Status = models.DCFStatusUndefined
		return val
	}

	val.PerShare = models.Float(total / shares)
	val.TerminalDominance = terminalPV / total

	// Kill-switch: the value is still reported, the status flags it.
	if val.TerminalDominance > dcfDominanceThreshold {
		val.Status = models.DCFStatusTerminalWarning
	}
	return val
}
