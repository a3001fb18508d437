// Package fundamentals derives metrics, inferences and valuations from raw
// fundamental data.
package fundamentals

import (
	"math"

	"github.com/bobmcallan/horizon/internal/models"
)

// EnrichMetrics fills the derived fields of a raw fundamental record in
// place. Missing inputs leave the derived field null; no zero substitution.
func EnrichMetrics(d *models.FundamentalData, quarterly []models.IncomeStatementPeriod) {
	if d == nil {
		return
	}

	if d.EarningsYield == nil {
		if d.ForwardPE != nil && *d.ForwardPE != 0 {
			d.EarningsYield = models.Float(1 / *d.ForwardPE)
		} else if d.EPS != nil && d.Price != nil && *d.Price != 0 {
			d.EarningsYield = models.Float(*d.EPS / *d.Price)
		}
	}

	if d.EnterpriseToRevenue == nil && d.EnterpriseValue != nil && d.TotalRevenue != nil && *d.TotalRevenue != 0 {
		d.EnterpriseToRevenue = models.Float(*d.EnterpriseValue / *d.TotalRevenue)
	}

	if d.FreeCashFlowMargin == nil && d.FreeCashFlow != nil && d.TotalRevenue != nil && *d.TotalRevenue != 0 {
		d.FreeCashFlowMargin = models.Float(*d.FreeCashFlow / *d.TotalRevenue)
	}

	if d.FCFToNIRatio == nil && d.FreeCashFlow != nil && d.NetIncome != nil && *d.NetIncome != 0 {
		// Sign-preserving: a negative NI with positive FCF must not read
		// as a healthy positive ratio.
		ratio := *d.FreeCashFlow / math.Abs(*d.NetIncome)
		if *d.NetIncome < 0 {
			ratio = -ratio
		}
		d.FCFToNIRatio = models.Float(ratio)
	}

	if d.TotalCash != nil && d.TotalDebt != nil {
		net := *d.TotalCash - *d.TotalDebt
		d.NetCash = models.Float(net)
		if net >= 0 {
			d.NetCashStatus = "Net Cash"
		} else {
			d.NetCashStatus = "Net Debt"
		}
	}

	d.DebtToEquity = normalizeDebtToEquity(d.DebtToEquity)

	// ROE/ROA from net_income_to_common overrides the vendor value to
	// avoid the sign paradox where NI and vendor ROE disagree.
	if d.NetIncomeToCommon != nil {
		if d.StockholdersEquity != nil && *d.StockholdersEquity != 0 {
			d.ROE = models.Float(*d.NetIncomeToCommon / *d.StockholdersEquity)
		}
		if d.TotalAssets != nil && *d.TotalAssets != 0 {
			d.ROA = models.Float(*d.NetIncomeToCommon / *d.TotalAssets)
		}
	}

	if growth := yoyRevenueGrowth(quarterly); growth != nil {
		d.RevenueGrowth = growth
	}
}

// normalizeDebtToEquity converts percent-style vendor conventions to a
// plain ratio: values over 100 are clearly percent, values over 5 almost
// certainly are too.
func normalizeDebtToEquity(v *float64) *float64 {
	if v == nil {
		return nil
	}
	d := *v
	if d > 100 {
		d /= 100
	} else if d > 5 {
		d /= 100
	}
	return models.Float(d)
}

// yoyRevenueGrowth computes YoY growth from quarterly statements. The
// column ordering must be descending by period end; out-of-order input is
// rejected so a misordered vendor payload cannot flip the sign.
func yoyRevenueGrowth(quarterly []models.IncomeStatementPeriod) *float64 {
	if len(quarterly) < 5 {
		return nil
	}
	for i := 1; i < len(quarterly); i++ {
		if quarterly[i].EndDate.After(quarterly[i-1].EndDate) {
			return nil
		}
	}

	latest := quarterly[0].Revenue
	yearAgo := quarterly[4].Revenue
	if latest == nil || yearAgo == nil || *yearAgo == 0 {
		return nil
	}
	return models.Float((*latest - *yearAgo) / math.Abs(*yearAgo))
}
