package fundamentals

import (
	"math"
	"testing"
	"time"

	"github.com/bobmcallan/horizon/internal/models"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEnrichMetricsDerivations(t *testing.T) {
	d := &models.FundamentalData{
		Price:              models.Float(100),
		ForwardPE:          models.Float(20),
		EnterpriseValue:    models.Float(5e9),
		TotalRevenue:       models.Float(1e9),
		FreeCashFlow:       models.Float(2e8),
		NetIncome:          models.Float(1e8),
		TotalCash:          models.Float(3e8),
		TotalDebt:          models.Float(1e8),
		NetIncomeToCommon:  models.Float(9e7),
		StockholdersEquity: models.Float(4.5e8),
		TotalAssets:        models.Float(9e8),
	}
	EnrichMetrics(d, nil)

	if d.EarningsYield == nil || !almostEqual(*d.EarningsYield, 0.05) {
		t.Errorf("earnings_yield = %v, want 0.05", d.EarningsYield)
	}
	if d.EnterpriseToRevenue == nil || !almostEqual(*d.EnterpriseToRevenue, 5) {
		t.Errorf("enterprise_to_revenue = %v, want 5", d.EnterpriseToRevenue)
	}
	if d.FreeCashFlowMargin == nil || !almostEqual(*d.FreeCashFlowMargin, 0.2) {
		t.Errorf("fcf_margin = %v, want 0.2", d.FreeCashFlowMargin)
	}
	if d.FCFToNIRatio == nil || !almostEqual(*d.FCFToNIRatio, 2.0) {
		t.Errorf("fcf_to_ni = %v, want 2.0", d.FCFToNIRatio)
	}
	if d.NetCash == nil || *d.NetCash != 2e8 || d.NetCashStatus != "Net Cash" {
		t.Errorf("net cash = %v status %q", d.NetCash, d.NetCashStatus)
	}
	if d.ROE == nil || !almostEqual(*d.ROE, 0.2) {
		t.Errorf("roe = %v, want 0.2", d.ROE)
	}
	if d.ROA == nil || !almostEqual(*d.ROA, 0.1) {
		t.Errorf("roa = %v, want 0.1", d.ROA)
	}
}

func TestEnrichMetricsFCFSignPreservation(t *testing.T) {
	d := &models.FundamentalData{
		FreeCashFlow: models.Float(5e7),
		NetIncome:    models.Float(-1e8),
	}
	EnrichMetrics(d, nil)

	if d.FCFToNIRatio == nil || *d.FCFToNIRatio >= 0 {
		t.Errorf("fcf_to_ni with negative NI = %v, want negative", d.FCFToNIRatio)
	}
}

func TestNormalizeDebtToEquity(t *testing.T) {
	tests := []struct {
		in   *float64
		want *float64
	}{
		{models.Float(0.8), models.Float(0.8)},
		// Ratio-convention values just past the percent cutoff stay ratios.
		{models.Float(6), models.Float(0.06)},
		{models.Float(150), models.Float(1.5)},
		// Percent-convention heavy leverage converts exactly once.
		{models.Float(600), models.Float(6.0)},
		{models.Float(5000), models.Float(50.0)},
		{nil, nil},
	}

	for _, tt := range tests {
		got := normalizeDebtToEquity(tt.in)
		if (got == nil) != (tt.want == nil) {
			t.Errorf("normalizeDebtToEquity(%v) nil mismatch", tt.in)
			continue
		}
		if got != nil && !almostEqual(*got, *tt.want) {
			t.Errorf("normalizeDebtToEquity(%v) = %v, want %v", *tt.in, *got, *tt.want)
		}
	}
}

func quarterlies(revs []float64) []models.IncomeStatementPeriod {
	out := make([]models.IncomeStatementPeriod, len(revs))
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	for i, r := range revs {
		out[i] = models.IncomeStatementPeriod{
			EndDate: end.AddDate(0, -3*i, 0),
			Revenue: models.Float(r),
		}
	}
	return out
}

func TestYoYRevenueGrowth(t *testing.T) {
	g := yoyRevenueGrowth(quarterlies([]float64{120, 110, 105, 102, 100}))
	if g == nil || !almostEqual(*g, 0.2) {
		t.Errorf("growth = %v, want 0.2", g)
	}

	if yoyRevenueGrowth(quarterlies([]float64{120, 110})) != nil {
		t.Errorf("expected nil for short history")
	}

	// Ascending ordering must be rejected.
	asc := quarterlies([]float64{120, 110, 105, 102, 100})
	asc[0].EndDate, asc[4].EndDate = asc[4].EndDate, asc[0].EndDate
	if yoyRevenueGrowth(asc) != nil {
		t.Errorf("expected nil for misordered columns")
	}
}

func TestCheckIntegrity(t *testing.T) {
	clean := &models.FundamentalData{
		GrossMargin:     models.Float(0.5),
		OperatingMargin: models.Float(0.2),
		NetIncome:       models.Float(1e8),
		ROE:             models.Float(0.15),
	}
	if v := CheckIntegrity(clean); len(v) != 0 {
		t.Errorf("unexpected violations: %v", v)
	}

	bad := &models.FundamentalData{
		GrossMargin:     models.Float(0.2),
		OperatingMargin: models.Float(0.5),
		NetIncome:       models.Float(1e8),
		ROE:             models.Float(-0.1),
	}
	if v := CheckIntegrity(bad); len(v) != 2 {
		t.Errorf("expected 2 violations, got %v", v)
	}
}
