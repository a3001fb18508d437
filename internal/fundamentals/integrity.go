package fundamentals

import "github.com/bobmcallan/horizon/internal/models"

// CheckIntegrity detects math-consistency violations in an enriched record.
func CheckIntegrity(d *models.FundamentalData) []string {
	if d == nil {
		return nil
	}

	var violations []string

	if d.OperatingMargin != nil && d.GrossMargin != nil && *d.OperatingMargin > *d.GrossMargin {
		violations = append(violations, "operating_margin exceeds gross_margin")
	}
	if d.NetIncome != nil && d.ROE != nil && *d.NetIncome > 0 && *d.ROE < 0 {
		violations = append(violations, "sign paradox: positive net_income with negative roe")
	}
	return violations
}
