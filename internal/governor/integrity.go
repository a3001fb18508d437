// Package governor enforces the non-negotiable trading rules and data
// integrity checks that gate every decision.
package governor

import (
	"strings"

	"github.com/bobmcallan/horizon/internal/models"
)

// ivPoisonThreshold: implied volatility beyond this is treated as a
// poisoned reading rather than a tradeable signal.
const ivPoisonThreshold = 200.0

// AssessDataIntegrity classifies the inputs for one horizon.
//
// INVALID when rsi or macd_histogram is missing: nothing downstream can
// score without them. Otherwise each poisoned indicator degrades the state.
// International tickers (exchange suffix after '.') are exempt from the
// options/insider checks since many venues simply do not report them.
func AssessDataIntegrity(t *models.Technicals, mc *models.MarketContext, ticker string) models.IntegrityReport {
	report := models.IntegrityReport{State: models.IntegrityValid}

	if t == nil || t.RSI == nil || t.MACDHistogram == nil {
		report.State = models.IntegrityInvalid
		if t == nil || t.RSI == nil {
			report.Missing = append(report.Missing, "rsi")
		}
		if t == nil || t.MACDHistogram == nil {
			report.Missing = append(report.Missing, "macd_histogram")
		}
		return report
	}

	international := strings.Contains(ticker, ".")

	if t.CCI == nil {
		report.Poisoned = append(report.Poisoned, "cci")
	}
	if t.VolumeRatio == nil {
		report.Poisoned = append(report.Poisoned, "volume_ratio")
	}
	if !international && mc != nil && mc.Options != nil && mc.Options.ImpliedVol != nil && *mc.Options.ImpliedVol > ivPoisonThreshold {
		report.Poisoned = append(report.Poisoned, "implied_volatility")
	}

	if len(report.Poisoned) > 0 {
		report.State = models.IntegrityDegraded
	}
	return report
}
