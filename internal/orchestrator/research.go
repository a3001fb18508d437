package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/horizon/internal/models"
)

// researchURLs are the public sources grounded into the deep-research
// report. %s is the ticker.
var researchURLs = []string{
	"https://finance.yahoo.com/quote/%s",
	"https://finance.yahoo.com/quote/%s/financials",
	"https://finance.yahoo.com/quote/%s/analysis",
}

// ResearchReport produces a free-form deep-research report grounded on
// public sources, seeded with the decision record when one can be computed.
func (o *Orchestrator) ResearchReport(ctx context.Context, ticker string) (string, error) {
	if o.narrative == nil {
		return "", fmt.Errorf("%w: no narrative client configured", models.ErrSensorFailure)
	}

	urls := make([]string, len(researchURLs))
	for i, u := range researchURLs {
		urls[i] = fmt.Sprintf(u, ticker)
	}

	// Recent coverage grounds the catalysts section. Capped so the URL
	// context stays within the model's retrieval budget.
	if digest, err := o.news.GetDigest(ctx, ticker); err == nil {
		for _, h := range digest.Headlines {
			if h.URL == "" || h.Class == "NOISE" {
				continue
			}
			urls = append(urls, h.URL)
			if len(urls) >= 8 {
				break
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Produce an institutional-grade research report for %s.\n", ticker)
	b.WriteString("Cover: business model, competitive position, financial trajectory, valuation, key risks and catalysts.\n")
	b.WriteString("Ground every claim in the provided sources. Structure the report with markdown headings.\n")

	// The quantitative record is advisory here; research works without it.
	if resp, err := o.Analyze(ctx, ticker, "positional", false); err == nil {
		fmt.Fprintf(&b, "\nThe in-house decision engine currently reads %s at confidence %.0f/100.\n",
			resp.Execution.Action, resp.System.Confidence)
	}

	return o.narrative.GenerateWithURLContext(ctx, b.String(), urls)
}
