package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
)

var _ interfaces.FundamentalsProvider = (*Client)(nil)

// metricFloat pulls a metric value as a nullable float.
func metricFloat(metrics map[string]any, key string) *float64 {
	v, ok := metrics[key]
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return models.Float(f)
}

// scalePercent converts vendor percent conventions (e.g. 23.4) to fractions.
func scalePercent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return models.Float(*v / 100)
}

// FetchFundamentals builds the raw fundamental record from the metric and
// profile endpoints. Derived fields are left to the fundamentals engine.
func (c *Client) FetchFundamentals(ctx context.Context, ticker string) (*models.FundamentalData, error) {
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("metric", "all")

	var resp struct {
		Metric map[string]any `json:"metric"`
	}
	if err := c.get(ctx, "/stock/metric", params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}
	if len(resp.Metric) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrTickerNotFound, ticker)
	}

	m := resp.Metric
	d := &models.FundamentalData{
		Ticker:    ticker,
		Provider:  c.Name(),
		FetchedAt: time.Now().UTC(),

		TrailingPE:        metricFloat(m, "peTTM"),
		ForwardPE:         metricFloat(m, "peAnnual"),
		EPS:               metricFloat(m, "epsTTM"),
		PriceToBook:       metricFloat(m, "pbAnnual"),
		BookValuePerShare: metricFloat(m, "bookValuePerShareAnnual"),

		GrossMargin:     scalePercent(metricFloat(m, "grossMarginTTM")),
		OperatingMargin: scalePercent(metricFloat(m, "operatingMarginTTM")),
		NetMargin:       scalePercent(metricFloat(m, "netProfitMarginTTM")),
		ROE:             scalePercent(metricFloat(m, "roeTTM")),
		ROA:             scalePercent(metricFloat(m, "roaTTM")),

		RevenueGrowth:  scalePercent(metricFloat(m, "revenueGrowthTTMYoy")),
		EarningsGrowth: scalePercent(metricFloat(m, "epsGrowthTTMYoy")),

		DebtToEquity: metricFloat(m, "totalDebt/totalEquityAnnual"),
		CurrentRatio: metricFloat(m, "currentRatioAnnual"),
		Beta:         metricFloat(m, "beta"),
		DividendYield: scalePercent(metricFloat(m, "currentDividendYieldTTM")),
	}

	// Market cap and enterprise value arrive in millions.
	if v := metricFloat(m, "marketCapitalization"); v != nil {
		d.MarketCap = models.Float(*v * 1e6)
	}
	if v := metricFloat(m, "enterpriseValue"); v != nil {
		d.EnterpriseValue = models.Float(*v * 1e6)
	}

	if profile, err := c.FetchTickerInfo(ctx, ticker); err == nil {
		if name, ok := profile["name"].(string); ok {
			d.Name = name
		}
		if sector, ok := profile["finnhubIndustry"].(string); ok {
			d.Sector = sector
		}
		if shares, ok := profile["shareOutstanding"].(float64); ok && shares > 0 {
			d.SharesOutstanding = models.Float(shares * 1e6)
		}
	}

	return d, nil
}

// FetchQuarterlyIncome returns quarterly revenue and net income, most
// recent first, from the reported financials endpoint.
func (c *Client) FetchQuarterlyIncome(ctx context.Context, ticker string) ([]models.IncomeStatementPeriod, error) {
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("freq", "quarterly")

	var resp struct {
		Data []struct {
			EndDate string `json:"endDate"`
			Report  struct {
				IC []struct {
					Concept string  `json:"concept"`
					Value   float64 `json:"value"`
				} `json:"ic"`
			} `json:"report"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/stock/financials-reported", params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}

	periods := make([]models.IncomeStatementPeriod, 0, len(resp.Data))
	for _, d := range resp.Data {
		endDate, err := time.Parse("2006-01-02 15:04:05", d.EndDate)
		if err != nil {
			if endDate, err = time.Parse("2006-01-02", d.EndDate); err != nil {
				continue
			}
		}

		period := models.IncomeStatementPeriod{EndDate: endDate}
		for _, line := range d.Report.IC {
			switch line.Concept {
			case "us-gaap_Revenues", "us-gaap_RevenueFromContractWithCustomerExcludingAssessedTax":
				period.Revenue = models.Float(line.Value)
			case "us-gaap_NetIncomeLoss":
				period.NetIncome = models.Float(line.Value)
			}
		}
		periods = append(periods, period)
	}
	return periods, nil
}
