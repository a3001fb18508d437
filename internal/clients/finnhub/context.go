package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
)

var _ interfaces.ContextProvider = (*Client)(nil)

// FetchAnalystRatings returns recent upgrade/downgrade actions.
func (c *Client) FetchAnalystRatings(ctx context.Context, ticker string) ([]models.AnalystRating, error) {
	params := url.Values{}
	params.Set("symbol", ticker)

	var resp []struct {
		Company   string `json:"company"`
		Action    string `json:"action"`
		FromGrade string `json:"fromGrade"`
		ToGrade   string `json:"toGrade"`
		GradeTime int64  `json:"gradeTime"`
	}
	if err := c.get(ctx, "/stock/upgrade-downgrade", params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}

	ratings := make([]models.AnalystRating, 0, len(resp))
	for _, r := range resp {
		ratings = append(ratings, models.AnalystRating{
			Firm:      r.Company,
			Action:    r.Action,
			FromGrade: r.FromGrade,
			ToGrade:   r.ToGrade,
			RatedAt:   time.Unix(r.GradeTime, 0).UTC(),
		})
	}
	return ratings, nil
}

// FetchPriceTargets returns the aggregated analyst price targets.
func (c *Client) FetchPriceTargets(ctx context.Context, ticker string) (*models.PriceTargets, error) {
	params := url.Values{}
	params.Set("symbol", ticker)

	var resp struct {
		TargetMean   float64 `json:"targetMean"`
		TargetHigh   float64 `json:"targetHigh"`
		TargetLow    float64 `json:"targetLow"`
		TargetMedian float64 `json:"targetMedian"`
	}
	if err := c.get(ctx, "/stock/price-target", params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}

	targets := &models.PriceTargets{}
	if resp.TargetMean > 0 {
		targets.Mean = models.Float(resp.TargetMean)
	}
	if resp.TargetHigh > 0 {
		targets.High = models.Float(resp.TargetHigh)
	}
	if resp.TargetLow > 0 {
		targets.Low = models.Float(resp.TargetLow)
	}
	if resp.TargetMedian > 0 {
		targets.Median = models.Float(resp.TargetMedian)
	}
	return targets, nil
}

// FetchConsensus returns the latest recommendation buckets.
func (c *Client) FetchConsensus(ctx context.Context, ticker string) (*models.ConsensusBuckets, error) {
	params := url.Values{}
	params.Set("symbol", ticker)

	var resp []struct {
		StrongBuy  int `json:"strongBuy"`
		Buy        int `json:"buy"`
		Hold       int `json:"hold"`
		Sell       int `json:"sell"`
		StrongSell int `json:"strongSell"`
	}
	if err := c.get(ctx, "/stock/recommendation", params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}
	if len(resp) == 0 {
		return nil, nil
	}

	// First entry is the most recent month.
	latest := resp[0]
	return &models.ConsensusBuckets{
		StrongBuy:  latest.StrongBuy,
		Buy:        latest.Buy,
		Hold:       latest.Hold,
		Sell:       latest.Sell,
		StrongSell: latest.StrongSell,
	}, nil
}

// FetchInsiderTrades returns raw insider transactions; materiality
// filtering happens in the context sensor.
func (c *Client) FetchInsiderTrades(ctx context.Context, ticker string) ([]models.InsiderTrade, error) {
	params := url.Values{}
	params.Set("symbol", ticker)

	var resp struct {
		Data []struct {
			Name            string  `json:"name"`
			Share           float64 `json:"share"`
			Change          float64 `json:"change"`
			TransactionDate string  `json:"transactionDate"`
			TransactionCode string  `json:"transactionCode"`
			TransactionPrice float64 `json:"transactionPrice"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/stock/insider-transactions", params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}

	trades := make([]models.InsiderTrade, 0, len(resp.Data))
	for _, d := range resp.Data {
		tradedAt, err := time.Parse("2006-01-02", d.TransactionDate)
		if err != nil {
			continue
		}

		kind := "Buy"
		// S codes are open-market sales; negative change is a disposal.
		if d.TransactionCode == "S" || d.Change < 0 {
			kind = "Sell"
		}

		shares := d.Change
		if shares < 0 {
			shares = -shares
		}

		trade := models.InsiderTrade{
			Name:     d.Name,
			Type:     kind,
			Shares:   shares,
			TradedAt: tradedAt,
		}
		if d.TransactionPrice > 0 {
			trade.Value = models.Float(shares * d.TransactionPrice)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// FetchNextEarnings returns the next scheduled earnings release.
func (c *Client) FetchNextEarnings(ctx context.Context, ticker string) (*models.EarningsEvent, error) {
	now := time.Now().UTC()
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("from", now.Format("2006-01-02"))
	params.Set("to", now.AddDate(0, 4, 0).Format("2006-01-02"))

	var resp struct {
		EarningsCalendar []struct {
			Date        string  `json:"date"`
			EPSEstimate float64 `json:"epsEstimate"`
		} `json:"earningsCalendar"`
	}
	if err := c.get(ctx, "/calendar/earnings", params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}
	if len(resp.EarningsCalendar) == 0 {
		return nil, nil
	}

	next := resp.EarningsCalendar[0]
	date, err := time.Parse("2006-01-02", next.Date)
	if err != nil {
		return nil, nil
	}

	event := &models.EarningsEvent{
		Date:      date,
		DaysUntil: int(date.Sub(now).Hours() / 24),
	}
	if next.EPSEstimate != 0 {
		event.EPSEstimate = models.Float(next.EPSEstimate)
	}
	return event, nil
}

// FetchOptionsSentiment summarizes the nearest-expiry option chain.
// Returns nil when the venue lists no options for the ticker.
func (c *Client) FetchOptionsSentiment(ctx context.Context, ticker string) (*models.OptionsSentiment, error) {
	params := url.Values{}
	params.Set("symbol", ticker)

	var resp struct {
		Data []struct {
			Options struct {
				Call []optionContract `json:"CALL"`
				Put  []optionContract `json:"PUT"`
			} `json:"options"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/stock/option-chain", params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	chain := resp.Data[0].Options
	var callOI, putOI, ivSum float64
	var ivCount int
	var callWall, putWall optionContract

	for _, o := range chain.Call {
		callOI += o.OpenInterest
		if o.OpenInterest > callWall.OpenInterest {
			callWall = o
		}
		if o.ImpliedVolatility > 0 {
			ivSum += o.ImpliedVolatility
			ivCount++
		}
	}
	for _, o := range chain.Put {
		putOI += o.OpenInterest
		if o.OpenInterest > putWall.OpenInterest {
			putWall = o
		}
		if o.ImpliedVolatility > 0 {
			ivSum += o.ImpliedVolatility
			ivCount++
		}
	}

	sentiment := &models.OptionsSentiment{}
	if callOI > 0 {
		sentiment.PutCallRatio = models.Float(putOI / callOI)
	}
	if ivCount > 0 {
		sentiment.ImpliedVol = models.Float(ivSum / float64(ivCount))
	}
	if callWall.OpenInterest > 0 {
		sentiment.OIWallCall = models.Float(callWall.Strike)
	}
	if putWall.OpenInterest > 0 {
		sentiment.OIWallPut = models.Float(putWall.Strike)
	}
	return sentiment, nil
}

type optionContract struct {
	Strike            float64 `json:"strike"`
	OpenInterest      float64 `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}
