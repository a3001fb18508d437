package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
)

var _ interfaces.NewsSource = (*Client)(nil)

// FetchHeadlines returns company news from the trailing week.
func (c *Client) FetchHeadlines(ctx context.Context, ticker string, limit int) ([]models.Headline, error) {
	now := time.Now().UTC()
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("from", now.AddDate(0, 0, -7).Format("2006-01-02"))
	params.Set("to", now.Format("2006-01-02"))

	var resp []struct {
		Datetime int64  `json:"datetime"`
		Headline string `json:"headline"`
		Source   string `json:"source"`
		URL      string `json:"url"`
	}
	if err := c.get(ctx, "/company-news", params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}

	if limit > 0 && len(resp) > limit {
		resp = resp[:limit]
	}

	headlines := make([]models.Headline, 0, len(resp))
	for _, n := range resp {
		if n.Headline == "" {
			continue
		}
		headlines = append(headlines, models.Headline{
			Title:       n.Headline,
			Publisher:   n.Source,
			Source:      c.Name(),
			URL:         n.URL,
			PublishedAt: time.Unix(n.Datetime, 0).UTC(),
		})
	}
	return headlines, nil
}
