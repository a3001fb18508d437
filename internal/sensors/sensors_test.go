package sensors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/horizon/internal/cache"
	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
)

var testNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

// fakeProvider is a scripted DataProvider.
type fakeProvider struct {
	name   string
	series *models.BarSeries
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchPriceHistory(_ context.Context, ticker, interval, period string) (*models.BarSeries, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func (f *fakeProvider) FetchTickerInfo(context.Context, string) (map[string]any, error) {
	return map[string]any{"name": f.name}, nil
}

func testSeries(n int) *models.BarSeries {
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{
			Timestamp: testNow.AddDate(0, 0, i-n),
			Open:      100, High: 101, Low: 99, Close: 100.5,
			Volume: 1_000_000,
		}
	}
	return &models.BarSeries{Ticker: "AAPL", Interval: "1d", Provider: "primary", Bars: bars}
}

func TestMarketDataFailover(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("boom")}
	secondary := &fakeProvider{name: "secondary", series: testSeries(60)}

	s := NewMarketDataSensor(
		[]interfaces.DataProvider{primary, secondary},
		cache.NewMemoryCache(),
		common.NewSilentLogger(),
	)

	series, err := s.GetPriceHistory(context.Background(), "AAPL", "1d")
	require.NoError(t, err)
	assert.Equal(t, 60, len(series.Bars))
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestMarketDataCacheHit(t *testing.T) {
	provider := &fakeProvider{name: "primary", series: testSeries(60)}
	s := NewMarketDataSensor(
		[]interfaces.DataProvider{provider},
		cache.NewMemoryCache(),
		common.NewSilentLogger(),
	)

	ctx := context.Background()
	first, err := s.GetPriceHistory(ctx, "AAPL", "1d")
	require.NoError(t, err)

	second, err := s.GetPriceHistory(ctx, "AAPL", "1d")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls, "second call must be served from cache")
	assert.Equal(t, len(first.Bars), len(second.Bars))
	assert.Equal(t, first.Bars[0].Close, second.Bars[0].Close)
}

func TestMarketDataAllProvidersFail(t *testing.T) {
	failing := &fakeProvider{name: "primary", err: models.ErrTickerNotFound}
	s := NewMarketDataSensor(
		[]interfaces.DataProvider{failing},
		cache.NewMemoryCache(),
		common.NewSilentLogger(),
	)

	_, err := s.GetPriceHistory(context.Background(), "NOPE", "1d")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTickerNotFound)
}

func TestPeriodFor(t *testing.T) {
	assert.Equal(t, "60d", periodFor("15m"))
	assert.Equal(t, "60d", periodFor("1h"))
	assert.Equal(t, "1y", periodFor("1d"))
	assert.Equal(t, "1y", periodFor("1wk"))
}

func TestFilterInsiderTrades(t *testing.T) {
	trades := []models.InsiderTrade{
		{Name: "small", Type: "Sell", Shares: 100, Value: models.Float(5_000), TradedAt: testNow.AddDate(0, 0, -1)},
		{Name: "big-value", Type: "Sell", Shares: 100, Value: models.Float(250_000), TradedAt: testNow.AddDate(0, 0, -2)},
		{Name: "big-shares", Type: "Buy", Shares: 10_000, Value: nil, TradedAt: testNow.AddDate(0, 0, -3)},
		{Name: "old-1", Type: "Sell", Shares: 9_000, TradedAt: testNow.AddDate(0, 0, -10)},
		{Name: "old-2", Type: "Sell", Shares: 9_000, TradedAt: testNow.AddDate(0, 0, -11)},
		{Name: "old-3", Type: "Sell", Shares: 9_000, TradedAt: testNow.AddDate(0, 0, -12)},
		{Name: "old-4", Type: "Sell", Shares: 9_000, TradedAt: testNow.AddDate(0, 0, -13)},
	}

	kept := filterInsiderTrades(trades)
	require.Len(t, kept, 5, "top 5 by recency")
	assert.Equal(t, "big-value", kept[0].Name)
	for _, k := range kept {
		assert.NotEqual(t, "small", k.Name, "immaterial trades must be dropped")
	}
}

func TestLabelOptionsHighCompression(t *testing.T) {
	o := labelOptions(&models.OptionsSentiment{ImpliedVol: models.Float(85)})
	assert.Equal(t, "High Compression", o.Label)

	calm := labelOptions(&models.OptionsSentiment{ImpliedVol: models.Float(25)})
	assert.Empty(t, calm.Label)

	assert.Nil(t, labelOptions(nil))
}

func TestBuildDigestDedupeAndCap(t *testing.T) {
	var headlines []models.Headline
	for i := 0; i < 30; i++ {
		headlines = append(headlines, models.Headline{
			Title:       "Company beats earnings expectations",
			Publisher:   "Reuters",
			PublishedAt: testNow.Add(-time.Duration(i) * time.Hour),
		})
	}
	headlines = append(headlines, models.Headline{
		Title:       "  company BEATS earnings expectations ",
		Publisher:   "Bloomberg",
		PublishedAt: testNow,
	})

	digest := buildDigest("AAPL", headlines, testNow)
	assert.Len(t, digest.Headlines, 1, "case-insensitive trimmed titles must dedupe")
}

func TestBuildDigestScoring(t *testing.T) {
	headlines := []models.Headline{
		{Title: "Quarterly results: ACME announces earnings and guidance", Publisher: "Reuters", PublishedAt: testNow},
		{Title: "This stock will skyrocket to the moon", Publisher: "HypeBlog", PublishedAt: testNow.Add(-time.Hour)},
		{Title: "ACME rises on strong demand", Publisher: "Bloomberg", PublishedAt: testNow.Add(-2 * time.Hour)},
		{Title: "ACME falls after competitor launch", Publisher: "WSJ", PublishedAt: testNow.Add(-3 * time.Hour)},
		{Title: "ACME opens new office", Publisher: "LocalNews", PublishedAt: testNow.Add(-4 * time.Hour)},
	}

	digest := buildDigest("ACME", headlines, testNow)
	require.Len(t, digest.Headlines, 5)

	assert.Equal(t, "SIGNAL", digest.Headlines[0].Class)
	assert.Equal(t, float64(80), digest.Headlines[0].Score)
	assert.Equal(t, "NOISE", digest.Headlines[1].Class)
	assert.Equal(t, "DIRECTIONAL", digest.Headlines[2].Class)
	assert.Equal(t, float64(20), digest.Headlines[2].Score)
	assert.Equal(t, float64(-20), digest.Headlines[3].Score)
	assert.Equal(t, "NEUTRAL", digest.Headlines[4].Class)

	// mean of [80, -50, 20, -20, 0]
	assert.InDelta(t, 6.0, digest.SignalScore, 1e-9)
	assert.InDelta(t, 20.0, digest.NoiseRatio, 1e-9)
	assert.InDelta(t, 1.0, digest.SourceDiversity, 1e-9)
	assert.False(t, digest.NarrativeTrapWarning)
}

func TestBuildDigestNarrativeTrap(t *testing.T) {
	var headlines []models.Headline
	for i := 0; i < 10; i++ {
		headlines = append(headlines, models.Headline{
			Title:       "Shocking stock set to skyrocket " + string(rune('a'+i)),
			Publisher:   "HypeBlog",
			PublishedAt: testNow.Add(-time.Duration(i) * time.Hour),
		})
	}

	digest := buildDigest("MEME", headlines, testNow)
	assert.Greater(t, digest.NoiseRatio, 60.0)
	assert.Less(t, digest.SourceDiversity, 0.3)
	assert.True(t, digest.NarrativeTrapWarning)
}
