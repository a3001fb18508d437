package sensors

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/horizon/internal/cache"
	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
)

const newsHeadlineCap = 20

// Headline classification scores.
const (
	noiseScore       = -50.0
	signalScore      = 80.0
	directionalScore = 20.0
)

var (
	// Retail-hype phrasing: engagement bait, not information.
	noisePatterns = regexp.MustCompile(`(?i)\b(to the moon|skyrocket|soar|plunge|crash|massive|shocking|must[- ]buy|top \d+ stocks|millionaire|get rich|explosive|meme)\b`)

	// Hard corporate events: filings, earnings, deals.
	signalPatterns = regexp.MustCompile(`(?i)\b(earnings|quarterly results|guidance|sec filing|10-k|10-q|8-k|merger|acquisition|acquires|buyback|dividend|downgrade|upgrade|lawsuit|fda approval|contract award)\b`)

	bullishPatterns = regexp.MustCompile(`(?i)\b(rises|gains|beats|tops|outperforms|rallies|record high)\b`)
	bearishPatterns = regexp.MustCompile(`(?i)\b(falls|drops|misses|cuts|underperforms|slides|record low)\b`)
)

// NewsAggregator fans out to the configured sources and scores the merged
// headline set.
type NewsAggregator struct {
	sources []interfaces.NewsSource
	cache   interfaces.Cache
	logger  *common.Logger
	now     func() time.Time
}

var _ interfaces.NewsAggregator = (*NewsAggregator)(nil)

// NewNewsAggregator wires the aggregator over at least one source; two or
// more are expected in production for source diversity.
func NewNewsAggregator(sources []interfaces.NewsSource, c interfaces.Cache, logger *common.Logger) *NewsAggregator {
	return &NewsAggregator{sources: sources, cache: c, logger: logger, now: time.Now}
}

// GetDigest returns the scored news digest for the ticker. Per-source
// failures degrade coverage but never fail the digest.
func (a *NewsAggregator) GetDigest(ctx context.Context, ticker string) (*models.NewsDigest, error) {
	key := cache.Key("news", ticker)

	var cached models.NewsDigest
	if hit, _ := a.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	if len(a.sources) == 0 {
		return nil, fmt.Errorf("%w: no news sources configured", models.ErrSensorFailure)
	}

	var mu sync.Mutex
	var all []models.Headline

	g, gctx := errgroup.WithContext(ctx)
	for _, source := range a.sources {
		g.Go(func() error {
			headlines, err := source.FetchHeadlines(gctx, ticker, newsHeadlineCap)
			if err != nil {
				a.logger.Warn().Err(err).Str("source", source.Name()).Str("ticker", ticker).Msg("news fetch failed")
				return nil
			}
			mu.Lock()
			all = append(all, headlines...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	digest := buildDigest(ticker, all, a.now().UTC())

	if err := a.cache.Set(ctx, key, digest, common.SensorCacheTTL); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("news cache write failed")
	}
	return digest, nil
}

// buildDigest deduplicates, sorts, caps and scores the merged headlines.
func buildDigest(ticker string, headlines []models.Headline, fetchedAt time.Time) *models.NewsDigest {
	seen := make(map[string]bool, len(headlines))
	deduped := make([]models.Headline, 0, len(headlines))
	for _, h := range headlines {
		dedupeKey := strings.ToLower(strings.TrimSpace(h.Title))
		if dedupeKey == "" || seen[dedupeKey] {
			continue
		}
		seen[dedupeKey] = true
		deduped = append(deduped, h)
	}

	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].PublishedAt.After(deduped[j].PublishedAt)
	})
	if len(deduped) > newsHeadlineCap {
		deduped = deduped[:newsHeadlineCap]
	}

	digest := &models.NewsDigest{Ticker: ticker, FetchedAt: fetchedAt}
	if len(deduped) == 0 {
		digest.Headlines = []models.Headline{}
		return digest
	}

	publishers := make(map[string]bool)
	var total float64
	var noiseCount int
	for i := range deduped {
		score, class := classifyHeadline(deduped[i].Title)
		deduped[i].Score = score
		deduped[i].Class = class
		total += score
		if class == "NOISE" {
			noiseCount++
		}
		if p := strings.ToLower(strings.TrimSpace(deduped[i].Publisher)); p != "" {
			publishers[p] = true
		}
	}

	digest.Headlines = deduped
	digest.SignalScore = total / float64(len(deduped))
	digest.NoiseRatio = float64(noiseCount) / float64(len(deduped)) * 100
	digest.SourceDiversity = float64(len(publishers)) / float64(len(deduped))
	digest.NarrativeTrapWarning = digest.NoiseRatio > 60 && digest.SourceDiversity < 0.3
	return digest
}

func classifyHeadline(title string) (float64, string) {
	switch {
	case noisePatterns.MatchString(title):
		return noiseScore, "NOISE"
	case signalPatterns.MatchString(title):
		return signalScore, "SIGNAL"
	case bullishPatterns.MatchString(title):
		return directionalScore, "DIRECTIONAL"
	case bearishPatterns.MatchString(title):
		return -directionalScore, "DIRECTIONAL"
	default:
		return 0, "NEUTRAL"
	}
}
