// Package external declares the contracts the core depends on for
// everything outside its own process (spec §6): price/news/social
// data, an NLP sentiment model, two ML scorers, and a best-effort
// notifier. Concrete vendor HTTP clients are out of scope (spec
// Non-goals); reference.go supplies deterministic reference
// implementations shaped the way the teacher's clients/yahoo and
// clients/tradernet packages are shaped (constructor takes a
// zerolog.Logger, typed methods, %w-wrapped errors) without real HTTP
// parsing, so the rest of the system has something concrete to run
// and test against.
package external

import (
	"context"
	"time"

	"github.com/samhoi-x/compass/internal/domain"
)

// Quote is a current-price snapshot.
type Quote struct {
	Price      float64
	Change     float64
	ChangePct  float64
}

// PriceSource fetches OHLCV history and live quotes for one asset
// class. Errors yield an empty series; retries are the
// implementation's responsibility (spec §6).
type PriceSource interface {
	Fetch(ctx context.Context, symbol string, period time.Duration) ([]domain.OHLCVBar, error)
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// NewsItem is one deduplicated-downstream news item.
type NewsItem struct {
	Title       string
	Description string
	Source      string
	URL         string
	PublishedAt time.Time
}

// NewsSource fetches recent news for a symbol.
type NewsSource interface {
	Fetch(ctx context.Context, symbol string) ([]NewsItem, error)
}

// SocialPost is one opaque piece of social content.
type SocialPost struct {
	Title     string
	Text      string
	Score     float64
	Subreddit string
	Created   time.Time
}

// SocialSource fetches social content; content is treated as opaque
// text by every downstream consumer.
type SocialSource interface {
	FetchPosts(ctx context.Context, symbol string, asset domain.AssetClass) ([]SocialPost, error)
	FetchShortMessages(ctx context.Context, symbol string) ([]string, error)
}

// SentimentLabel is the NLP model's three-way classification.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// SentimentResult is one classified text. Signed() maps label to the
// signed value the sentiment factor consumes: positive -> +score,
// negative -> -score, neutral -> 0.
type SentimentResult struct {
	Label SentimentLabel
	Score float64
}

// Signed returns the directional value the sentiment factor blends.
func (r SentimentResult) Signed() float64 {
	switch r.Label {
	case SentimentPositive:
		return r.Score
	case SentimentNegative:
		return -r.Score
	default:
		return 0
	}
}

// SentimentModel classifies a batch of opaque text.
type SentimentModel interface {
	Analyze(ctx context.Context, text []string) ([]SentimentResult, error)
}

// MLPrediction is one model's forward-looking call.
type MLPrediction struct {
	SignalScore float64 // [-1,1]
	Confidence  float64 // [0,1]
	TrainedAt   time.Time
}

// IsStale reports whether the model backing this prediction needs
// retraining given the configured interval.
func (p MLPrediction) IsStale(retrainInterval time.Duration) bool {
	return time.Since(p.TrainedAt) > retrainInterval
}

// MLScorer is satisfied by both the XGBoost-style tabular scorer and
// the LSTM-style sequence scorer (spec §6); callers select by name.
type MLScorer interface {
	Train(ctx context.Context, symbol string, bars []domain.OHLCVBar) error
	Predict(ctx context.Context, symbol string, bars []domain.OHLCVBar) (MLPrediction, error)
}

// Notifier delivers a best-effort message; failure never propagates
// to the caller beyond a returned error the caller is free to log and
// discard.
type Notifier interface {
	Send(ctx context.Context, destination, message string) error
}

// MarketDataProvider supplies the raw numeric inputs behind the
// optional factor scorers that aren't plain OHLCV bars: macro (VIX),
// breadth, cross-asset proxy returns, fear/greed, analyst ratings,
// sector rotation, short interest, options positioning and earnings
// proximity. Every method is allowed to return zero-value data with a
// NoDataError; the caller treats that the same as any other missing
// optional factor (spec §6/§7).
type MarketDataProvider interface {
	// VIXHistory feeds the macro regime/score factor.
	VIXHistory(ctx context.Context, period time.Duration) ([]domain.OHLCVBar, error)
	// MarketBreadth returns today's NYSE advancers/decliners.
	MarketBreadth(ctx context.Context) (advancers, decliners int, err error)
	// CrossAssetReturns returns recent daily returns for the
	// cross-asset regime proxies (e.g. DXY, gold, 10y yield).
	CrossAssetReturns(ctx context.Context) ([]float64, error)
	// FearGreedIndex returns the current 0-100 reading for asset.
	FearGreedIndex(ctx context.Context, asset domain.AssetClass) (float64, error)
	// AnalystRatings returns the recent analyst rating values for
	// symbol on the five-point scale (1 = strong sell .. 5 = strong buy).
	AnalystRatings(ctx context.Context, symbol string) ([]float64, error)
	// SectorReturns returns (sector return, market return) over the
	// rotation lookback window for symbol's sector.
	SectorReturns(ctx context.Context, symbol string) (sectorReturn, marketReturn float64, err error)
	// ShortInterest returns (current ratio, prior ratio, fraction of
	// float sold short, e.g. 0.15 for 15%) for symbol.
	ShortInterest(ctx context.Context, symbol string) (ratio, priorRatio, percentFloat float64, err error)
	// PutCallRatio returns symbol's current options put/call ratio.
	PutCallRatio(ctx context.Context, symbol string) (float64, error)
	// DaysToEarnings returns the number of days until symbol's next
	// earnings release, or -1 if unknown.
	DaysToEarnings(ctx context.Context, symbol string) (int, error)
}
