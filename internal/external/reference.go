package external

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

// ReferencePriceSource is a deterministic stand-in for a real vendor
// price feed: it generates a reproducible pseudo-random walk seeded
// from the symbol so the same symbol always produces the same series
// within a process run, the way a recorded fixture would, without any
// real HTTP parsing (vendor wiring is out of scope).
type ReferencePriceSource struct {
	log zerolog.Logger
}

func NewReferencePriceSource(log zerolog.Logger) *ReferencePriceSource {
	return &ReferencePriceSource{log: log.With().Str("client", "reference-price").Logger()}
}

func (c *ReferencePriceSource) Fetch(ctx context.Context, symbol string, period time.Duration) ([]domain.OHLCVBar, error) {
	days := int(period.Hours() / 24)
	if days < 1 {
		days = 1
	}
	seed := symbolSeed(symbol)
	bars := make([]domain.OHLCVBar, 0, days)
	price := 50.0 + float64(seed%500)
	start := time.Now().UTC().AddDate(0, 0, -days)

	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		drift := math.Sin(float64(seed+uint32(i))*0.017) * price * 0.01
		price = math.Max(1, price+drift)
		high := price * 1.01
		low := price * 0.99
		open := price - drift/2
		volume := 1_000_000.0 + float64((seed+uint32(i))%500_000)

		bars = append(bars, domain.OHLCVBar{
			Date: date, Open: open, High: high, Low: low, Close: price, Volume: volume,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("reference price source: no bars generated for %s", symbol)
	}
	return bars, nil
}

func (c *ReferencePriceSource) Quote(ctx context.Context, symbol string) (Quote, error) {
	bars, err := c.Fetch(ctx, symbol, 2*24*time.Hour)
	if err != nil || len(bars) == 0 {
		return Quote{}, fmt.Errorf("reference price source: no quote available for %s", symbol)
	}
	last := bars[len(bars)-1]
	prev := last.Close
	if len(bars) > 1 {
		prev = bars[len(bars)-2].Close
	}
	change := last.Close - prev
	changePct := 0.0
	if prev != 0 {
		changePct = change / prev * 100
	}
	return Quote{Price: last.Close, Change: change, ChangePct: changePct}, nil
}

// ReferenceNewsSource always returns an empty set: the spec treats an
// empty series as a valid "no data" outcome (spec §6), and without a
// real vendor wired in there is no fixture worth fabricating text for.
type ReferenceNewsSource struct {
	log zerolog.Logger
}

func NewReferenceNewsSource(log zerolog.Logger) *ReferenceNewsSource {
	return &ReferenceNewsSource{log: log.With().Str("client", "reference-news").Logger()}
}

func (c *ReferenceNewsSource) Fetch(ctx context.Context, symbol string) ([]NewsItem, error) {
	return nil, nil
}

// ReferenceSocialSource mirrors ReferenceNewsSource: no fixture text,
// empty result.
type ReferenceSocialSource struct {
	log zerolog.Logger
}

func NewReferenceSocialSource(log zerolog.Logger) *ReferenceSocialSource {
	return &ReferenceSocialSource{log: log.With().Str("client", "reference-social").Logger()}
}

func (c *ReferenceSocialSource) FetchPosts(ctx context.Context, symbol string, asset domain.AssetClass) ([]SocialPost, error) {
	return nil, nil
}

func (c *ReferenceSocialSource) FetchShortMessages(ctx context.Context, symbol string) ([]string, error) {
	return nil, nil
}

// ReferenceSentimentModel classifies text by a tiny deterministic
// lexicon instead of a real NLP model; good enough to exercise the
// sentiment factor's blending logic end to end.
type ReferenceSentimentModel struct {
	log zerolog.Logger
}

func NewReferenceSentimentModel(log zerolog.Logger) *ReferenceSentimentModel {
	return &ReferenceSentimentModel{log: log.With().Str("client", "reference-sentiment").Logger()}
}

var positiveWords = []string{"beat", "surge", "growth", "upgrade", "strong", "record", "rally"}
var negativeWords = []string{"miss", "plunge", "downgrade", "weak", "lawsuit", "recall", "slump"}

func (c *ReferenceSentimentModel) Analyze(ctx context.Context, text []string) ([]SentimentResult, error) {
	out := make([]SentimentResult, 0, len(text))
	for _, t := range text {
		pos, neg := 0, 0
		for _, w := range positiveWords {
			if containsFold(t, w) {
				pos++
			}
		}
		for _, w := range negativeWords {
			if containsFold(t, w) {
				neg++
			}
		}
		switch {
		case pos > neg:
			out = append(out, SentimentResult{Label: SentimentPositive, Score: math.Min(1, 0.5+0.15*float64(pos))})
		case neg > pos:
			out = append(out, SentimentResult{Label: SentimentNegative, Score: math.Min(1, 0.5+0.15*float64(neg))})
		default:
			out = append(out, SentimentResult{Label: SentimentNeutral, Score: 0})
		}
	}
	return out, nil
}

func containsFold(haystack, needle string) bool {
	hl, nl := len(haystack), len(needle)
	if nl == 0 || nl > hl {
		return false
	}
	for i := 0; i+nl <= hl; i++ {
		if equalFold(haystack[i:i+nl], needle) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// referenceMLScorer backs both the XGBoost-style and LSTM-style
// contracts with the same deterministic momentum heuristic: it scores
// recent realized return, clamped to [-1,1]. A real XGB/LSTM pipeline
// is out of scope (Non-goals); this keeps the fusion pipeline and the
// "stale model" check exercised end to end.
type referenceMLScorer struct {
	log       zerolog.Logger
	trainedAt map[string]time.Time
}

func newReferenceMLScorer(log zerolog.Logger, kind string) *referenceMLScorer {
	return &referenceMLScorer{
		log:       log.With().Str("client", "reference-ml-"+kind).Logger(),
		trainedAt: make(map[string]time.Time),
	}
}

func (s *referenceMLScorer) Train(ctx context.Context, symbol string, bars []domain.OHLCVBar) error {
	if len(bars) == 0 {
		return fmt.Errorf("reference ml scorer: no bars to train on for %s", symbol)
	}
	s.trainedAt[symbol] = time.Now()
	return nil
}

func (s *referenceMLScorer) Predict(ctx context.Context, symbol string, bars []domain.OHLCVBar) (MLPrediction, error) {
	if len(bars) < 2 {
		return MLPrediction{}, fmt.Errorf("reference ml scorer: insufficient bars for %s", symbol)
	}
	window := bars
	if len(window) > 20 {
		window = window[len(window)-20:]
	}
	ret := (window[len(window)-1].Close - window[0].Close) / window[0].Close
	score := math.Max(-1, math.Min(1, ret*5))
	confidence := math.Min(1, 0.5+math.Abs(ret)*2)

	trainedAt, ok := s.trainedAt[symbol]
	if !ok {
		trainedAt = time.Now().Add(-61 * 24 * time.Hour) // force "stale" until trained once
	}
	return MLPrediction{SignalScore: score, Confidence: confidence, TrainedAt: trainedAt}, nil
}

// NewReferenceXGBScorer returns the tabular-model side of MLScorer.
func NewReferenceXGBScorer(log zerolog.Logger) MLScorer { return newReferenceMLScorer(log, "xgb") }

// NewReferenceLSTMScorer returns the sequence-model side of MLScorer.
func NewReferenceLSTMScorer(log zerolog.Logger) MLScorer { return newReferenceMLScorer(log, "lstm") }

// ReferenceNotifier logs instead of delivering anywhere; delivery
// failure must never propagate (spec §6), which a log-only sink
// trivially satisfies.
type ReferenceNotifier struct {
	log zerolog.Logger
}

func NewReferenceNotifier(log zerolog.Logger) *ReferenceNotifier {
	return &ReferenceNotifier{log: log.With().Str("client", "reference-notifier").Logger()}
}

func (n *ReferenceNotifier) Send(ctx context.Context, destination, message string) error {
	n.log.Info().Str("destination", destination).Str("message", message).Msg("notification")
	return nil
}

func symbolSeed(symbol string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return h.Sum32()
}

// ReferenceMarketDataProvider backs MarketDataProvider with the same
// deterministic-by-seed approach as ReferencePriceSource: every
// reading is a reproducible function of the day and (where
// applicable) the symbol, so the optional factor pipeline can be
// exercised end to end without a real vendor.
type ReferenceMarketDataProvider struct {
	log zerolog.Logger
}

func NewReferenceMarketDataProvider(log zerolog.Logger) *ReferenceMarketDataProvider {
	return &ReferenceMarketDataProvider{log: log.With().Str("client", "reference-market-data").Logger()}
}

func (p *ReferenceMarketDataProvider) VIXHistory(ctx context.Context, period time.Duration) ([]domain.OHLCVBar, error) {
	return (&ReferencePriceSource{log: p.log}).Fetch(ctx, "VIX", period)
}

func (p *ReferenceMarketDataProvider) MarketBreadth(ctx context.Context) (int, int, error) {
	seed := int(daySeed())
	advancers := 1500 + seed%800
	decliners := 2800 - advancers
	if decliners < 0 {
		decliners = 100
	}
	return advancers, decliners, nil
}

func (p *ReferenceMarketDataProvider) CrossAssetReturns(ctx context.Context) ([]float64, error) {
	seed := float64(daySeed() % 1000)
	return []float64{
		math.Sin(seed*0.01) * 0.01,
		math.Cos(seed*0.013) * 0.012,
		math.Sin(seed*0.021) * 0.008,
	}, nil
}

func (p *ReferenceMarketDataProvider) FearGreedIndex(ctx context.Context, asset domain.AssetClass) (float64, error) {
	seed := float64(daySeed() % 100)
	return seed, nil
}

func (p *ReferenceMarketDataProvider) AnalystRatings(ctx context.Context, symbol string) ([]float64, error) {
	seed := symbolSeed(symbol)
	n := 3 + int(seed%5)
	ratings := make([]float64, n)
	for i := range ratings {
		// five-point scale (1=strong sell .. 5=strong buy), centered at 3
		ratings[i] = 3 + 2*math.Sin(float64(seed+uint32(i))*0.09)
	}
	return ratings, nil
}

func (p *ReferenceMarketDataProvider) SectorReturns(ctx context.Context, symbol string) (float64, float64, error) {
	seed := symbolSeed(symbol)
	sectorReturn := math.Sin(float64(seed)*0.001) * 0.05
	marketReturn := math.Sin(float64(daySeed())*0.02) * 0.03
	return sectorReturn, marketReturn, nil
}

func (p *ReferenceMarketDataProvider) ShortInterest(ctx context.Context, symbol string) (float64, float64, float64, error) {
	seed := symbolSeed(symbol)
	ratio := 2.0 + float64(seed%400)/100
	priorRatio := ratio - math.Sin(float64(seed)*0.05)
	percentFloat := 0.05 + float64(seed%2000)/10000
	return ratio, priorRatio, percentFloat, nil
}

func (p *ReferenceMarketDataProvider) PutCallRatio(ctx context.Context, symbol string) (float64, error) {
	seed := symbolSeed(symbol)
	return 0.7 + float64(seed%60)/100, nil
}

func (p *ReferenceMarketDataProvider) DaysToEarnings(ctx context.Context, symbol string) (int, error) {
	seed := symbolSeed(symbol)
	return int(seed % 45), nil
}

func daySeed() int64 {
	return time.Now().UTC().Truncate(24 * time.Hour).Unix()
}
