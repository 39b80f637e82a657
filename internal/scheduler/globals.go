package scheduler

import (
	"context"
	"time"

	"github.com/samhoi-x/compass/internal/cache"
	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/internal/external"
	"github.com/samhoi-x/compass/internal/factors/breadth"
	"github.com/samhoi-x/compass/internal/factors/feargreed"
	"github.com/samhoi-x/compass/internal/factors/intermarket"
	"github.com/samhoi-x/compass/internal/factors/macro"
)

// globalSignals is the one-per-scan snapshot every symbol worker
// reads from (spec §4.4 step 2): macro/breadth/intermarket/fear-greed
// are each computed once per scan rather than once per symbol.
type globalSignals struct {
	macro         *domain.FactorInput
	vixLevel      float64
	macroRegime   domain.MacroRegime
	breadthRegime domain.BreadthRegime
	intermarket   domain.IntermarketInput
	fearGreed     map[domain.AssetClass]domain.FearGreedInput
}

type breadthPayload struct {
	Advancers, Decliners int
}

// fetchGlobalSignals gathers every factor that isn't per-symbol.
// Individual sub-fetches degrade independently: a failed one leaves
// its slot neutral rather than failing the whole scan.
func (j *ScanJob) fetchGlobalSignals(ctx context.Context) globalSignals {
	g := globalSignals{
		macroRegime:   domain.RegimeNeutral,
		breadthRegime: domain.BreadthNeutral,
		fearGreed:     map[domain.AssetClass]domain.FearGreedInput{},
	}

	var vixBars []domain.OHLCVBar
	err := j.cfg.Cache.GetOrFetch(domain.CacheMacro, "VIX", "", &vixBars, func() (any, error) {
		return j.cfg.MarketData.VIXHistory(ctx, 30*24*time.Hour)
	})
	if err == nil && len(vixBars) > 0 {
		m := macro.Score(vixBars)
		g.macro = &m
		g.vixLevel = vixBars[len(vixBars)-1].Close
		g.macroRegime = macro.Regime(m.Score)
	} else {
		j.log.Warn().Err(err).Msg("macro/VIX signal unavailable this scan, using neutral regime")
	}

	var bp breadthPayload
	err = j.cfg.Cache.GetOrFetch(domain.CacheBreadth, "market", "", &bp, func() (any, error) {
		adv, dec, ferr := j.cfg.MarketData.MarketBreadth(ctx)
		return breadthPayload{Advancers: adv, Decliners: dec}, ferr
	})
	if err == nil {
		b := breadth.Score(bp.Advancers, bp.Decliners)
		g.breadthRegime = b.Regime
	} else {
		j.log.Warn().Err(err).Msg("breadth signal unavailable this scan, using neutral regime")
	}

	var proxyReturns []float64
	err = j.cfg.Cache.GetOrFetch(domain.CacheCrossAsset, "market", "", &proxyReturns, func() (any, error) {
		return j.cfg.MarketData.CrossAssetReturns(ctx)
	})
	if err == nil {
		g.intermarket = intermarket.Score(proxyReturns, g.macroRegime)
	} else {
		j.log.Warn().Err(err).Msg("cross-asset signal unavailable this scan")
	}

	for _, asset := range []domain.AssetClass{domain.AssetEquity, domain.AssetCrypto} {
		var index float64
		err := j.cfg.Cache.GetOrFetch(domain.CacheFearGreed, "market", string(asset), &index, func() (any, error) {
			return j.cfg.MarketData.FearGreedIndex(ctx, asset)
		})
		if err == nil {
			g.fearGreed[asset] = feargreed.Score(index)
		}
	}

	return g
}

func cachedNews(ctx context.Context, cfg ScanConfig, symbol string) ([]external.NewsItem, error) {
	var items []external.NewsItem
	err := cfg.Cache.GetOrFetch(domain.CacheNews, symbol, "", &items, func() (any, error) {
		return cfg.News.Fetch(ctx, symbol)
	})
	return items, err
}
