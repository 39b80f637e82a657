// Package sentiment blends news and social text through the NLP
// sentiment contract into one bounded factor (spec §4.1, §6).
package sentiment

import (
	"context"
	"fmt"

	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/internal/external"
)

// Score classifies every piece of text gathered from news and social
// sources and averages the signed results; confidence is the fraction
// of non-neutral classifications, same shape as the technical scorer's
// participation term.
func Score(ctx context.Context, model external.SentimentModel, news []external.NewsItem, social []external.SocialPost, shortMessages []string) (domain.FactorInput, error) {
	texts := make([]string, 0, len(news)+len(social)+len(shortMessages))
	seenTitles := map[string]bool{}
	for _, n := range news {
		if seenTitles[n.Title] {
			continue
		}
		seenTitles[n.Title] = true
		texts = append(texts, n.Title+". "+n.Description)
	}
	for _, s := range social {
		texts = append(texts, s.Title+". "+s.Text)
	}
	texts = append(texts, shortMessages...)

	if len(texts) == 0 {
		return domain.FactorInput{Score: 0, Confidence: 0}, nil
	}

	results, err := model.Analyze(ctx, texts)
	if err != nil {
		return domain.FactorInput{}, fmt.Errorf("sentiment analysis failed: %w", err)
	}

	var sum float64
	nonNeutral := 0
	for _, r := range results {
		v := r.Signed()
		sum += v
		if v != 0 {
			nonNeutral++
		}
	}
	if len(results) == 0 {
		return domain.FactorInput{Score: 0, Confidence: 0}, nil
	}

	score := clip(sum / float64(len(results)))
	confidence := float64(nonNeutral) / float64(len(results))

	return domain.FactorInput{
		Score:      score,
		Confidence: confidence,
		Meta:       map[string]any{"sample_size": len(results)},
	}, nil
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
