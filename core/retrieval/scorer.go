package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

// Score weights for the suggest heuristic.
const (
	weightStartsWith = 2.0
	weightContains   = 1.5
	weightTokens     = 1.2
)

// Score rates how well candidate matches query:
// 2.0*startsWith + 1.5*contains + 1.2*tokenRatio + lcsRatio.
// Both sides are normalized and lowercased first. An empty query scores 0.
func Score(query string, candidate string) float64 {
	q := text.Fold(query)
	c := text.Fold(candidate)
	if len(q) == 0 || len(c) == 0 {
		return 0
	}

	score := 0.0
	if strings.HasPrefix(c, q) {
		score += weightStartsWith
	}
	if strings.Contains(c, q) {
		score += weightContains
	}

	tokens := strings.Fields(q)
	matched := 0
	for _, token := range tokens {
		if strings.Contains(c, token) {
			matched++
		}
	}
	score += weightTokens * float64(matched) / float64(len(tokens))

	return score + lcsRatio(q, c)
}

// lcsRatio is 2*LCS(a, b) / (len(a)+len(b)) over runes, in [0, 1].
func lcsRatio(a string, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return 2 * float64(prev[len(rb)]) / float64(len(ra)+len(rb))
}

// EntityPool supplies the bounded candidate pool of the suggester.
type EntityPool interface {
	SelectRecentEntities(ctx context.Context, entityType model.EntityType, limit int) ([]*model.Entity, error)
}

// Suggester ranks recent entities against a typed prefix.
type Suggester struct {
	pool   EntityPool
	config model.SuggestConfig
}

// NewSuggester creates a suggester over pool.
func NewSuggester(pool EntityPool, config model.SuggestConfig) *Suggester {
	return &Suggester{pool: pool, config: config}
}

// Suggest scores the most recent entities (optionally of one type) against
// query, drops those below the minimum score and returns the best, ties
// ordered by display value.
func (s *Suggester) Suggest(ctx context.Context, query string, entityType model.EntityType, limit int) ([]*model.SuggestResult, error) {
	if len(text.Normalize(query)) == 0 {
		return []*model.SuggestResult{}, nil
	}
	if limit <= 0 {
		limit = s.config.Limit
	}

	candidates, err := s.pool.SelectRecentEntities(ctx, entityType, s.config.PoolSize)
	if err != nil {
		return nil, helper.NewError("select suggest pool", err)
	}

	results := []*model.SuggestResult{}
	for _, candidate := range candidates {
		score := Score(query, candidate.DisplayValue)
		if score < s.config.MinScore {
			continue
		}
		results = append(results, &model.SuggestResult{Entity: candidate, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return strings.ToLower(results[i].Entity.DisplayValue) < strings.ToLower(results[j].Entity.DisplayValue)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
