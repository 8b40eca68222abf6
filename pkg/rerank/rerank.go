// Package rerank reorders similarity-search candidates by a relevance signal
// independent of the raw embedding distance. Downstream consumers trust the
// ranking position, not the absolute score.
package rerank

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/membench/membench/pkg/store"
)

// DefaultTopN is the number of candidates a reranker keeps by default.
const DefaultTopN = 5

// Reranker reorders candidates by relevance to the query and keeps at most
// topN of them. The candidates' original ordering carries no weight.
type Reranker interface {
	Rerank(candidates []store.SearchResult, query string, topN int) []store.SearchResult
}

// Lexical scores candidates by weighted term overlap with the query: term
// frequency damped by document length, weighted by inverse document frequency
// across the candidate set. It is deterministic and needs no remote calls,
// which keeps evaluation runs reproducible.
type Lexical struct {
	logger *zap.Logger
}

// NewLexical creates a lexical reranker.
func NewLexical(logger *zap.Logger) *Lexical {
	return &Lexical{logger: logger}
}

// Rerank returns at most topN candidates ordered by lexical relevance to
// query. Ties keep the candidates' original relative order.
func (l *Lexical) Rerank(candidates []store.SearchResult, query string, topN int) []store.SearchResult {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if len(candidates) == 0 {
		return nil
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		if len(candidates) > topN {
			return candidates[:topN]
		}
		return candidates
	}

	// Document frequency per query term across the candidate set.
	docTerms := make([]map[string]int, len(candidates))
	df := make(map[string]int, len(queryTerms))
	for i, c := range candidates {
		counts := termCounts(tokenize(c.Content))
		docTerms[i] = counts
		for _, term := range queryTerms {
			if counts[term] > 0 {
				df[term]++
			}
		}
	}

	n := float64(len(candidates))
	scored := make([]scoredResult, len(candidates))
	for i, c := range candidates {
		counts := docTerms[i]
		length := 0
		for _, v := range counts {
			length += v
		}

		var score float64
		for _, term := range queryTerms {
			tf := float64(counts[term])
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + n/float64(df[term]))
			score += (tf / (tf + 1)) * idf
		}
		if length > 0 {
			score /= math.Sqrt(float64(length))
		}

		scored[i] = scoredResult{result: c, score: score}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})

	if len(scored) > topN {
		scored = scored[:topN]
	}

	out := make([]store.SearchResult, len(scored))
	for i, s := range scored {
		out[i] = s.result
	}

	l.logger.Debug("reranked candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(out)),
	)

	return out
}

type scoredResult struct {
	result store.SearchResult
	score  float64
}

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func termCounts(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}

var _ Reranker = (*Lexical)(nil)
