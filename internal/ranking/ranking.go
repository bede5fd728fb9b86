// Package ranking scores normalized script records against a search query,
// deduplicates them across providers and selects a bounded, deterministic result set.
package ranking

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

// Threshold is the score a record must exceed to count as relevant.
const Threshold = 5

// Score weights.
const (
	exactMatch   = 100
	partialMatch = 50
	titleTerm    = 20
	gameTerm     = 15
)

// Access filters records by their key requirement.
type Access int

const (
	AccessAny Access = iota
	AccessKey
	AccessKeyless
)

// Options controls filtering and truncation.
type Options struct {
	Budget       int
	Access       Access
	VerifiedOnly bool
}

// Terms splits the query into lowercase words longer than two characters.
func Terms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			terms = append(terms, f)
		}
	}

	return terms
}

// Score returns the relevance of a title/game pair for the query.
func Score(title, game, query string, terms []string) int {
	title = strings.ToLower(title)
	game = strings.ToLower(game)
	query = strings.ToLower(strings.TrimSpace(query))

	score := 0
	switch {
	case query != "" && (title == query || game == query):
		score = exactMatch
	case query != "" && (strings.Contains(title, query) || strings.Contains(game, query)):
		score = partialMatch
	}

	for _, term := range terms {
		if strings.Contains(title, term) {
			score += titleTerm
		}
		if strings.Contains(game, term) {
			score += gameTerm
		}
	}

	return score
}

// Dedupe keeps the first record of every identity, preserving input order.
func Dedupe(records []models.ScriptRecord) []models.ScriptRecord {
	seen := make(map[uint64]struct{}, len(records))
	out := make([]models.ScriptRecord, 0, len(records))
	for _, r := range records {
		key := xxhash.Sum64String(r.Identity())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}

	return out
}

// Filter applies the access and verified-only filters.
func Filter(records []models.ScriptRecord, opts Options) []models.ScriptRecord {
	out := make([]models.ScriptRecord, 0, len(records))
	for _, r := range records {
		switch {
		case opts.Access == AccessKey && !r.KeyRequired:
			continue
		case opts.Access == AccessKeyless && r.KeyRequired:
			continue
		case opts.VerifiedOnly && !r.Verified:
			continue
		}
		out = append(out, r)
	}

	return out
}

// Sort orders records by score, then verified first, then views. The sort is stable
// so equal records keep provider order.
func Sort(records []models.ScriptRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Verified != b.Verified {
			return a.Verified
		}
		return a.Views > b.Views
	})
}

// Rank filters, scores, deduplicates, orders and truncates records for the query.
// Records above Threshold are preferred; when none qualify the best-ranked records
// are returned anyway so a non-empty pool never yields an empty result.
func Rank(records []models.ScriptRecord, query string, opts Options) []models.ScriptRecord {
	terms := Terms(query)

	pool := Dedupe(Filter(records, opts))
	for i := range pool {
		pool[i].Score = Score(pool[i].Title, pool[i].GameName, query, terms)
	}
	Sort(pool)

	relevant := pool[:0:0]
	for _, r := range pool {
		if r.Score > Threshold {
			relevant = append(relevant, r)
		}
	}
	if len(relevant) == 0 {
		relevant = pool
	}

	if opts.Budget > 0 && len(relevant) > opts.Budget {
		relevant = relevant[:opts.Budget]
	}

	return relevant
}
