package networking

import (
	"sort"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// DefaultLimit is the number of recommendations returned when the caller
// passes a non-positive limit.
const DefaultLimit = 3

// Recommender ranks a candidate pool against a subject profile.
type Recommender struct {
	scorer *Scorer
}

// NewRecommender creates a recommender. A nil scorer uses DefaultScorer.
func NewRecommender(scorer *Scorer) *Recommender {
	if scorer == nil {
		scorer = DefaultScorer()
	}
	return &Recommender{scorer: scorer}
}

// Recommend scores every candidate, drops those below minScore, and returns
// at most limit results ordered by descending score with ties broken by
// candidate id. The subject and repeated candidate ids are skipped.
func (r *Recommender) Recommend(subject models.Profile, candidates []models.Profile, limit int, minScore float64) []models.MatchResult {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]models.MatchResult, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if subject.ID != "" && c.ID == subject.ID {
			continue
		}
		if c.ID != "" {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
		}

		score, overlap := r.scorer.Score(subject, c)
		if score < minScore {
			continue
		}
		results = append(results, models.MatchResult{
			Candidate: c,
			Score:     score,
			Overlap:   overlap,
			Reason:    Reason(overlap),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Candidate.ID < results[j].Candidate.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Reason renders the human-readable explanation for an overlap.
func Reason(overlap models.Overlap) string {
	_, text := evaluate(reasonRules, matchContext{overlap: overlap})
	return text
}
