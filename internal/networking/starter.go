package networking

import "github.com/raphaelgruber/eventnexus-go/internal/models"

// Starter returns an icebreaker for subject to open a conversation with match.
// The sentence is chosen from the strongest non-empty overlap and is fully
// deterministic.
func Starter(subject, match models.Profile, overlap models.Overlap) string {
	_, text := evaluate(starterRules, matchContext{
		subject:   subject,
		candidate: match,
		overlap:   overlap,
	})
	return text
}

// Recommendations converts match results into the outbound recommendation
// shape, attaching a conversation starter to each.
func Recommendations(subject models.Profile, matches []models.MatchResult) []models.Recommendation {
	out := make([]models.Recommendation, len(matches))
	for i, m := range matches {
		out[i] = models.Recommendation{
			Name:    m.Candidate.DisplayName(),
			Reason:  m.Reason,
			Starter: Starter(subject, m.Candidate, m.Overlap),
			Score:   m.Score,
			Match:   m.Candidate,
		}
	}
	return out
}
