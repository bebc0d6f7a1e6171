package networking

import (
	"fmt"
	"testing"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePool() (models.Profile, []models.Profile) {
	subject := models.Profile{
		ID: "me", Name: "Maya", Company: "Acme", Industry: "Fintech", Role: "founder",
		Interests: []string{"AI", "climate"},
	}
	candidates := []models.Profile{
		subject,
		{ID: "b", Name: "Ben", Industry: "Fintech", Interests: []string{"AI"}},
		{ID: "a", Name: "Ana", Industry: "Fintech", Interests: []string{"AI"}},
		{ID: "c", Name: "Cal", Role: "investor"},
		{ID: "d", Name: "Dee", Company: "Acme"},
		{ID: "e", Name: "Eve", Interests: []string{"knitting"}},
	}
	return subject, candidates
}

func TestRecommend_RanksAndBreaksTies(t *testing.T) {
	subject, candidates := samplePool()

	results := NewRecommender(nil).Recommend(subject, candidates, 10, 0)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Candidate.ID
	}
	// a and b tie; a wins on id.
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids)
	assert.Equal(t, "Shared interest in AI and same industry Fintech", results[0].Reason)
	assert.Equal(t, NoOverlapReason, results[4].Reason)
	assert.Equal(t, 0.0, results[4].Score)
}

func TestRecommend_ExcludesSubject(t *testing.T) {
	subject, candidates := samplePool()

	for _, limit := range []int{1, 2, 5, 100} {
		results := NewRecommender(nil).Recommend(subject, candidates, limit, 0)
		for _, r := range results {
			assert.NotEqual(t, subject.ID, r.Candidate.ID)
		}
	}
}

func TestRecommend_LimitAndMinScore(t *testing.T) {
	subject, candidates := samplePool()
	rec := NewRecommender(nil)

	for _, limit := range []int{1, 2, 3, 10} {
		for _, minScore := range []float64{0, 0.1, 0.2, 0.5, 0.9} {
			t.Run(fmt.Sprintf("limit=%d/min=%.1f", limit, minScore), func(t *testing.T) {
				results := rec.Recommend(subject, candidates, limit, minScore)
				assert.LessOrEqual(t, len(results), limit)
				for i, r := range results {
					assert.GreaterOrEqual(t, r.Score, minScore)
					if i > 0 {
						assert.GreaterOrEqual(t, results[i-1].Score, r.Score)
					}
				}
			})
		}
	}
}

func TestRecommend_DefaultLimit(t *testing.T) {
	subject, candidates := samplePool()
	results := NewRecommender(nil).Recommend(subject, candidates, 0, 0)
	assert.Len(t, results, DefaultLimit)
}

func TestRecommend_EmptyInputs(t *testing.T) {
	subject, candidates := samplePool()
	rec := NewRecommender(nil)

	results := rec.Recommend(subject, nil, 5, 0)
	require.NotNil(t, results)
	assert.Empty(t, results)

	results = rec.Recommend(subject, candidates, 5, 1.01)
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRecommend_SkipsRepeatedCandidates(t *testing.T) {
	subject := models.Profile{ID: "me", Interests: []string{"AI"}}
	candidates := []models.Profile{
		{ID: "x", Name: "First", Interests: []string{"AI"}},
		{ID: "x", Name: "Second", Interests: []string{"AI"}},
	}

	results := NewRecommender(nil).Recommend(subject, candidates, 5, 0)
	require.Len(t, results, 1)
	assert.Equal(t, "First", results[0].Candidate.Name)
}

func TestRecommend_Deterministic(t *testing.T) {
	subject, candidates := samplePool()
	rec := NewRecommender(nil)

	first := rec.Recommend(subject, candidates, 10, 0)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, rec.Recommend(subject, candidates, 10, 0))
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		name    string
		overlap models.Overlap
		want    string
	}{
		{"interests", models.Overlap{Interests: []string{"AI"}}, "Shared interest in AI"},
		{"two interests", models.Overlap{Interests: []string{"AI", "climate", "music"}}, "Shared interest in AI & climate"},
		{"interests and industry", models.Overlap{Interests: []string{"AI"}, Industry: "Fintech"}, "Shared interest in AI and same industry Fintech"},
		{"interests and company", models.Overlap{Interests: []string{"AI"}, Company: "Acme"}, "Shared interest in AI and same company Acme"},
		{"interests and roles", models.Overlap{Interests: []string{"AI"}, Roles: "founder/investor"}, "Shared interest in AI and complementary roles (founder/investor)"},
		{"industry and company", models.Overlap{Industry: "Fintech", Company: "Acme"}, "Same industry Fintech and same company Acme"},
		{"industry and roles", models.Overlap{Industry: "Fintech", Roles: "speaker/attendee"}, "Same industry Fintech and complementary roles (speaker/attendee)"},
		{"industry", models.Overlap{Industry: "Fintech"}, "Same industry Fintech"},
		{"company and roles", models.Overlap{Company: "Acme", Roles: "speaker/attendee"}, "Same company Acme and complementary roles (speaker/attendee)"},
		{"company", models.Overlap{Company: "Acme"}, "Same company Acme"},
		{"roles", models.Overlap{Roles: "founder/investor"}, "Complementary roles (founder/investor)"},
		{"nothing", models.Overlap{}, NoOverlapReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reason(tt.overlap))
		})
	}
}
