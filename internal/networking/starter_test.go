package networking

import (
	"testing"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarter_Priority(t *testing.T) {
	subject := models.Profile{Name: "Maya", Role: "founder"}
	match := models.Profile{Name: "Ben", Role: "investor"}

	full := models.Overlap{Interests: []string{"AI"}, Industry: "Fintech", Company: "Acme", Roles: "founder/investor"}

	tests := []struct {
		name     string
		overlap  models.Overlap
		contains string
	}{
		{"interests first", full, "both into AI"},
		{"industry next", models.Overlap{Industry: "Fintech", Company: "Acme"}, "someone else in Fintech"},
		{"company next", models.Overlap{Company: "Acme", Roles: "founder/investor"}, "both at Acme"},
		{"roles next", models.Overlap{Roles: "founder/investor"}, "here as a founder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Starter(subject, match, tt.overlap)
			assert.Contains(t, got, tt.contains)
			assert.Contains(t, got, "Ben")
		})
	}
}

func TestStarter_GenericMentionsBothNames(t *testing.T) {
	got := Starter(models.Profile{Name: "Maya"}, models.Profile{Name: "Ben"}, models.Overlap{})
	assert.Equal(t, "Hi Ben, I'm Maya. What brought you to this event?", got)

	got = Starter(models.Profile{}, models.Profile{}, models.Overlap{})
	assert.Equal(t, "Hi Unknown, I'm Unknown. What brought you to this event?", got)
}

func TestStarter_Deterministic(t *testing.T) {
	subject := models.Profile{Name: "Maya"}
	match := models.Profile{Name: "Ben"}
	overlap := models.Overlap{Interests: []string{"AI", "climate"}}

	first := Starter(subject, match, overlap)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Starter(subject, match, overlap))
	}
}

func TestRecommendations(t *testing.T) {
	subject := models.Profile{ID: "me", Name: "Maya", Interests: []string{"AI"}}
	candidates := []models.Profile{{ID: "b", Name: "Ben", Interests: []string{"AI"}}}

	matches := NewRecommender(nil).Recommend(subject, candidates, 3, 0)
	recs := Recommendations(subject, matches)

	require.Len(t, recs, 1)
	assert.Equal(t, "Ben", recs[0].Name)
	assert.Equal(t, "Shared interest in AI", recs[0].Reason)
	assert.Contains(t, recs[0].Starter, "AI")
	assert.InDelta(t, 0.5, recs[0].Score, 1e-9)
	assert.Equal(t, "b", recs[0].Match.ID)
}
