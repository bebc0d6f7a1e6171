package networking

import (
	"math"
	"testing"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_SharedInterest(t *testing.T) {
	subject := models.Profile{ID: "s", Interests: []string{"AI", "climate"}}
	candidate := models.Profile{ID: "c", Interests: []string{"AI", "music"}}

	score, overlap := DefaultScorer().Score(subject, candidate)

	assert.Greater(t, score, 0.0)
	assert.InDelta(t, 0.5/3, score, 1e-9)
	assert.Equal(t, []string{"AI"}, overlap.Interests)
	assert.Empty(t, overlap.Industry)
	assert.Empty(t, overlap.Company)
}

func TestScore_Weights(t *testing.T) {
	tests := []struct {
		name      string
		subject   models.Profile
		candidate models.Profile
		want      float64
	}{
		{
			name:      "nothing shared",
			subject:   models.Profile{Interests: []string{"AI"}, Industry: "Fintech"},
			candidate: models.Profile{Interests: []string{"music"}, Industry: "Health"},
			want:      0,
		},
		{
			name:      "industry only",
			subject:   models.Profile{Industry: "Fintech"},
			candidate: models.Profile{Industry: "fintech "},
			want:      0.25,
		},
		{
			name:      "company only",
			subject:   models.Profile{Company: "Acme"},
			candidate: models.Profile{Company: "ACME"},
			want:      0.1,
		},
		{
			name:      "complementary roles",
			subject:   models.Profile{Role: "Founder"},
			candidate: models.Profile{Role: "investor"},
			want:      0.15,
		},
		{
			name:      "identical interests",
			subject:   models.Profile{Interests: []string{"AI", "climate"}},
			candidate: models.Profile{Interests: []string{"climate", "ai"}},
			want:      0.5,
		},
		{
			name: "everything shared",
			subject: models.Profile{
				Interests: []string{"AI"}, Industry: "Fintech", Company: "Acme", Role: "speaker",
			},
			candidate: models.Profile{
				Interests: []string{"AI"}, Industry: "Fintech", Company: "Acme", Role: "ATTENDEE",
			},
			want: 1.0,
		},
		{
			name:      "blank values never match",
			subject:   models.Profile{Industry: " ", Company: ""},
			candidate: models.Profile{Industry: " ", Company: ""},
			want:      0,
		},
	}

	scorer := DefaultScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := scorer.Score(tt.subject, tt.candidate)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScore_ClampedToOne(t *testing.T) {
	scorer, err := NewScorer(Weights{Interests: 1, Industry: 1, Company: 1, Role: 1})
	require.NoError(t, err)

	p := models.Profile{Interests: []string{"AI"}, Industry: "Fintech", Company: "Acme", Role: "founder"}
	q := models.Profile{Interests: []string{"AI"}, Industry: "Fintech", Company: "Acme", Role: "investor"}

	score, _ := scorer.Score(p, q)
	assert.Equal(t, 1.0, score)
}

func TestScore_InterestTermIsSymmetric(t *testing.T) {
	sets := [][]string{
		{"AI", "climate"},
		{"AI", "music", "climate", "Web3"},
		{},
		{"ai", "AI", "  Ai "},
		{"design"},
	}

	for _, a := range sets {
		for _, b := range sets {
			assert.Equal(t, InterestSimilarity(a, b), InterestSimilarity(b, a), "a=%v b=%v", a, b)
		}
	}
}

func TestScore_OverlapIsSortedAndDeduplicated(t *testing.T) {
	subject := models.Profile{Interests: []string{"Web3", "AI", "ai", "Climate"}}
	candidate := models.Profile{Interests: []string{"climate", "web3", "AI"}}

	score, overlap := DefaultScorer().Score(subject, candidate)

	assert.Equal(t, []string{"AI", "Climate", "Web3"}, overlap.Interests)
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestNewScorer_RejectsInvalidWeights(t *testing.T) {
	_, err := NewScorer(Weights{Interests: -0.1})
	require.ErrorIs(t, err, ErrInvalidWeights)

	s, err := NewScorer(DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, DefaultWeights(), s.Weights())
}

func TestWeightsValidate_NamesFirstInvalidField(t *testing.T) {
	w := Weights{Interests: 0.5, Industry: math.NaN(), Company: -1, Role: math.Inf(1)}

	for i := 0; i < 20; i++ {
		err := w.Validate()
		require.ErrorIs(t, err, ErrInvalidWeights)
		assert.Contains(t, err.Error(), "industry=NaN")
	}

	w.Industry = 0
	assert.ErrorContains(t, w.Validate(), "company=-1")
}

func TestComplementaryRoles(t *testing.T) {
	tests := []struct {
		a, b string
		want string
		ok   bool
	}{
		{"founder", "investor", "founder/investor", true},
		{"Investor", "Co-Founder", "investor/founder", true},
		{"speaker", "ATTENDEE", "speaker/attendee", true},
		{"job_seeker", "Recruiter", "job seeker/recruiter", true},
		{"founder", "founder", "", false},
		{"", "investor", "", false},
		{"Senior Engineer", "investor", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got, ok := complementaryRoles(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComplementTableIsSymmetric(t *testing.T) {
	for a, list := range complements {
		for _, b := range list {
			_, ok := complementaryRoles(b, a)
			assert.True(t, ok, "%s -> %s has no reverse entry", a, b)
		}
	}
}
