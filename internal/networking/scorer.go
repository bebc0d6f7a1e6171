// Package networking implements attendee matching: a weighted similarity
// scorer, a ranked recommender, and deterministic conversation starters.
package networking

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// ErrInvalidWeights is returned when a scorer weight is negative or not finite.
var ErrInvalidWeights = errors.New("invalid scorer weights")

// Weights defines the contribution of each attribute to the match score.
type Weights struct {
	Interests float64 `json:"interests" yaml:"interests"`
	Industry  float64 `json:"industry" yaml:"industry"`
	Company   float64 `json:"company" yaml:"company"`
	Role      float64 `json:"role" yaml:"role"`
}

// DefaultWeights returns the production weights. Interests dominate; a shared
// company is a weak signal so it never outranks cross-company matches on its own.
func DefaultWeights() Weights {
	return Weights{
		Interests: 0.5,
		Industry:  0.25,
		Company:   0.1,
		Role:      0.15,
	}
}

// Validate checks that every weight is finite and non-negative.
func (w Weights) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"interests", w.Interests},
		{"industry", w.Industry},
		{"company", w.Company},
		{"role", w.Role},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, f.name, f.value)
		}
	}
	return nil
}

// Scorer computes the similarity between two profiles. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// DefaultScorer returns a scorer using DefaultWeights.
func DefaultScorer() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// Weights returns the scorer's weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the weighted match score of candidate against subject in
// [0,1], together with the literal attribute values they share.
func (s *Scorer) Score(subject, candidate models.Profile) (float64, models.Overlap) {
	var overlap models.Overlap

	jaccard, shared := interestOverlap(subject.Interests, candidate.Interests)
	overlap.Interests = shared
	score := s.weights.Interests * jaccard

	if sameValue(subject.Industry, candidate.Industry) {
		overlap.Industry = strings.TrimSpace(subject.Industry)
		score += s.weights.Industry
	}

	if sameValue(subject.Company, candidate.Company) {
		overlap.Company = strings.TrimSpace(subject.Company)
		score += s.weights.Company
	}

	if pair, ok := complementaryRoles(subject.Role, candidate.Role); ok {
		overlap.Roles = pair
		score += s.weights.Role
	}

	return clamp01(score), overlap
}

// InterestSimilarity returns the Jaccard similarity of two interest sets.
func InterestSimilarity(a, b []string) float64 {
	j, _ := interestOverlap(a, b)
	return j
}

// interestOverlap computes the Jaccard similarity of two interest sets,
// comparing case-insensitively, and returns the shared interests in a's
// spelling sorted by their normalized form.
func interestOverlap(a, b []string) (float64, []string) {
	setA := interestSet(a)
	setB := interestSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(setA))
	for k := range setA {
		if _, ok := setB[k]; ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}
	sort.Strings(keys)

	shared := make([]string, len(keys))
	for i, k := range keys {
		shared[i] = setA[k]
	}

	union := len(setA) + len(setB) - len(keys)
	return float64(len(keys)) / float64(union), shared
}

// interestSet maps normalized interest to its first-seen spelling.
func interestSet(interests []string) map[string]string {
	set := make(map[string]string, len(interests))
	for _, raw := range interests {
		display := strings.TrimSpace(raw)
		key := strings.ToLower(display)
		if key == "" {
			continue
		}
		if _, ok := set[key]; !ok {
			set[key] = display
		}
	}
	return set
}

func sameValue(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
