package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/eventnexus-go/internal/metrics"
	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/raphaelgruber/eventnexus-go/internal/networking"
	"go.opentelemetry.io/otel/attribute"
)

// NetworkingService produces attendee recommendations with starters.
type NetworkingService struct {
	recommender  *networking.Recommender
	defaultLimit int
	metrics      *metrics.Collector
	logger       *slog.Logger
}

// NewNetworkingService creates the service. defaultLimit applies when callers
// pass a non-positive limit; metrics may be nil.
func NewNetworkingService(rec *networking.Recommender, defaultLimit int, m *metrics.Collector, logger *slog.Logger) *NetworkingService {
	if rec == nil {
		rec = networking.NewRecommender(nil)
	}
	if defaultLimit <= 0 {
		defaultLimit = networking.DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NetworkingService{recommender: rec, defaultLimit: defaultLimit, metrics: m, logger: logger}
}

// Recommend ranks candidates for subject and attaches a reason and a
// conversation starter to each match. Every candidate is eligible
// (minimum score 0).
func (s *NetworkingService) Recommend(ctx context.Context, subject models.Profile, candidates []models.Profile, limit int) (recs []models.Recommendation, err error) {
	ctx, span := startSpan(ctx, "networking.recommend",
		attribute.Int("candidates", len(candidates)),
		attribute.Int("limit", limit),
	)
	defer func() { endSpan(span, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}

	start := time.Now()
	matches := s.recommender.Recommend(subject, candidates, limit, 0)
	recs = networking.Recommendations(subject, matches)
	if s.metrics != nil {
		s.metrics.Since(metrics.OpRecommend, start)
	}

	span.SetAttributes(attribute.Int("results", len(recs)))
	s.logger.Debug("recommendations computed",
		"subject", subject.ID,
		"candidates", len(candidates),
		"results", len(recs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return recs, nil
}
