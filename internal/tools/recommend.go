package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// maxRecommendLimit caps the number of recommendations a tool call may ask for.
const maxRecommendLimit = 50

// ProfileInput is an attendee profile as accepted by tools. Every field is
// optional.
type ProfileInput struct {
	ID        string   `json:"id,omitempty" jsonschema:"Attendee id"`
	Name      string   `json:"name,omitempty"`
	Company   string   `json:"company,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	Role      string   `json:"role,omitempty" jsonschema:"Job role, e.g. founder or investor"`
	Interests []string `json:"interests,omitempty"`
}

func (p ProfileInput) profile() models.Profile {
	return models.Profile(p)
}

// RecommendInput defines the input schema for the recommend_connections tool.
type RecommendInput struct {
	User      ProfileInput   `json:"user" jsonschema:"The attendee to find connections for. With an empty attendee list only the id is needed"`
	Attendees []ProfileInput `json:"attendees,omitempty" jsonschema:"Candidate attendees. Defaults to every attendee in the current snapshot"`
	Limit     int            `json:"limit,omitempty" jsonschema:"Max results 1-50, default 3"`
}

// RecommendOutput is the structured result of recommend_connections.
type RecommendOutput struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Count           int                     `json:"count"`
}

// NewRecommendHandler creates the recommend_connections tool handler.
func NewRecommendHandler(deps *Dependencies) mcp.ToolHandlerFor[RecommendInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RecommendInput) (*mcp.CallToolResult, any, error) {
		logger := deps.logger()

		if input.Limit < 0 || input.Limit > maxRecommendLimit {
			return ErrorResult("Limit must be 1-50", "Omit limit for the default of 3"), nil, nil
		}

		subject := input.User.profile()
		candidates := make([]models.Profile, 0, len(input.Attendees))
		for _, a := range input.Attendees {
			candidates = append(candidates, a.profile())
		}
		if len(candidates) == 0 {
			if strings.TrimSpace(subject.ID) == "" {
				return ErrorResult("User id is required when no attendees are given", "Pass user.id or an attendees list"), nil, nil
			}
			snap, err := deps.Chat.Snapshot(ctx)
			if err != nil {
				logger.Error("snapshot failed", "error", err)
				return ErrorResult("Failed to load attendees", "Database may be unavailable"), nil, nil
			}
			candidates = snap.Profiles()
			subject = resolveSubject(subject, candidates)
		}

		recs, err := deps.Networking.Recommend(ctx, subject, candidates, input.Limit)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, nil, err
			}
			logger.Error("recommend failed", "error", err)
			return ErrorResult("Recommendation failed", err.Error()), nil, nil
		}

		logger.Info("recommendations completed", "user", subject.ID, "candidates", len(candidates), "results", len(recs))
		return JSONResult(RecommendOutput{Recommendations: recs, Count: len(recs)}), nil, nil
	}
}

// resolveSubject fills in the profile of subject from the snapshot attendee
// with the same id, keeping any fields the caller set.
func resolveSubject(subject models.Profile, pool []models.Profile) models.Profile {
	for _, p := range pool {
		if p.ID != subject.ID {
			continue
		}
		if subject.Name == "" {
			subject.Name = p.Name
		}
		if subject.Company == "" {
			subject.Company = p.Company
		}
		if subject.Industry == "" {
			subject.Industry = p.Industry
		}
		if subject.Role == "" {
			subject.Role = p.Role
		}
		if len(subject.Interests) == 0 {
			subject.Interests = p.Interests
		}
		break
	}
	return subject
}
