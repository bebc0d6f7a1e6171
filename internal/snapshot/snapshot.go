// Package snapshot assembles the platform snapshot the knowledge engine answers from.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"golang.org/x/sync/errgroup"
)

// Default roles and names for records that omit them.
const (
	DefaultEventStatus = "draft"
	DefaultUserRole    = "ATTENDEE"
	DefaultUserName    = "Unknown"
	DefaultAttendee    = "Attendee"
)

// Source reads raw platform collections.
type Source interface {
	Events(ctx context.Context) ([]models.Record, error)
	Users(ctx context.Context) ([]models.Record, error)
	Registrations(ctx context.Context) ([]models.Record, error)
}

// Provider returns a ready-to-index snapshot.
type Provider interface {
	Snapshot(ctx context.Context) (models.Snapshot, error)
}

// Builder builds snapshots from a Source.
type Builder struct {
	src    Source
	logger *slog.Logger
}

var _ Provider = (*Builder)(nil)

// NewBuilder creates a builder over src. A nil logger uses slog.Default().
func NewBuilder(src Source, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{src: src, logger: logger}
}

// Snapshot implements Provider.
func (b *Builder) Snapshot(ctx context.Context) (models.Snapshot, error) {
	start := time.Now()
	snap, err := Build(ctx, b.src)
	if err != nil {
		return models.Snapshot{}, err
	}
	b.logger.Debug("snapshot built",
		"events", len(snap.Events),
		"attendees", len(snap.Attendees),
		"faq", len(snap.FAQ),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

// Build fetches the three collections concurrently and assembles a snapshot:
// normalized events, attendees reconciled from users and legacy
// registrations, and the generated platform FAQ.
func Build(ctx context.Context, src Source) (models.Snapshot, error) {
	var events, users, registrations []models.Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if events, err = src.Events(gctx); err != nil {
			return fmt.Errorf("fetch events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if users, err = src.Users(gctx); err != nil {
			return fmt.Errorf("fetch users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if registrations, err = src.Registrations(gctx); err != nil {
			return fmt.Errorf("fetch registrations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Snapshot{}, err
	}

	normalized := NormalizeEvents(events)
	attendees := ReconcileAttendees(users, registrations)

	return models.Snapshot{
		Events:    normalized,
		Sessions:  []models.Record{},
		Attendees: attendees,
		FAQ:       GenerateFAQ(normalized, attendees),
	}, nil
}

// NormalizeEvents maps stored events onto the snapshot event shape.
func NormalizeEvents(raw []models.Record) []models.Record {
	out := make([]models.Record, 0, len(raw))
	for _, e := range raw {
		status := e.String("status")
		if status == "" {
			status = DefaultEventStatus
		}

		ev := models.Record{
			"id":              e.String("id"),
			"name":            e.String("name"),
			"registeredCount": e.Int("registered_count"),
			"status":          status,
			"revenue":         e.Float("revenue"),
		}
		setString(ev, "description", e.String("description"))
		setString(ev, "location", e.String("location"))
		setString(ev, "organizerId", e.String("organizer_id"))
		if t, ok := e.Time("start_date"); ok {
			ev["startDate"] = t.Format(time.RFC3339)
		}
		if t, ok := e.Time("end_date"); ok {
			ev["endDate"] = t.Format(time.RFC3339)
		}
		if capacity, ok := e.IntOK("capacity"); ok {
			ev["capacity"] = capacity
		}
		out = append(out, ev)
	}
	return out
}

// ReconcileAttendees merges users and legacy registrations into one attendee
// list. Users come first; a registration whose attendee id was already seen
// is dropped.
func ReconcileAttendees(users, registrations []models.Record) []models.Record {
	seen := make(map[string]struct{}, len(users)+len(registrations))
	out := make([]models.Record, 0, len(users)+len(registrations))

	for _, u := range users {
		id := u.String("id")
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		name := u.String("name")
		if name == "" {
			name = DefaultUserName
		}
		role := u.String("role")
		if role == "" {
			role = DefaultUserRole
		}

		a := models.Record{
			"id":        id,
			"name":      name,
			"role":      role,
			"interests": nonNil(u.Strings("interests")),
		}
		setString(a, "email", u.String("email"))
		setString(a, "company", u.String("company"))
		setString(a, "industry", u.String("industry"))
		out = append(out, a)
	}

	for _, r := range registrations {
		id := r.String("user_id")
		if id == "" {
			id = r.String("id")
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		name := strings.TrimSpace(r.String("first_name") + " " + r.String("last_name"))
		if name == "" {
			name = DefaultAttendee
		}

		var interests []string
		if form := r.Map("form_responses"); form != nil {
			interests = form.Strings("interests")
		}

		a := models.Record{
			"id":        id,
			"name":      name,
			"interests": nonNil(interests),
		}
		setString(a, "email", r.String("email"))
		setString(a, "company", r.String("company"))
		setString(a, "role", r.String("job_title"))
		out = append(out, a)
	}

	return out
}

func setString(r models.Record, key, value string) {
	if value != "" {
		r[key] = value
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
