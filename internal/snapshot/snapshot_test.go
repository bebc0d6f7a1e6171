package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct {
	StaticSource
	err error
}

func (f *failingSource) Users(ctx context.Context) ([]models.Record, error) {
	return nil, f.err
}

func fixture() *StaticSource {
	return &StaticSource{
		EventRecords: []models.Record{
			{"id": "e1", "name": "GoCon", "start_date": "2026-05-01T09:00:00Z", "location": "Berlin", "capacity": 300, "registered_count": 120},
			{"id": "e2", "name": "RustFest", "location": "Berlin", "capacity": 100, "status": "published"},
			{"id": "e3", "name": "PyData", "location": "Vienna"},
		},
		UserRecords: []models.Record{
			{"id": "u1", "name": "Maya", "company": "Acme", "interests": []any{"AI"}},
			{"id": "u2", "role": "speaker"},
		},
		RegistrationRecords: []models.Record{
			{"id": "r1", "user_id": "u1", "first_name": "Duplicate"},
			{"id": "r2", "first_name": "Lee", "last_name": "Park", "job_title": "Recruiter",
				"form_responses": map[string]any{"interests": "hiring, AI ,"}},
			{"id": "r3", "form_responses": map[string]any{"interests": []any{"design", nil, ""}}},
		},
	}
}

func TestBuild(t *testing.T) {
	snap, err := Build(context.Background(), fixture())
	require.NoError(t, err)

	require.Len(t, snap.Events, 3)
	assert.NotNil(t, snap.Sessions)
	assert.Empty(t, snap.Sessions)

	first := snap.Events[0]
	assert.Equal(t, "e1", first.String("id"))
	assert.Equal(t, "2026-05-01T09:00:00Z", first.String("startDate"))
	assert.Equal(t, 120, first.Int("registeredCount"))
	assert.Equal(t, DefaultEventStatus, first.String("status"))
	assert.Equal(t, "published", snap.Events[1].String("status"))
	assert.False(t, snap.Events[2].Has("capacity"))

	ids := make([]string, len(snap.Attendees))
	for i, a := range snap.Attendees {
		ids[i] = a.String("id")
	}
	assert.Equal(t, []string{"u1", "u2", "r2", "r3"}, ids)

	assert.Equal(t, "Maya", snap.Attendees[0].String("name"))
	assert.Equal(t, DefaultUserName, snap.Attendees[1].String("name"))
	assert.Equal(t, "speaker", snap.Attendees[1].String("role"))

	lee := snap.Attendees[2]
	assert.Equal(t, "Lee Park", lee.String("name"))
	assert.Equal(t, "Recruiter", lee.String("role"))
	assert.Equal(t, []string{"hiring", "AI"}, lee.Strings("interests"))

	anon := snap.Attendees[3]
	assert.Equal(t, DefaultAttendee, anon.String("name"))
	assert.Equal(t, []string{"design"}, anon.Strings("interests"))
}

func TestBuild_UserRoleDefault(t *testing.T) {
	attendees := ReconcileAttendees([]models.Record{{"id": "u1", "name": "A"}}, nil)
	require.Len(t, attendees, 1)
	assert.Equal(t, DefaultUserRole, attendees[0].String("role"))
}

func TestBuild_SourceError(t *testing.T) {
	boom := errors.New("connection refused")
	src := &failingSource{StaticSource: *fixture(), err: boom}

	_, err := Build(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fetch users")
}

func TestGenerateFAQ(t *testing.T) {
	snap, err := Build(context.Background(), fixture())
	require.NoError(t, err)

	byID := map[string]models.Record{}
	for _, f := range snap.FAQ {
		byID[f.String("id")] = f
		assert.NotEmpty(t, f.String("question"))
		assert.NotEmpty(t, f.String("answer"))
		assert.NotEmpty(t, f.String("category"))
	}
	assert.Len(t, byID, len(snap.FAQ), "faq ids must be unique")

	count := byID["how-many-events-are-there-what-events-do-we-have"]
	require.NotNil(t, count)
	assert.Equal(t, "There are currently 3 events on the platform: GoCon, RustFest, PyData.", count.String("answer"))

	capacity := byID["what-is-the-total-capacity-across-all-events"]
	assert.Equal(t, "The combined capacity across all events is 400 seats.", capacity.String("answer"))

	locations := byID["where-are-the-events-located-what-are-the-event-locations"]
	assert.Equal(t, "Events are located at: Berlin, Vienna.", locations.String("answer"))

	users := byID["how-many-attendees-or-users-are-registered"]
	assert.Equal(t, "There are 4 registered users on the platform, with 120 total event registrations across 3 events.", users.String("answer"))

	who := byID["who-are-the-attendees-list-the-registered-users"]
	assert.Contains(t, who.String("answer"), "Maya (Acme)")
	assert.Contains(t, who.String("answer"), "Lee Park (no company)")
}

func TestGenerateFAQ_Empty(t *testing.T) {
	faq := GenerateFAQ(nil, nil)
	require.NotEmpty(t, faq)

	var answers []string
	for _, f := range faq {
		answers = append(answers, f.String("answer"))
	}
	joined := strings.Join(answers, "\n")
	assert.Contains(t, joined, "There are currently 0 events on the platform: No events yet.")
	assert.Contains(t, joined, "Events are located at: No locations set.")
	assert.Contains(t, joined, "No attendees registered yet.")
}

func TestGenerateFAQ_ListsAtMostTenEvents(t *testing.T) {
	events := make([]models.Record, 12)
	for i := range events {
		events[i] = models.Record{"id": string(rune('a' + i)), "name": "Event" + string(rune('A'+i))}
	}

	faq := GenerateFAQ(events, nil)
	var answer string
	for _, f := range faq {
		if strings.HasPrefix(f.String("answer"), "There are currently") {
			answer = f.String("answer")
		}
	}
	assert.Contains(t, answer, "There are currently 12 events")
	assert.Contains(t, answer, "EventJ")
	assert.NotContains(t, answer, "EventK")
}

func TestBuilder_Snapshot(t *testing.T) {
	b := NewBuilder(fixture(), nil)
	snap, err := b.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Attendees, 4)
}

func TestLoadSource(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
events:
  - id: e1
    name: GoCon
    capacity: 50
users:
  - id: u1
    name: Maya
    interests: [AI, climate]
registrations:
  - id: r1
    first_name: Lee
    form_responses:
      interests: hiring
`), 0o644))

	src, err := LoadSource(yamlPath)
	require.NoError(t, err)

	snap, err := Build(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 50, snap.Events[0].Int("capacity"))
	assert.Equal(t, []string{"AI", "climate"}, snap.Attendees[0].Strings("interests"))
	assert.Equal(t, []string{"hiring"}, snap.Attendees[1].Strings("interests"))

	jsonPath := filepath.Join(dir, "fixture.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"users":[{"id":"u9","name":"Json"}]}`), 0o644))

	src, err = LoadSource(jsonPath)
	require.NoError(t, err)
	require.Len(t, src.UserRecords, 1)
	assert.Equal(t, "Json", src.UserRecords[0].String("name"))
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"faq":[{"question":"Q","answer":"A"}],"attendees":[]}`), 0o644))

	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, snap.FAQ, 1)
	assert.Equal(t, "A", snap.FAQ[0].String("answer"))

	_, err = LoadSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFixed(t *testing.T) {
	want := models.Snapshot{FAQ: []models.Record{{"question": "Q", "answer": "A"}}}
	got, err := Fixed(want).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
