//go:build integration

package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/raphaelgruber/eventnexus-go/internal/metrics"
	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/raphaelgruber/eventnexus-go/internal/snapshot"
)

var testDB *Client
var testMetrics = metrics.NewCollector()

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := container.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil, testMetrics)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func seedFixture() *snapshot.StaticSource {
	return &snapshot.StaticSource{
		EventRecords: []models.Record{
			{"id": "later", "name": "RustFest", "start_date": "2026-09-01T09:00:00Z", "location": "Vienna"},
			{"id": "gocon", "name": "GoCon", "start_date": "2026-05-01T09:00:00Z", "location": "Berlin", "capacity": 300, "registered_count": 120, "status": "published"},
		},
		UserRecords: []models.Record{
			{"id": "u1", "name": "Maya", "company": "Acme", "industry": "Fintech", "interests": []any{"AI", "climate"}},
			{"id": "u2", "name": "Ben", "role": "investor"},
		},
		RegistrationRecords: []models.Record{
			{"id": "r1", "user_id": "u1", "first_name": "Dup"},
			{"id": "r2", "first_name": "Lee", "last_name": "Park", "job_title": "Recruiter",
				"form_responses": map[string]any{"interests": "hiring, AI"}},
		},
	}
}

func resetData(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.WipeData(context.Background()))
}

func TestSeedAndRead(t *testing.T) {
	resetData(t)
	ctx := context.Background()

	stats, err := testDB.Seed(ctx, seedFixture())
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Created: 6}, stats)

	events, err := testDB.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "gocon", events[0].String("id"), "ordered by start date")
	assert.Equal(t, 300, events[0].Int("capacity"))

	users, err := testDB.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	regs, err := testDB.Registrations(ctx)
	require.NoError(t, err)
	assert.Len(t, regs, 2)
}

func TestSeed_SkipsExisting(t *testing.T) {
	resetData(t)
	ctx := context.Background()

	_, err := testDB.Seed(ctx, seedFixture())
	require.NoError(t, err)

	stats, err := testDB.Seed(ctx, seedFixture())
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Skipped: 6}, stats)
}

func TestCreateRecord_UnknownTable(t *testing.T) {
	err := testDB.CreateRecord(context.Background(), "entity", models.Record{"id": "x"})
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestSnapshotFromDatabase(t *testing.T) {
	resetData(t)
	ctx := context.Background()

	_, err := testDB.Seed(ctx, seedFixture())
	require.NoError(t, err)

	snap, err := snapshot.NewBuilder(testDB, nil).Snapshot(ctx)
	require.NoError(t, err)

	assert.Len(t, snap.Events, 2)
	// u1, u2 and the registration-only attendee r2.
	require.Len(t, snap.Attendees, 3)
	assert.Equal(t, "Lee Park", snap.Attendees[2].String("name"))
	assert.NotEmpty(t, snap.FAQ)

	ops := testMetrics.Snapshot()
	require.NotNil(t, ops.DBQuery)
	assert.Positive(t, ops.DBQuery.Count)
}
