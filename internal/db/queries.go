package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"github.com/raphaelgruber/eventnexus-go/internal/snapshot"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Platform tables.
const (
	TableEvent        = "event"
	TableUser         = "user"
	TableRegistration = "registration"
)

// Tables lists the platform tables in seed order.
var Tables = []string{TableEvent, TableUser, TableRegistration}

// Read limits for a snapshot.
const (
	EventLimit        = 200
	UserLimit         = 500
	RegistrationLimit = 500
)

var _ snapshot.Source = (*Client)(nil)

type eventRow struct {
	ID              surrealmodels.RecordID `json:"id"`
	Name            string                 `json:"name"`
	Description     *string                `json:"description,omitempty"`
	StartDate       *time.Time             `json:"start_date,omitempty"`
	EndDate         *time.Time             `json:"end_date,omitempty"`
	Location        *string                `json:"location,omitempty"`
	OrganizerID     *string                `json:"organizer_id,omitempty"`
	Capacity        *int                   `json:"capacity,omitempty"`
	RegisteredCount int                    `json:"registered_count,omitempty"`
	Status          *string                `json:"status,omitempty"`
	Revenue         float64                `json:"revenue,omitempty"`
}

type userRow struct {
	ID        surrealmodels.RecordID `json:"id"`
	Name      *string                `json:"name,omitempty"`
	Email     *string                `json:"email,omitempty"`
	Company   *string                `json:"company,omitempty"`
	Industry  *string                `json:"industry,omitempty"`
	Role      *string                `json:"role,omitempty"`
	Interests []string               `json:"interests,omitempty"`
}

type registrationRow struct {
	ID            surrealmodels.RecordID `json:"id"`
	EventID       *string                `json:"event_id,omitempty"`
	UserID        *string                `json:"user_id,omitempty"`
	FirstName     *string                `json:"first_name,omitempty"`
	LastName      *string                `json:"last_name,omitempty"`
	Email         *string                `json:"email,omitempty"`
	Company       *string                `json:"company,omitempty"`
	JobTitle      *string                `json:"job_title,omitempty"`
	FormResponses map[string]any         `json:"form_responses,omitempty"`
}

// Events returns up to EventLimit events ordered by start date.
func (c *Client) Events(ctx context.Context) ([]models.Record, error) {
	rows, err := queryRows[eventRow](ctx, c, `
		SELECT * FROM event ORDER BY start_date ASC LIMIT $limit
	`, map[string]any{"limit": EventLimit})
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return toRecords(rows, eventRow.record)
}

// Users returns up to UserLimit users.
func (c *Client) Users(ctx context.Context) ([]models.Record, error) {
	rows, err := queryRows[userRow](ctx, c, `
		SELECT * FROM user LIMIT $limit
	`, map[string]any{"limit": UserLimit})
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return toRecords(rows, userRow.record)
}

// Registrations returns up to RegistrationLimit registrations, newest first.
func (c *Client) Registrations(ctx context.Context) ([]models.Record, error) {
	rows, err := queryRows[registrationRow](ctx, c, `
		SELECT * FROM registration ORDER BY created_at DESC LIMIT $limit
	`, map[string]any{"limit": RegistrationLimit})
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	return toRecords(rows, registrationRow.record)
}

// SeedStats counts the outcome of a Seed call.
type SeedStats struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Seed inserts the records of src. Records whose id already exists are
// skipped, so a seed file can be applied more than once.
func (c *Client) Seed(ctx context.Context, src *snapshot.StaticSource) (SeedStats, error) {
	var stats SeedStats
	batches := map[string][]models.Record{
		TableEvent:        src.EventRecords,
		TableUser:         src.UserRecords,
		TableRegistration: src.RegistrationRecords,
	}
	for _, table := range Tables {
		for _, r := range batches[table] {
			err := c.CreateRecord(ctx, table, r)
			switch {
			case errors.Is(err, ErrRecordAlreadyExists):
				stats.Skipped++
			case err != nil:
				return stats, err
			default:
				stats.Created++
			}
		}
	}
	c.logger.Info("seed complete", "created", stats.Created, "skipped", stats.Skipped)
	return stats, nil
}

// CreateRecord stores r in table. A non-empty "id" field becomes the record
// id; date fields given as strings are converted to datetimes.
func (c *Client) CreateRecord(ctx context.Context, table string, r models.Record) error {
	if !knownTable(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	id, data := seedContent(r)
	sql := `CREATE type::table($tb) CONTENT $data`
	vars := map[string]any{"tb": table, "data": data}
	if id != "" {
		sql = `CREATE type::record($tb, $id) CONTENT $data`
		vars["id"] = id
	}

	if _, err := c.Query(ctx, sql, vars); err != nil {
		return fmt.Errorf("create %s %q: %w", table, id, err)
	}
	return nil
}

func queryRows[T any](ctx context.Context, c *Client, sql string, vars map[string]any) ([]T, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]T](ctx, c.db, sql, vars)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	if results == nil || len(*results) == 0 {
		return []T{}, nil
	}
	return (*results)[0].Result, nil
}

func toRecords[T any](rows []T, convert func(T) (models.Record, error)) ([]models.Record, error) {
	out := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		r, err := convert(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (e eventRow) record() (models.Record, error) {
	id, err := models.RecordIDString(e.ID)
	if err != nil {
		return nil, fmt.Errorf("event id: %w", err)
	}
	r := models.Record{
		"id":               id,
		"name":             e.Name,
		"registered_count": e.RegisteredCount,
		"revenue":          e.Revenue,
	}
	setOpt(r, "description", e.Description)
	setOpt(r, "location", e.Location)
	setOpt(r, "organizer_id", e.OrganizerID)
	setOpt(r, "status", e.Status)
	setOpt(r, "start_date", e.StartDate)
	setOpt(r, "end_date", e.EndDate)
	setOpt(r, "capacity", e.Capacity)
	return r, nil
}

func (u userRow) record() (models.Record, error) {
	id, err := models.RecordIDString(u.ID)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	r := models.Record{"id": id}
	setOpt(r, "name", u.Name)
	setOpt(r, "email", u.Email)
	setOpt(r, "company", u.Company)
	setOpt(r, "industry", u.Industry)
	setOpt(r, "role", u.Role)
	if u.Interests != nil {
		r["interests"] = u.Interests
	}
	return r, nil
}

func (g registrationRow) record() (models.Record, error) {
	id, err := models.RecordIDString(g.ID)
	if err != nil {
		return nil, fmt.Errorf("registration id: %w", err)
	}
	r := models.Record{"id": id}
	setOpt(r, "event_id", g.EventID)
	setOpt(r, "user_id", g.UserID)
	setOpt(r, "first_name", g.FirstName)
	setOpt(r, "last_name", g.LastName)
	setOpt(r, "email", g.Email)
	setOpt(r, "company", g.Company)
	setOpt(r, "job_title", g.JobTitle)
	if g.FormResponses != nil {
		r["form_responses"] = g.FormResponses
	}
	return r, nil
}

func setOpt[T any](r models.Record, key string, v *T) {
	if v != nil {
		r[key] = *v
	}
}

var dateFields = []string{"start_date", "end_date", "created_at"}

func seedContent(r models.Record) (string, models.Record) {
	data := make(models.Record, len(r))
	for k, v := range r {
		// Optional fields reject NULL.
		if k != "id" && v != nil {
			data[k] = v
		}
	}
	for _, key := range dateFields {
		if !data.Has(key) {
			continue
		}
		if t, ok := data.Time(key); ok {
			data[key] = t
		} else {
			delete(data, key)
		}
	}
	return r.String("id"), data
}

func knownTable(table string) bool {
	for _, t := range Tables {
		if t == table {
			return true
		}
	}
	return false
}
