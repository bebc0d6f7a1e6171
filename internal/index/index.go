// Package index turns a platform snapshot into retrievable documents.
package index

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// Stats counts what BuildDocuments produced and skipped.
type Stats struct {
	Events     int `json:"events"`
	Attendees  int `json:"attendees"`
	FAQ        int `json:"faq"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// Total returns the number of documents built.
func (s Stats) Total() int {
	return s.Events + s.Attendees + s.FAQ
}

// Indexer maps snapshot records to documents.
type Indexer struct {
	logger *slog.Logger
}

// New creates an indexer. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{logger: logger}
}

// BuildDocuments indexes a snapshot with the default logger.
func BuildDocuments(snapshot models.Snapshot) []models.Document {
	docs, _ := New(nil).Build(snapshot)
	return docs
}

// Build maps events, attendees and FAQ entries into documents, in that order.
// Malformed records are skipped; repeated source ids keep the first record.
// Build never fails a batch.
func (ix *Indexer) Build(snapshot models.Snapshot) ([]models.Document, Stats) {
	var stats Stats
	docs := make([]models.Document, 0, len(snapshot.Events)+len(snapshot.Attendees)+len(snapshot.FAQ))

	seen := map[models.SourceType]map[string]struct{}{
		models.SourceEvent:    {},
		models.SourceAttendee: {},
		models.SourceFAQ:      {},
	}
	add := func(doc models.Document) bool {
		ids := seen[doc.Source]
		if _, dup := ids[doc.SourceID]; dup {
			stats.Duplicates++
			ix.logger.Debug("duplicate record skipped", "source", doc.Source, "id", doc.SourceID)
			return false
		}
		ids[doc.SourceID] = struct{}{}
		docs = append(docs, doc)
		return true
	}

	for i, r := range snapshot.Events {
		doc, err := eventDocument(r)
		if err != nil {
			stats.Skipped++
			ix.logger.Debug("malformed event skipped", "position", i, "error", err)
			continue
		}
		if add(doc) {
			stats.Events++
		}
	}

	for i, r := range snapshot.Attendees {
		doc, err := attendeeDocument(r)
		if err != nil {
			stats.Skipped++
			ix.logger.Debug("malformed attendee skipped", "position", i, "error", err)
			continue
		}
		if add(doc) {
			stats.Attendees++
		}
	}

	for i, r := range snapshot.FAQ {
		doc, err := faqDocument(r, i)
		if err != nil {
			stats.Skipped++
			ix.logger.Debug("malformed faq skipped", "position", i, "error", err)
			continue
		}
		if add(doc) {
			stats.FAQ++
		}
	}

	ix.logger.Debug("documents built",
		"events", stats.Events,
		"attendees", stats.Attendees,
		"faq", stats.FAQ,
		"skipped", stats.Skipped,
		"duplicates", stats.Duplicates,
	)
	return docs, stats
}

func eventDocument(r models.Record) (models.Document, error) {
	id := r.String("id")
	name := r.String("name")
	if id == "" || name == "" {
		return models.Document{}, fmt.Errorf("event requires id and name")
	}

	// The body leads with the name so both strategies can match on it.
	lines := []string{name}
	meta := map[string]any{}

	start := firstString(r, "startDate", "start_date")
	end := firstString(r, "endDate", "end_date")
	if start != "" {
		when := "Starts: " + start
		if end != "" {
			when += ", ends: " + end
		}
		lines = append(lines, when)
		meta["startDate"] = start
	}
	if end != "" {
		meta["endDate"] = end
	}
	if loc := r.String("location"); loc != "" {
		lines = append(lines, "Location: "+loc)
		meta["location"] = loc
	}
	if capacity, ok := r.IntOK("capacity"); ok {
		lines = append(lines, "Capacity: "+strconv.Itoa(capacity))
		meta["capacity"] = capacity
	}
	if registered, ok := firstInt(r, "registeredCount", "registered_count"); ok {
		lines = append(lines, "Registered: "+strconv.Itoa(registered))
		meta["registeredCount"] = registered
	}
	if status := r.String("status"); status != "" {
		lines = append(lines, "Status: "+status)
		meta["status"] = status
	}
	if desc := r.String("description"); desc != "" {
		lines = append(lines, desc)
	}

	return models.Document{
		ID:       models.DocumentID(models.SourceEvent, id),
		Source:   models.SourceEvent,
		SourceID: id,
		Title:    name,
		Body:     strings.Join(lines, "\n"),
		Metadata: meta,
	}, nil
}

func attendeeDocument(r models.Record) (models.Document, error) {
	p := models.ProfileFromRecord(r)
	if p.ID == "" || strings.TrimSpace(p.Name) == "" {
		return models.Document{}, fmt.Errorf("attendee requires id and name")
	}

	lines := []string{p.Name}
	if p.Company != "" {
		lines = append(lines, "Company: "+p.Company)
	}
	if p.Industry != "" {
		lines = append(lines, "Industry: "+p.Industry)
	}
	if p.Role != "" {
		lines = append(lines, "Role: "+p.Role)
	}
	if len(p.Interests) > 0 {
		lines = append(lines, "Interests: "+strings.Join(p.Interests, ", "))
	}
	if len(lines) == 1 {
		lines[0] = p.Name + " is attending."
	}
	body := strings.Join(lines, "\n")

	meta := map[string]any{}
	if p.Company != "" {
		meta["company"] = p.Company
	}
	if p.Industry != "" {
		meta["industry"] = p.Industry
	}
	if p.Role != "" {
		meta["role"] = p.Role
	}

	return models.Document{
		ID:       models.DocumentID(models.SourceAttendee, p.ID),
		Source:   models.SourceAttendee,
		SourceID: p.ID,
		Title:    p.Name,
		Body:     body,
		Metadata: meta,
	}, nil
}

func faqDocument(r models.Record, position int) (models.Document, error) {
	question := r.String("question")
	answer := r.String("answer")
	if question == "" || answer == "" {
		return models.Document{}, fmt.Errorf("faq requires question and answer")
	}

	id := r.String("id")
	if id == "" {
		id = "faq-" + strconv.Itoa(position)
	}

	meta := map[string]any{}
	if c := r.String("category"); c != "" {
		meta["category"] = c
	}
	if a := r.String("audience"); a != "" {
		meta["audience"] = a
	}

	return models.Document{
		ID:       models.DocumentID(models.SourceFAQ, id),
		Source:   models.SourceFAQ,
		SourceID: id,
		Title:    question,
		Body:     question + "\n" + answer,
		Metadata: meta,
	}, nil
}

func firstString(r models.Record, keys ...string) string {
	for _, k := range keys {
		if v := r.String(k); v != "" {
			return v
		}
	}
	return ""
}

func firstInt(r models.Record, keys ...string) (int, bool) {
	for _, k := range keys {
		if n, ok := r.IntOK(k); ok {
			return n, true
		}
	}
	return 0, false
}
