package models

import "strings"

// SourceType identifies the record family a document was built from.
type SourceType string

const (
	SourceEvent    SourceType = "event"
	SourceAttendee SourceType = "attendee"
	SourceFAQ      SourceType = "faq"
)

// Document is a retrievable text unit with provenance.
// Documents are rebuilt for every snapshot; there is no persistent index.
type Document struct {
	ID       string         `json:"id"`
	Source   SourceType     `json:"source"`
	SourceID string         `json:"source_id"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DocumentID builds the document id for a source record.
func DocumentID(source SourceType, sourceID string) string {
	return string(source) + ":" + sourceID
}

// Text returns the text retrieval ranks: the body, led by the title unless
// the body already starts with it.
func (d Document) Text() string {
	switch {
	case d.Title == "" || strings.HasPrefix(d.Body, d.Title):
		return d.Body
	case d.Body == "":
		return d.Title
	}
	return d.Title + "\n" + d.Body
}

// RetrievedPassage is a ranked retrieval hit.
type RetrievedPassage struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// ChatAnswer is a grounded answer with the ids of the documents it used.
type ChatAnswer struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
}

// Backend names reported by the health probe.
const (
	BackendDense  = "dense"
	BackendSparse = "sparse"
)

// Health reports which retrieval strategy is active.
type Health struct {
	OK      bool   `json:"ok"`
	Backend string `json:"rag_backend"`
}
