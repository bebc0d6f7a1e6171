// Package models defines the records exchanged between the EventNexus engine and its collaborators.
package models

import "strings"

// Profile is an attendee profile produced by the CRUD layer.
// Read-only to the networking engine.
type Profile struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Company   string   `json:"company,omitempty" yaml:"company,omitempty"`
	Industry  string   `json:"industry,omitempty" yaml:"industry,omitempty"`
	Role      string   `json:"role,omitempty" yaml:"role,omitempty"`
	Interests []string `json:"interests,omitempty" yaml:"interests,omitempty"`
}

// DisplayName returns the profile name, or "Unknown" when it is blank.
func (p Profile) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return "Unknown"
}

// ProfileFromRecord converts an attendee record into a Profile.
// Missing fields are left empty.
func ProfileFromRecord(r Record) Profile {
	return Profile{
		ID:        r.String("id"),
		Name:      r.String("name"),
		Company:   r.String("company"),
		Industry:  r.String("industry"),
		Role:      r.String("role"),
		Interests: r.Strings("interests"),
	}
}

// Overlap holds the literal attribute values two profiles share.
type Overlap struct {
	Interests []string `json:"interests,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	Company   string   `json:"company,omitempty"`
	// Roles names a complementary role pair, e.g. "founder/investor".
	Roles string `json:"roles,omitempty"`
}

// MatchResult is one scored candidate of a recommendation call.
type MatchResult struct {
	Candidate Profile `json:"match"`
	Score     float64 `json:"score"`
	Overlap   Overlap `json:"overlap"`
	Reason    string  `json:"reason"`
}

// Recommendation is the outbound shape of a networking recommendation.
type Recommendation struct {
	Name    string  `json:"name"`
	Reason  string  `json:"reason"`
	Starter string  `json:"starter"`
	Score   float64 `json:"score"`
	Match   Profile `json:"match"`
}
