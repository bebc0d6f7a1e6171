package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is a heterogeneous key-value record from the persistence layer.
// Values arrive from JSON, YAML or the database driver, so accessors are
// tolerant of the numeric and list representations each of them produces.
type Record map[string]any

// Has reports whether key is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// String returns the value at key as trimmed text, or "" if absent.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch tv := v.(type) {
	case string:
		return strings.TrimSpace(tv)
	case float64:
		if tv == math.Trunc(tv) && !math.IsInf(tv, 0) {
			return strconv.FormatInt(int64(tv), 10)
		}
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case time.Time:
		return tv.Format(time.RFC3339)
	case fmt.Stringer:
		return strings.TrimSpace(tv.String())
	default:
		return strings.TrimSpace(fmt.Sprint(tv))
	}
}

// Int returns the value at key as an int. Non-numeric values yield 0.
func (r Record) Int(key string) int {
	n, _ := r.IntOK(key)
	return n
}

// IntOK is like Int but reports whether a numeric value was found.
func (r Record) IntOK(key string) (int, bool) {
	switch tv := r[key].(type) {
	case int:
		return tv, true
	case int8:
		return int(tv), true
	case int16:
		return int(tv), true
	case int32:
		return int(tv), true
	case int64:
		return int(tv), true
	case uint:
		return int(tv), true
	case uint8:
		return int(tv), true
	case uint16:
		return int(tv), true
	case uint32:
		return int(tv), true
	case uint64:
		return int(tv), true
	case float32:
		return finiteInt(float64(tv))
	case float64:
		return finiteInt(tv)
	case json.Number:
		if n, err := tv.Int64(); err == nil {
			return int(n), true
		}
		if f, err := tv.Float64(); err == nil {
			return finiteInt(f)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(tv)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func finiteInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// Float returns the value at key as a float64. Non-numeric values yield 0.
func (r Record) Float(key string) float64 {
	switch tv := r[key].(type) {
	case float64:
		if math.IsNaN(tv) || math.IsInf(tv, 0) {
			return 0
		}
		return tv
	case float32:
		return float64(tv)
	case json.Number:
		f, _ := tv.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(tv), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	}
	n, _ := r.IntOK(key)
	return float64(n)
}

// Strings returns the value at key as a list of non-empty strings.
// A plain string is treated as a comma-separated list.
func (r Record) Strings(key string) []string {
	var out []string
	switch tv := r[key].(type) {
	case []string:
		for _, s := range tv {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range tv {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, s := range strings.Split(tv, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Map returns the nested record at key, or nil.
func (r Record) Map(key string) Record {
	switch tv := r[key].(type) {
	case Record:
		return tv
	case map[string]any:
		return Record(tv)
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time returns the value at key as a time. Strings are parsed as RFC 3339,
// ISO 8601 without zone, or a bare date.
func (r Record) Time(key string) (time.Time, bool) {
	switch tv := r[key].(type) {
	case time.Time:
		return tv, !tv.IsZero()
	case *time.Time:
		if tv == nil {
			return time.Time{}, false
		}
		return *tv, !tv.IsZero()
	case string:
		s := strings.TrimSpace(tv)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Snapshot is a point-in-time bundle of platform records.
type Snapshot struct {
	Events    []Record `json:"events" yaml:"events"`
	Sessions  []Record `json:"sessions" yaml:"sessions"`
	Attendees []Record `json:"attendees" yaml:"attendees"`
	FAQ       []Record `json:"faq" yaml:"faq"`
}

// IsEmpty reports whether the snapshot carries no records at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.Events) == 0 && len(s.Sessions) == 0 && len(s.Attendees) == 0 && len(s.FAQ) == 0
}

// Profiles converts the snapshot attendees into profiles, skipping records without an id.
func (s Snapshot) Profiles() []Profile {
	profiles := make([]Profile, 0, len(s.Attendees))
	for _, r := range s.Attendees {
		p := ProfileFromRecord(r)
		if p.ID == "" {
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles
}
