package models

import (
	"fmt"
	"strings"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RecordIDString safely extracts the string ID from a SurrealDB RecordID.
// Returns an error if the ID is not a string type.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	switch v := id.ID.(type) {
	case string:
		return v, nil
	case int64, uint64, int:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
}

// Slugify lowercases s, turns spaces and underscores into hyphens and drops
// every other character outside [a-z0-9-].
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteByte('-')
		}
	}
	return b.String()
}
