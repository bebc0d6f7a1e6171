package networking

import "strings"

// roleAliases folds common job titles onto the canonical roles of the
// compatibility table.
var roleAliases = map[string]string{
	"co founder":      "founder",
	"cofounder":       "founder",
	"ceo":             "founder",
	"vc":              "investor",
	"angel":           "investor",
	"angel investor":  "investor",
	"venture capital": "investor",
	"keynote":         "speaker",
	"panelist":        "speaker",
	"participant":     "attendee",
	"guest":           "attendee",
	"candidate":       "job seeker",
	"jobseeker":       "job seeker",
	"talent":          "recruiter",
	"hiring manager":  "recruiter",
	"advisor":         "mentor",
	"partner":         "sponsor",
}

// complements is the symmetric role compatibility table.
var complements = map[string][]string{
	"founder":    {"investor", "mentor"},
	"investor":   {"founder"},
	"speaker":    {"attendee"},
	"attendee":   {"speaker", "exhibitor"},
	"exhibitor":  {"attendee"},
	"mentor":     {"student", "founder"},
	"student":    {"mentor"},
	"recruiter":  {"job seeker"},
	"job seeker": {"recruiter"},
	"organizer":  {"sponsor"},
	"sponsor":    {"organizer"},
}

// normalizeRole lowercases a role, folds separators to spaces and applies aliases.
func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	r = strings.NewReplacer("_", " ", "-", " ").Replace(r)
	r = strings.Join(strings.Fields(r), " ")
	if alias, ok := roleAliases[r]; ok {
		return alias
	}
	return r
}

// complementaryRoles reports whether the two roles complement each other and
// returns the pair as "subject/candidate".
func complementaryRoles(subject, candidate string) (string, bool) {
	a := normalizeRole(subject)
	b := normalizeRole(candidate)
	if a == "" || b == "" {
		return "", false
	}
	for _, c := range complements[a] {
		if c == b {
			return a + "/" + b, true
		}
	}
	return "", false
}
