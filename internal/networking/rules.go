package networking

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// NoOverlapReason is the reason given when two profiles share nothing.
const NoOverlapReason = "Potential connection — no strong overlap detected"

// rule pairs a predicate over a match with the text it renders.
// Rule lists are evaluated in order and stop at the first match.
type rule struct {
	name   string
	match  func(m matchContext) bool
	render func(m matchContext) string
}

// matchContext is what reason and starter rules see.
type matchContext struct {
	subject   models.Profile
	candidate models.Profile
	overlap   models.Overlap
}

func hasInterests(m matchContext) bool {
	return len(m.overlap.Interests) > 0
}

func hasIndustry(m matchContext) bool {
	return m.overlap.Industry != ""
}

func hasCompany(m matchContext) bool {
	return m.overlap.Company != ""
}

func hasRoles(m matchContext) bool {
	return m.overlap.Roles != ""
}

func always(matchContext) bool {
	return true
}

func both(a, b func(matchContext) bool) func(matchContext) bool {
	return func(m matchContext) bool { return a(m) && b(m) }
}

// topInterests renders at most two shared interests.
func topInterests(o models.Overlap) string {
	if len(o.Interests) > 2 {
		return strings.Join(o.Interests[:2], " & ")
	}
	return strings.Join(o.Interests, " & ")
}

func rolesPhrase(o models.Overlap) string {
	return fmt.Sprintf("complementary roles (%s)", o.Roles)
}

// reasonRules explain a match using its top one or two overlapping attributes,
// in priority order interests > industry > company > roles.
var reasonRules = []rule{
	{
		name:  "interests+industry",
		match: both(hasInterests, hasIndustry),
		render: func(m matchContext) string {
			return fmt.Sprintf("Shared interest in %s and same industry %s", topInterests(m.overlap), m.overlap.Industry)
		},
	},
	{
		name:  "interests+company",
		match: both(hasInterests, hasCompany),
		render: func(m matchContext) string {
			return fmt.Sprintf("Shared interest in %s and same company %s", topInterests(m.overlap), m.overlap.Company)
		},
	},
	{
		name:  "interests+roles",
		match: both(hasInterests, hasRoles),
		render: func(m matchContext) string {
			return fmt.Sprintf("Shared interest in %s and %s", topInterests(m.overlap), rolesPhrase(m.overlap))
		},
	},
	{
		name:  "interests",
		match: hasInterests,
		render: func(m matchContext) string {
			return "Shared interest in " + topInterests(m.overlap)
		},
	},
	{
		name:  "industry+company",
		match: both(hasIndustry, hasCompany),
		render: func(m matchContext) string {
			return fmt.Sprintf("Same industry %s and same company %s", m.overlap.Industry, m.overlap.Company)
		},
	},
	{
		name:  "industry+roles",
		match: both(hasIndustry, hasRoles),
		render: func(m matchContext) string {
			return fmt.Sprintf("Same industry %s and %s", m.overlap.Industry, rolesPhrase(m.overlap))
		},
	},
	{
		name:  "industry",
		match: hasIndustry,
		render: func(m matchContext) string {
			return "Same industry " + m.overlap.Industry
		},
	},
	{
		name:  "company+roles",
		match: both(hasCompany, hasRoles),
		render: func(m matchContext) string {
			return fmt.Sprintf("Same company %s and %s", m.overlap.Company, rolesPhrase(m.overlap))
		},
	},
	{
		name:  "company",
		match: hasCompany,
		render: func(m matchContext) string {
			return "Same company " + m.overlap.Company
		},
	},
	{
		name:  "roles",
		match: hasRoles,
		render: func(m matchContext) string {
			return "Complementary roles (" + m.overlap.Roles + ")"
		},
	},
	{
		name:   "none",
		match:  always,
		render: func(matchContext) string { return NoOverlapReason },
	},
}

// starterRules pick an icebreaker from the strongest overlap:
// interests > industry > company > roles, then a generic prompt.
var starterRules = []rule{
	{
		name:  "interests",
		match: hasInterests,
		render: func(m matchContext) string {
			return fmt.Sprintf("Hi %s, I noticed we're both into %s. What got you interested in it?",
				m.candidate.DisplayName(), m.overlap.Interests[0])
		},
	},
	{
		name:  "industry",
		match: hasIndustry,
		render: func(m matchContext) string {
			return fmt.Sprintf("Hi %s, always great to meet someone else in %s. Which trends are you watching this year?",
				m.candidate.DisplayName(), m.overlap.Industry)
		},
	},
	{
		name:  "company",
		match: hasCompany,
		render: func(m matchContext) string {
			return fmt.Sprintf("Hi %s, I see we're both at %s. Which team are you on?",
				m.candidate.DisplayName(), m.overlap.Company)
		},
	},
	{
		name:  "roles",
		match: hasRoles,
		render: func(m matchContext) string {
			return fmt.Sprintf("Hi %s, I'm %s and here as a %s. What are you hoping to get out of this event?",
				m.candidate.DisplayName(), m.subject.DisplayName(), normalizeRole(m.subject.Role))
		},
	},
	{
		name:  "generic",
		match: always,
		render: func(m matchContext) string {
			return fmt.Sprintf("Hi %s, I'm %s. What brought you to this event?",
				m.candidate.DisplayName(), m.subject.DisplayName())
		},
	},
}

// evaluate returns the name and text of the first matching rule.
func evaluate(rules []rule, m matchContext) (string, string) {
	for _, r := range rules {
		if r.match(m) {
			return r.name, r.render(m)
		}
	}
	return "", ""
}
