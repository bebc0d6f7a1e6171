package snapshot

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
)

// FAQ categories.
const (
	CategoryLogistics  = "logistics"
	CategoryOverview   = "overview"
	CategoryFeature    = "feature"
	CategoryTechnical  = "technical"
	CategoryNetworking = "networking"
)

const (
	maxListedEvents    = 10
	maxListedAttendees = 8
)

type faqEntry struct {
	question string
	answer   string
	category string
	audience string
}

var staticFAQ = []faqEntry{
	{
		question: "Where can I find event schedules and venue information?",
		answer:   "Use the Dashboard for event summaries and the Venue Editor for layout details. For live sessions, check the Event Hub.",
		category: CategoryLogistics,
		audience: "attendee",
	},
	{
		question: "How does AI networking work?",
		answer:   "The AI Networking feature uses weighted-similarity matching based on your interests, industry, company and role to recommend the best people to connect with at events. Update your profile interests to get better matches.",
		category: CategoryFeature,
		audience: "attendee",
	},
	{
		question: "How do I update my profile or interests?",
		answer:   "Go to the 'My Profile' section from the sidebar or click your avatar in the top-right. You can update your name, company, industry, phone, and interests there. Interests directly affect AI networking recommendations.",
		category: CategoryFeature,
		audience: "attendee",
	},
	{
		question: "What features does EventNexus offer?",
		answer:   "EventNexus offers dashboard analytics, event creation and management, AI networking (smart attendee matching), an AI assistant that answers from platform data, a venue editor, badge generation, session management with live polls, Q&A, and real-time engagement tracking.",
		category: CategoryFeature,
		audience: "all",
	},
	{
		question: "How do I create a new event?",
		answer:   "As an organizer, go to the Dashboard and click 'Create New Event'. Fill in the name, date, location, capacity, and description. The event is visible on the platform immediately.",
		category: CategoryFeature,
		audience: "organizer",
	},
	{
		question: "How does the AI assistant find its answers?",
		answer:   "The assistant indexes events, attendees and these FAQ entries, then ranks them against your question. It uses semantic embeddings when an embedding model is available and token overlap otherwise.",
		category: CategoryTechnical,
		audience: "all",
	},
	{
		question: "How do I register for an event?",
		answer:   "Navigate to the Events section, find the event you want to attend, and click Register. You'll receive a QR code ticket for check-in.",
		category: CategoryLogistics,
		audience: "attendee",
	},
}

// GenerateFAQ returns the static platform FAQ plus entries computed from the
// current events and attendees.
func GenerateFAQ(events, attendees []models.Record) []models.Record {
	totalCapacity := 0
	totalRegistrations := 0
	names := make([]string, 0, maxListedEvents)
	var locations []string
	seenLocation := map[string]struct{}{}

	for i, e := range events {
		totalCapacity += e.Int("capacity")
		totalRegistrations += e.Int("registeredCount")
		if i < maxListedEvents {
			name := e.String("name")
			if name == "" {
				name = "Untitled"
			}
			names = append(names, name)
		}
		if loc := e.String("location"); loc != "" {
			if _, ok := seenLocation[loc]; !ok {
				seenLocation[loc] = struct{}{}
				locations = append(locations, loc)
			}
		}
	}

	eventNames := strings.Join(names, ", ")
	if eventNames == "" {
		eventNames = "No events yet"
	}
	eventLocations := strings.Join(locations, ", ")
	if eventLocations == "" {
		eventLocations = "No locations set"
	}

	attendeeAnswer := fmt.Sprintf("There are %d registered users. ", len(attendees))
	if len(attendees) == 0 {
		attendeeAnswer += "No attendees registered yet."
	} else {
		listed := make([]string, 0, maxListedAttendees)
		for i, a := range attendees {
			if i == maxListedAttendees {
				break
			}
			name := a.String("name")
			if name == "" {
				name = DefaultUserName
			}
			company := a.String("company")
			if company == "" {
				company = "no company"
			}
			listed = append(listed, fmt.Sprintf("%s (%s)", name, company))
		}
		attendeeAnswer += "Some attendees include: " + strings.Join(listed, ", ") + "."
	}

	dynamic := []faqEntry{
		{
			question: "How many events are there? What events do we have?",
			answer:   fmt.Sprintf("There are currently %d events on the platform: %s.", len(events), eventNames),
			category: CategoryOverview,
			audience: "all",
		},
		{
			question: "How many attendees or users are registered?",
			answer: fmt.Sprintf("There are %d registered users on the platform, with %d total event registrations across %d events.",
				len(attendees), totalRegistrations, len(events)),
			category: CategoryOverview,
			audience: "organizer",
		},
		{
			question: "What is the total capacity across all events?",
			answer:   fmt.Sprintf("The combined capacity across all events is %d seats.", totalCapacity),
			category: CategoryOverview,
			audience: "organizer",
		},
		{
			question: "Where are the events located? What are the event locations?",
			answer:   fmt.Sprintf("Events are located at: %s.", eventLocations),
			category: CategoryLogistics,
			audience: "attendee",
		},
		{
			question: "Who are the attendees? List the registered users.",
			answer:   attendeeAnswer,
			category: CategoryNetworking,
			audience: "all",
		},
	}

	out := make([]models.Record, 0, len(staticFAQ)+len(dynamic))
	for _, set := range [][]faqEntry{staticFAQ, dynamic} {
		for _, f := range set {
			out = append(out, models.Record{
				"id":       models.Slugify(f.question),
				"question": f.question,
				"answer":   f.answer,
				"category": f.category,
				"audience": f.audience,
			})
		}
	}
	return out
}
