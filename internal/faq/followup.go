package faq

import "strings"

// echoPrefixLen is how many leading characters of a suggestion are matched
// against the question to avoid suggesting what was just asked.
const echoPrefixLen = 15

type followUpCategory struct {
	name        string
	keywords    []string
	suggestions []string
}

// followUpCategories is checked in order; the first category whose keyword
// appears in the question or answer wins.
var followUpCategories = []followUpCategory{
	{
		name:     "booking",
		keywords: []string{"book", "reserve", "reservation", "dates", "pick up", "pickup"},
		suggestions: []string{
			"How do I modify my booking?",
			"What do I need to bring when picking up a van?",
			"Can I extend my rental period?",
		},
	},
	{
		name:     "cancellation",
		keywords: []string{"cancel", "refund", "no-show"},
		suggestions: []string{
			"What is your cancellation policy?",
			"How long does a refund take?",
			"Can I rebook after cancelling?",
		},
	},
	{
		name:     "pricing",
		keywords: []string{"price", "cost", "fee", "deposit", "pay", "rate"},
		suggestions: []string{
			"What is included in the daily rate?",
			"Is there a security deposit?",
			"Do you offer weekly discounts?",
		},
	},
	{
		name:     "fleet",
		keywords: []string{"van", "camper", "cargo", "passenger", "capacity", "vehicle"},
		suggestions: []string{
			"What van types are available?",
			"How many passengers fit in your largest van?",
			"Do your campers have a kitchenette?",
		},
	},
	{
		name:     "account",
		keywords: []string{"account", "login", "password", "profile", "email", "register"},
		suggestions: []string{
			"How do I reset my password?",
			"How do I update my account details?",
			"Where can I see my past bookings?",
		},
	},
}

var defaultFollowUps = []string{
	"How do I book a van?",
	"What vans do you have available?",
	"What is your cancellation policy?",
}

// FollowUpSuggestions returns follow-up questions for the first category whose
// keywords match the question or answer (case-insensitive substring match),
// dropping any suggestion the question already echoes. With no matching
// category the fixed default triple is returned.
func FollowUpSuggestions(question, answer string) []string {
	haystack := strings.ToLower(question + " " + answer)
	for _, cat := range followUpCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(haystack, kw) {
				return dropEchoes(cat.suggestions, question)
			}
		}
	}
	return defaultFollowUps
}

// dropEchoes filters out suggestions whose leading characters already appear
// in the question.
func dropEchoes(suggestions []string, question string) []string {
	q := strings.ToLower(question)
	kept := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		prefix := strings.ToLower(s)
		if len(prefix) > echoPrefixLen {
			prefix = prefix[:echoPrefixLen]
		}
		if strings.Contains(q, prefix) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
