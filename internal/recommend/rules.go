// Package recommend suggests vans from free-text need descriptions using
// keyword rules, with personalization from the user's booking history.
package recommend

import (
	"sort"
	"strings"
)

// useCaseRule maps need keywords to a van type. Higher scores mean a
// stronger signal.
type useCaseRule struct {
	keywords []string
	vanType  string
	score    int
}

var useCaseRules = []useCaseRule{
	{[]string{"moving", "move", "relocate", "furniture", "apartment", "house"}, "Cargo", 10},
	{[]string{"delivery", "transport", "haul", "load", "cargo", "goods"}, "Cargo", 9},
	{[]string{"camping", "camp", "road trip", "adventure", "travel", "vacation"}, "Camper", 10},
	{[]string{"overnight", "sleep", "weekend getaway", "nature"}, "Camper", 8},
	{[]string{"family", "group", "team", "shuttle", "passengers", "people"}, "Passenger", 10},
	{[]string{"tour", "trip", "outing", "excursion", "day trip"}, "Passenger", 7},
	{[]string{"wedding", "event", "party", "celebration"}, "Passenger", 8},
	{[]string{"business", "corporate", "work", "commercial"}, "Cargo", 6},
}

// capacityHint infers seat constraints from group-size wording.
type capacityHint struct {
	keywords    []string
	minCapacity int
	maxCapacity int
}

var capacityHints = []capacityHint{
	{keywords: []string{"small", "compact", "solo", "alone", "1 person", "2 people"}, maxCapacity: 4},
	{keywords: []string{"medium", "couple", "3 people", "4 people", "5 people"}, maxCapacity: 8},
	{keywords: []string{"large", "big", "many", "group", "6 people", "10 people", "12 people"}, minCapacity: 6},
}

// TypeScore is one scored van type in an analysis result.
type TypeScore struct {
	Type  string `json:"type"`
	Score int    `json:"score"`
}

// CapacityFilter carries inferred seat bounds. Zero means no bound.
type CapacityFilter struct {
	MinCapacity int `json:"minCapacity,omitempty"`
	MaxCapacity int `json:"maxCapacity,omitempty"`
}

// Analysis is the outcome of AnalyzeNeed.
type Analysis struct {
	Recommendations []TypeScore    `json:"recommendations"`
	CapacityFilter  CapacityFilter `json:"capacityFilter"`
}

// tokenize lowercases and splits on non-alphanumerics. Tokens under three
// characters are dropped; they would otherwise overlap-match almost every
// keyword.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			return r
		}
		return ' '
	}, strings.ToLower(text))
	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// matchKeywords counts keywords that appear in the text, either as a
// substring of the whole text or overlapping one of its tokens.
func matchKeywords(text string, keywords []string) int {
	textLower := strings.ToLower(text)
	tokens := tokenize(text)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(textLower, kw) {
			matches++
			continue
		}
		for _, t := range tokens {
			if strings.Contains(t, kw) || strings.Contains(kw, t) {
				matches++
				break
			}
		}
	}
	return matches
}

// AnalyzeNeed scores van types against the need text and infers capacity
// bounds. Types with zero score are omitted; the rest are sorted by score
// descending.
func AnalyzeNeed(needText string) Analysis {
	scores := map[string]int{"Passenger": 0, "Cargo": 0, "Camper": 0}

	for _, rule := range useCaseRules {
		if matches := matchKeywords(needText, rule.keywords); matches > 0 {
			scores[rule.vanType] += rule.score * matches
		}
	}

	var filter CapacityFilter
	for _, hint := range capacityHints {
		if matchKeywords(needText, hint.keywords) > 0 {
			if hint.minCapacity > 0 {
				filter.MinCapacity = hint.minCapacity
			}
			if hint.maxCapacity > 0 {
				filter.MaxCapacity = hint.maxCapacity
			}
		}
	}

	sorted := make([]TypeScore, 0, len(scores))
	for vanType, score := range scores {
		if score > 0 {
			sorted = append(sorted, TypeScore{Type: vanType, Score: score})
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Type < sorted[j].Type
	})

	return Analysis{Recommendations: sorted, CapacityFilter: filter}
}
