package vans

import (
	"fmt"
	"math/rand"
	"strings"
)

// typeIntros opens the description according to the van type.
var typeIntros = map[string][]string{
	"Passenger": {
		"Perfect for group travel,",
		"Ideal for family outings and shuttle services,",
		"Designed for comfortable passenger transport,",
	},
	"Cargo": {
		"Built for heavy-duty hauling,",
		"Your go-to solution for deliveries and moves,",
		"Engineered for maximum cargo capacity,",
	},
	"Camper": {
		"Your home on wheels,",
		"Adventure awaits in this fully-equipped camper,",
		"Hit the open road with comfort and freedom,",
	},
}

var closings = []string{
	"Book today and experience the difference.",
	"Reserve now and make your next trip effortless.",
	"Available for daily rental — book your dates now!",
}

// Describe builds a marketing description for a van from its type, capacity,
// and specs. Template-based; an LLM could replace this for richer output.
func Describe(van *Van) string {
	intros, ok := typeIntros[van.Type]
	if !ok {
		intros = typeIntros["Passenger"]
	}
	intro := intros[rand.Intn(len(intros))]
	features := extractFeatures(van.Specs)

	body := "the " + van.Name
	if van.Capacity > 0 {
		if van.Type == "Cargo" {
			body += fmt.Sprintf(" seats %d up front", van.Capacity)
		} else {
			body += fmt.Sprintf(" comfortably seats up to %d", van.Capacity)
		}
	}

	if len(features) > 0 {
		var featureStr string
		if len(features) == 1 {
			featureStr = features[0]
		} else {
			featureStr = strings.Join(features[:len(features)-1], ", ") + " and " + features[len(features)-1]
		}
		body += ". It features " + featureStr
	}
	body += "."

	return intro + " " + body + " " + closings[rand.Intn(len(closings))]
}

// extractFeatures turns known specs keys into feature phrases.
func extractFeatures(specs map[string]any) []string {
	features := make([]string, 0, len(specs))
	if engine, ok := specs["engine"].(string); ok && engine != "" {
		features = append(features, fmt.Sprintf("powered by a %s engine", engine))
	}
	if transmission, ok := specs["transmission"].(string); ok && transmission != "" {
		features = append(features, strings.ToLower(transmission)+" transmission")
	}
	if fuel, ok := specs["fuel"].(string); ok && fuel != "" {
		if fuel == "Electric" {
			features = append(features, "zero-emission electric drivetrain")
		} else {
			features = append(features, "runs on "+strings.ToLower(fuel))
		}
	}
	if ac, ok := specs["ac"].(bool); ok && ac {
		features = append(features, "full climate control")
	}
	if beds, ok := numericSpec(specs["beds"]); ok && beds > 0 {
		if beds == 1 {
			features = append(features, "sleeping for one")
		} else {
			features = append(features, fmt.Sprintf("sleeping for %d", beds))
		}
	}
	if kitchenette, ok := specs["kitchenette"].(bool); ok && kitchenette {
		features = append(features, "a built-in kitchenette")
	}
	if shower, ok := specs["shower"].(bool); ok && shower {
		features = append(features, "an onboard shower/wet bath")
	}
	if payload, ok := numericSpec(specs["payload_kg"]); ok && payload > 0 {
		features = append(features, fmt.Sprintf("up to %d kg payload capacity", payload))
	}
	if rng, ok := numericSpec(specs["range_km"]); ok && rng > 0 {
		features = append(features, fmt.Sprintf("%d km range on a single charge", rng))
	}
	return features
}

// numericSpec handles specs values decoded from JSON, which arrive as
// float64.
func numericSpec(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
