package faq

import (
	"math"
	"regexp"
	"strings"

	"vanrental/internal/vectorstore"
)

// FallbackAnswer is returned when no chunk clears the relevance floor.
const FallbackAnswer = "I'm sorry, I couldn't find an answer to that question. " +
	"Try asking about bookings, pricing, our fleet, or your account."

var headingLine = regexp.MustCompile(`(?m)^#+ .*\n?`)

// Synthesizer turns ranked retrieval results into a single answer string
// using score heuristics; it does not generate text.
type Synthesizer struct {
	// highConfidence is the score above which the top chunk stands alone.
	highConfidence float64
	// supportThreshold is the minimum score for a second chunk from a
	// different source to be appended as supporting material.
	supportThreshold float64
}

// NewSynthesizer creates a Synthesizer with the given score thresholds.
func NewSynthesizer(highConfidence, supportThreshold float64) *Synthesizer {
	return &Synthesizer{
		highConfidence:   highConfidence,
		supportThreshold: supportThreshold,
	}
}

// Synthesize applies the answer policy to ranked results and returns the
// answer text plus a 0-100 confidence derived from the top score.
//
// A strong top result (or a lone result) answers by itself. A weaker top
// result is combined with a second passage when that passage both clears the
// support threshold and comes from a different source document, so two
// near-duplicate chunks of one file are never stitched together.
func (s *Synthesizer) Synthesize(results []vectorstore.Result) (string, int) {
	if len(results) == 0 {
		return FallbackAnswer, 0
	}

	top := results[0]
	answer := cleanChunkText(top.Chunk.Text)
	confidence := int(math.Round(top.Score * 100))

	if top.Score > s.highConfidence || len(results) == 1 {
		return answer, confidence
	}

	second := results[1]
	if second.Score > s.supportThreshold && second.Chunk.Source != top.Chunk.Source {
		return answer + "\n\nAdditionally: " + cleanChunkText(second.Chunk.Text), confidence
	}

	return answer, confidence
}

// cleanChunkText strips markdown scaffolding (heading lines, bold markers,
// bullet prefixes) from a chunk, leaving prose.
func cleanChunkText(text string) string {
	cleaned := headingLine.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "**", "")
	lines := strings.Split(cleaned, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(strings.TrimSpace(line), "- ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
