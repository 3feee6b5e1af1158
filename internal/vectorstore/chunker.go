package vectorstore

import (
	"regexp"
	"strings"
)

// DefaultMaxChunkChars is the soft packing target for paragraph chunks.
const DefaultMaxChunkChars = 500

var paragraphSplit = regexp.MustCompile(`\n\n+`)

// ChunkMarkdown splits a markdown document into retrieval-sized passages.
//
// Sections are delimited by "## " headings. A section containing question
// and answer bullets ("- **Question** answer") yields one chunk per item,
// each prefixed with the section title so the pair stays attributable to its
// section. Short sections become a single chunk; long ones are packed
// paragraph by paragraph up to maxChunkChars. The limit is a soft target:
// a single paragraph longer than maxChunkChars is emitted whole rather than
// split mid-paragraph.
func ChunkMarkdown(text string, maxChunkChars int) []string {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}

	sections := strings.Split(text, "\n## ")
	chunks := make([]string, 0, len(sections))

	for _, section := range sections {
		trimmed := strings.TrimSpace(section)
		if trimmed == "" {
			continue
		}

		qaPairs := strings.Split(trimmed, "\n- **")
		switch {
		case len(qaPairs) > 1:
			sectionTitle := strings.TrimSpace(qaPairs[0])
			for _, pair := range qaPairs[1:] {
				chunks = append(chunks, sectionTitle+"\n- **"+strings.TrimSpace(pair))
			}
		case len(trimmed) <= maxChunkChars:
			chunks = append(chunks, trimmed)
		default:
			chunks = append(chunks, packParagraphs(trimmed, maxChunkChars)...)
		}
	}
	return chunks
}

// packParagraphs greedily packs consecutive paragraphs into chunks of at most
// maxChunkChars, emitting the final partial chunk if non-empty.
func packParagraphs(section string, maxChunkChars int) []string {
	paragraphs := paragraphSplit.Split(section, -1)
	chunks := make([]string, 0, len(paragraphs))
	current := ""
	for _, para := range paragraphs {
		if current != "" && len(current)+len("\n\n")+len(para) > maxChunkChars {
			chunks = append(chunks, strings.TrimSpace(current))
			current = para
			continue
		}
		if current == "" {
			current = para
		} else {
			current += "\n\n" + para
		}
	}
	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}
