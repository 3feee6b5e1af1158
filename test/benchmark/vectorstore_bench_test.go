// Package benchmark measures the hot paths of the FAQ retrieval pipeline:
// tokenization, markdown chunking, corpus loading, and search.
//
// Run with:
//
//	go test -bench=. -benchmem ./test/benchmark/...
package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"vanrental/internal/vectorstore"
)

var sampleTexts = map[string]string{
	"short": "How do I book a van for the weekend?",
	"medium": `Booking a van takes two minutes. Browse the fleet page, open the van
        you want, select your start and end dates, and click Book. Availability is
        re-checked at the moment the booking is written, so only one of two
        conflicting bookings will succeed. Cancellations are free up to 48 hours
        before the start date.`,
	"long": strings.Repeat(`Our fleet has three categories. Passenger vans seat between
        10 and 15 people and suit group trips and shuttles. Cargo vans offer up to
        1800 kg of payload for moving and deliveries. Camper vans come with beds, a
        kitchenette, and in some models a shower. Every van leaves the depot with a
        full tank and daily rates include insurance and standard mileage. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := vectorstore.Tokenize(text)
				_ = tokens
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := vectorstore.Tokenize(text)
			_ = tokens
		}
	})
}

func syntheticCorpus(docs, qaPerDoc int) []vectorstore.Document {
	out := make([]vectorstore.Document, 0, docs)
	for d := 0; d < docs; d++ {
		var sb strings.Builder
		fmt.Fprintf(&sb, "## Section %d\n\n", d)
		for q := 0; q < qaPerDoc; q++ {
			fmt.Fprintf(&sb,
				"- **Question %d about topic%d?** Answer %d covers booking, pricing, fleet%d and account details.\n",
				q, d, q, q)
		}
		out = append(out, vectorstore.Document{
			Source: fmt.Sprintf("doc%d.md", d),
			Text:   sb.String(),
		})
	}
	return out
}

func BenchmarkChunkMarkdown(b *testing.B) {
	doc := syntheticCorpus(1, 50)[0]
	b.ReportAllocs()
	b.SetBytes(int64(len(doc.Text)))
	for i := 0; i < b.N; i++ {
		chunks := vectorstore.ChunkMarkdown(doc.Text, vectorstore.DefaultMaxChunkChars)
		_ = chunks
	}
}

func BenchmarkLoad(b *testing.B) {
	for _, size := range []int{10, 100} {
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			docs := syntheticCorpus(size, 10)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s := vectorstore.New()
				if err := s.Load(docs); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSearch(b *testing.B) {
	s := vectorstore.New()
	if err := s.Load(syntheticCorpus(50, 20)); err != nil {
		b.Fatal(err)
	}
	queries := []string{
		"how do I book a van",
		"pricing and account details",
		"topic7 fleet3",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		results := s.Search(queries[i%len(queries)], 3)
		_ = results
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	s := vectorstore.New()
	if err := s.Load(syntheticCorpus(50, 20)); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results := s.Search("booking pricing fleet", 3)
			_ = results
		}
	})
}
