package vectorstore

import (
	"math"
	"testing"
)

func testDocs() []Document {
	return []Document{
		{Source: "bookings.md", Text: "Booking a van online takes two minutes. Pick your dates and confirm the booking."},
		{Source: "pricing.md", Text: "Daily rental rates include insurance. Weekly rentals receive a discount."},
		{Source: "fleet.md", Text: "Camper vans sleep four and include a kitchenette for road trips."},
	}
}

func loadedStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s := New(opts...)
	if err := s.Load(testDocs()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoadAssignsSequentialIDs(t *testing.T) {
	s := loadedStore(t)
	results := s.Search("booking van dates", 10)
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	stats := s.Stats()
	if !stats.Initialized {
		t.Error("store should be initialized after Load")
	}
	if stats.ChunkCount != 3 {
		t.Errorf("ChunkCount = %d, want 3", stats.ChunkCount)
	}
	if stats.VocabularySize == 0 {
		t.Error("vocabulary should not be empty")
	}
}

func TestLoadTwiceFails(t *testing.T) {
	s := loadedStore(t)
	if err := s.Load(testDocs()); err == nil {
		t.Fatal("second Load should fail without Clear")
	}
	s.Clear()
	if err := s.Load(testDocs()); err != nil {
		t.Fatalf("Load after Clear: %v", err)
	}
}

func TestClearResetsStats(t *testing.T) {
	s := loadedStore(t)
	s.Clear()
	stats := s.Stats()
	if stats.Initialized || stats.ChunkCount != 0 || stats.VocabularySize != 0 {
		t.Errorf("Clear left state behind: %+v", stats)
	}
	if got := s.Search("booking", 3); got != nil {
		t.Errorf("Search on cleared store = %v, want nil", got)
	}
}

func TestIDFRareTermsWeighMore(t *testing.T) {
	docs := []Document{
		{Source: "a.md", Text: "shared rental shared rental unique"},
		{Source: "b.md", Text: "shared rental something"},
		{Source: "c.md", Text: "shared rental other"},
	}
	s := New()
	if err := s.Load(docs); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// "unique" appears in one chunk, "shared" in all three; with smoothed
	// IDF the rare term must weigh strictly more.
	vec := s.Embed([]string{"unique", "shared"})
	if vec["unique"] <= vec["shared"] {
		t.Errorf("idf ordering wrong: unique=%f shared=%f", vec["unique"], vec["shared"])
	}
	// Smoothing keeps even ubiquitous terms positive.
	if vec["shared"] <= 0 {
		t.Errorf("smoothed idf should stay positive, got %f", vec["shared"])
	}
}

func TestEmbedUnseenTermDefaultIDF(t *testing.T) {
	s := loadedStore(t)
	vec := s.Embed([]string{"zeppelin"})
	if got := vec["zeppelin"]; got != 1.0 {
		t.Errorf("unseen term weight = %f, want 1.0 (tf 1/1 * default idf 1.0)", got)
	}
}

func TestEmbedMaxTFNormalization(t *testing.T) {
	s := New()
	// Empty store: every idf defaults to 1.0, so weights are tf/maxTf.
	vec := s.Embed([]string{"van", "van", "van", "trip"})
	if got := vec["van"]; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("max-frequency term weight = %f, want 1.0", got)
	}
	if got := vec["trip"]; math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("weight = %f, want 1/3", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	v := map[string]float64{"van": 0.5, "booking": 1.2}

	if got := CosineSimilarity(v, v); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("self similarity = %f, want 1.0", got)
	}
	if got := CosineSimilarity(v, map[string]float64{}); got != 0 {
		t.Errorf("similarity with empty vector = %f, want exactly 0", got)
	}
	if got := CosineSimilarity(map[string]float64{}, map[string]float64{}); got != 0 {
		t.Errorf("similarity of two empty vectors = %f, want exactly 0", got)
	}
	// Orthogonal vectors share no terms.
	if got := CosineSimilarity(v, map[string]float64{"camper": 1.0}); got != 0 {
		t.Errorf("orthogonal similarity = %f, want 0", got)
	}
}

func TestSearchUninitialized(t *testing.T) {
	s := New()
	if got := s.Search("anything", 3); got != nil {
		t.Errorf("Search on empty store = %v, want nil", got)
	}
}

func TestSearchRelevanceFloor(t *testing.T) {
	s := loadedStore(t)
	for _, r := range s.Search("booking dates", 10) {
		if r.Score <= 0.05 {
			t.Errorf("result below relevance floor leaked through: %f", r.Score)
		}
	}
	// A query sharing no vocabulary with the corpus returns nothing.
	if got := s.Search("xylophone quartz", 3); len(got) != 0 {
		t.Errorf("irrelevant query returned %d results", len(got))
	}
}

func TestSearchOrderingAndTopK(t *testing.T) {
	s := loadedStore(t)
	results := s.Search("van rental booking insurance kitchenette", 10)
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted by descending score at %d", i)
		}
		if results[i].Score == results[i-1].Score && results[i].Chunk.ID < results[i-1].Chunk.ID {
			t.Errorf("tie not broken by ascending chunk ID at %d", i)
		}
	}

	capped := s.Search("van rental booking insurance kitchenette", 1)
	if len(capped) > 1 {
		t.Errorf("topK=1 returned %d results", len(capped))
	}
}

func TestSearchTiesBrokenByChunkID(t *testing.T) {
	// Two identical chunks score identically; order must be by ID.
	docs := []Document{
		{Source: "a.md", Text: "camper kitchenette"},
		{Source: "b.md", Text: "camper kitchenette"},
	}
	s := New()
	if err := s.Load(docs); err != nil {
		t.Fatalf("Load: %v", err)
	}
	results := s.Search("camper kitchenette", 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID >= results[1].Chunk.ID {
		t.Errorf("tie order wrong: IDs %d, %d", results[0].Chunk.ID, results[1].Chunk.ID)
	}
}

func TestSearchDeterministic(t *testing.T) {
	s := loadedStore(t)
	first := s.Search("van booking", 3)
	for i := 0; i < 5; i++ {
		again := s.Search("van booking", 3)
		if len(again) != len(first) {
			t.Fatalf("result count changed between runs")
		}
		for j := range again {
			if again[j].Chunk.ID != first[j].Chunk.ID || again[j].Score != first[j].Score {
				t.Fatalf("result %d changed between runs", j)
			}
		}
	}
}
