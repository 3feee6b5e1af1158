// Package vectorstore implements an in-memory TF-IDF vector space model with
// cosine-similarity search over markdown-chunked documents. The corpus is
// rebuilt wholesale on every load; there is no incremental update path.
package vectorstore

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
)

// Document is a raw source document handed to Load.
type Document struct {
	Source string
	Text   string
}

// Chunk is an immutable retrievable passage. Tokens is the precomputed,
// ordered token sequence (duplicates retained; term frequency derives from
// it). IDs are sequential per load cycle and never reused within one.
type Chunk struct {
	ID     int
	Text   string
	Tokens []string
	Source string
}

// Result pairs a chunk with its similarity score for one query.
type Result struct {
	Chunk Chunk
	Score float64
}

// Stats reports the current corpus shape.
type Stats struct {
	Initialized    bool `json:"initialized"`
	ChunkCount     int  `json:"documentCount"`
	VocabularySize int  `json:"vocabularySize"`
}

// Store owns the chunk corpus and its IDF table. Load and Clear take the
// write lock; Search, Embed, and Stats take the read lock, so a reader can
// never observe half of a new chunk list paired with an old IDF table.
type Store struct {
	mu             sync.RWMutex
	chunks         []Chunk
	idf            map[string]float64
	initialized    bool
	maxChunkChars  int
	relevanceFloor float64
	logger         *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxChunkChars overrides the soft chunk-size target.
func WithMaxChunkChars(n int) Option {
	return func(s *Store) { s.maxChunkChars = n }
}

// WithRelevanceFloor overrides the minimum similarity for a search hit.
func WithRelevanceFloor(floor float64) Option {
	return func(s *Store) { s.relevanceFloor = floor }
}

// New creates an empty, uninitialized Store.
func New(opts ...Option) *Store {
	s := &Store{
		idf:            make(map[string]float64),
		maxChunkChars:  DefaultMaxChunkChars,
		relevanceFloor: 0.05,
		logger:         slog.Default().With("component", "vector-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load chunks and tokenizes every document, assigns sequential chunk IDs, and
// rebuilds the IDF table over the complete chunk set. It may only be called
// on a cleared store; the caller must Clear before loading again.
func (s *Store) Load(docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return fmt.Errorf("vector store already loaded; call Clear before reloading")
	}

	for _, doc := range docs {
		for _, text := range ChunkMarkdown(doc.Text, s.maxChunkChars) {
			s.chunks = append(s.chunks, Chunk{
				ID:     len(s.chunks),
				Text:   text,
				Tokens: Tokenize(text),
				Source: doc.Source,
			})
		}
	}

	s.idf = buildIDF(s.chunks)
	s.initialized = true
	s.logger.Info("corpus loaded",
		"documents", len(docs),
		"chunks", len(s.chunks),
		"vocabulary", len(s.idf),
	)
	return nil
}

// Clear drops all chunks and the IDF table. Always safe.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.idf = make(map[string]float64)
	s.initialized = false
}

// Initialized reports whether a load has completed since the last Clear.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Stats returns the current chunk count and vocabulary size.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Initialized:    s.initialized,
		ChunkCount:     len(s.chunks),
		VocabularySize: len(s.idf),
	}
}

// buildIDF computes smoothed inverse document frequencies over the chunk set:
// idf(t) = ln((N+1)/(df+1)) + 1. The smoothing keeps weights positive even
// for terms present in every chunk.
func buildIDF(chunks []Chunk) map[string]float64 {
	n := float64(len(chunks))
	df := make(map[string]int)
	for _, chunk := range chunks {
		seen := make(map[string]struct{}, len(chunk.Tokens))
		for _, term := range chunk.Tokens {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	idf := make(map[string]float64, len(df))
	for term, freq := range df {
		idf[term] = math.Log((n+1)/float64(freq+1)) + 1
	}
	return idf
}

// Embed converts a token sequence into a sparse term-weight vector using
// max-tf normalization: weight(t) = (tf(t)/maxTf) * idf(t). Terms absent
// from the IDF table weigh in with idf 1.0.
func (s *Store) Embed(tokens []string) map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embedLocked(tokens)
}

// embedLocked is Embed without locking, for callers already holding s.mu.
func (s *Store) embedLocked(tokens []string) map[string]float64 {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	maxTf := 1
	for _, count := range tf {
		if count > maxTf {
			maxTf = count
		}
	}
	vector := make(map[string]float64, len(tf))
	for term, count := range tf {
		idf, ok := s.idf[term]
		if !ok {
			idf = 1.0
		}
		vector[term] = float64(count) / float64(maxTf) * idf
	}
	return vector
}

// CosineSimilarity computes the cosine of the angle between two sparse
// vectors. Either vector having zero norm yields exactly 0.
func CosineSimilarity(vecA, vecB map[string]float64) float64 {
	var dot, normA, normB float64
	for term, a := range vecA {
		if b, ok := vecB[term]; ok {
			dot += a * b
		}
		normA += a * a
	}
	for _, b := range vecB {
		normB += b * b
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// Search ranks every chunk by cosine similarity to the query, drops scores at
// or below the relevance floor, and returns at most topK results ordered by
// descending score with ties broken by ascending chunk ID. An uninitialized
// or empty store returns nil.
func (s *Store) Search(query string, topK int) []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized || len(s.chunks) == 0 {
		return nil
	}

	queryVec := s.embedLocked(Tokenize(query))

	scored := make([]Result, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		score := CosineSimilarity(queryVec, s.embedLocked(chunk.Tokens))
		if score > s.relevanceFloor {
			scored = append(scored, Result{Chunk: chunk, Score: score})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
