// Package faq answers user questions about the rental service by retrieving
// passages from a markdown FAQ corpus through the TF-IDF vector store and
// synthesizing a response with heuristics.
package faq

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"vanrental/internal/vectorstore"
	"vanrental/pkg/config"
)

const loadKey = "load"

// Source describes one retrieved passage backing an answer.
type Source struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Score  int    `json:"score"`
}

// Answer is the full response to one question.
type Answer struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	Confidence     int      `json:"confidence"`
	FollowUp       []string `json:"followUp"`
	ResponseTimeMs int64    `json:"responseTimeMs,omitempty"`
}

// Service owns the vector store and lazily loads the FAQ corpus from the
// docs directory exactly once per process (or once per explicit reload).
// Concurrent callers during initialization share a single in-flight load via
// singleflight; a failed load is not cached, so the next caller retries.
type Service struct {
	store   *vectorstore.Store
	docsDir string
	topK    int
	synth   *Synthesizer
	group   singleflight.Group
	loadMu  sync.Mutex
	logger  *slog.Logger
}

// NewService creates a Service around an empty store. Nothing is loaded until
// the first call that needs the corpus.
func NewService(store *vectorstore.Store, cfg config.FAQConfig) *Service {
	return &Service{
		store:   store,
		docsDir: cfg.DocsDir,
		topK:    cfg.TopK,
		synth:   NewSynthesizer(cfg.HighConfidence, cfg.SupportThreshold),
		logger:  slog.Default().With("component", "faq-service"),
	}
}

// EnsureReady loads the corpus if it has not been loaded yet. Any number of
// concurrent callers trigger exactly one directory read; they all observe the
// same completed-or-failed outcome.
func (s *Service) EnsureReady(ctx context.Context) error {
	if s.store.Initialized() {
		return nil
	}
	_, err, _ := s.group.Do(loadKey, func() (any, error) {
		// loadMu serializes against Reload: a reload racing this first load
		// must not see a half-built store.
		s.loadMu.Lock()
		defer s.loadMu.Unlock()
		if s.store.Initialized() {
			return nil, nil
		}
		docs, err := s.readDocuments()
		if err != nil {
			return nil, err
		}
		return nil, s.store.Load(docs)
	})
	if err != nil {
		return fmt.Errorf("loading faq corpus: %w", err)
	}
	return nil
}

// readDocuments reads every .md file in the docs directory. A missing
// directory is a configuration condition, not a failure: it is logged and an
// empty corpus is returned, so the store still becomes Ready.
func (s *Service) readDocuments() ([]vectorstore.Document, error) {
	entries, err := os.ReadDir(s.docsDir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("faq docs directory not found, starting with empty corpus", "dir", s.docsDir)
			return nil, nil
		}
		return nil, fmt.Errorf("reading docs directory %s: %w", s.docsDir, err)
	}

	docs := make([]vectorstore.Document, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(s.docsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		docs = append(docs, vectorstore.Document{
			Source: entry.Name(),
			Text:   string(content),
		})
	}
	return docs, nil
}

// Ask retrieves the best-matching chunks for a question and synthesizes an
// answer with confidence and follow-up suggestions.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	if err := s.EnsureReady(ctx); err != nil {
		return nil, err
	}

	results := s.store.Search(question, s.topK)
	text, confidence := s.synth.Synthesize(results)

	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			Text:   truncate(r.Chunk.Text, 200),
			Source: r.Chunk.Source,
			Score:  int(math.Round(r.Score * 100)),
		})
	}

	return &Answer{
		Answer:     text,
		Sources:    sources,
		Confidence: confidence,
		FollowUp:   FollowUpSuggestions(question, text),
	}, nil
}

// Stats ensures the corpus is loaded and reports its shape.
func (s *Service) Stats(ctx context.Context) (vectorstore.Stats, error) {
	if err := s.EnsureReady(ctx); err != nil {
		return vectorstore.Stats{}, err
	}
	return s.store.Stats(), nil
}

// Reload rebuilds the corpus from disk. The clear-and-load runs under the
// same lock as the initial load, so a reload racing a still-in-flight first
// load cannot start a second store.Load against a populated store.
func (s *Service) Reload(ctx context.Context) (vectorstore.Stats, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.store.Clear()
	s.group.Forget(loadKey)
	docs, err := s.readDocuments()
	if err != nil {
		return vectorstore.Stats{}, fmt.Errorf("loading faq corpus: %w", err)
	}
	if err := s.store.Load(docs); err != nil {
		return vectorstore.Stats{}, fmt.Errorf("loading faq corpus: %w", err)
	}
	stats := s.store.Stats()
	s.logger.Info("faq corpus reloaded", "chunks", stats.ChunkCount, "vocabulary", stats.VocabularySize)
	return stats, nil
}

// truncate shortens text to at most n bytes without splitting a multi-byte
// rune at the cut point.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}
