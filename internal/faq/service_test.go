package faq

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"vanrental/internal/vectorstore"
	"vanrental/pkg/config"
)

func testFAQConfig(docsDir string) config.FAQConfig {
	return config.FAQConfig{
		DocsDir:          docsDir,
		MaxChunkChars:    500,
		TopK:             3,
		RelevanceFloor:   0.05,
		HighConfidence:   0.4,
		SupportThreshold: 0.15,
		MaxQuestionLen:   500,
	}
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	writeDoc(t, dir, "bookings.md", "## Booking\n\n"+
		"- **How do I book a van?** Select dates and click Book to confirm.\n"+
		"- **How do I cancel?** Open My Bookings and press Cancel.\n")
	writeDoc(t, dir, "pricing.md", "## Pricing\n\n"+
		"- **How much does a rental cost?** The daily rate covers insurance and mileage.\n")

	store := vectorstore.New()
	return NewService(store, testFAQConfig(dir)), dir
}

func TestAskAnswersFromCorpus(t *testing.T) {
	svc, _ := newTestService(t)

	answer, err := svc.Ask(context.Background(), "How can I book a van?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(answer.Answer, "Select dates and click Book") {
		t.Errorf("answer missing expected passage: %q", answer.Answer)
	}
	if answer.Confidence <= 40 {
		t.Errorf("confidence = %d, want > 40", answer.Confidence)
	}
	if len(answer.Sources) == 0 {
		t.Error("expected at least one source")
	}
	if answer.Sources[0].Source != "bookings.md" {
		t.Errorf("top source = %q, want bookings.md", answer.Sources[0].Source)
	}
	if len(answer.FollowUp) == 0 {
		t.Error("expected follow-up suggestions")
	}
}

func TestAskFallbackOnNoMatch(t *testing.T) {
	svc, _ := newTestService(t)

	answer, err := svc.Ask(context.Background(), "xylophone quartz zeppelin")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Answer != FallbackAnswer {
		t.Errorf("answer = %q, want fallback", answer.Answer)
	}
	if answer.Confidence != 0 {
		t.Errorf("confidence = %d, want 0", answer.Confidence)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("fallback should carry no sources, got %d", len(answer.Sources))
	}
}

func TestEnsureReadyConcurrent(t *testing.T) {
	svc, _ := newTestService(t)

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.EnsureReady(context.Background())
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("EnsureReady: %v", err)
		}
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	// 3 Q/A chunks regardless of how many callers raced the first load.
	if stats.ChunkCount != 3 {
		t.Errorf("ChunkCount = %d, want 3", stats.ChunkCount)
	}
}

func TestEnsureReadyMissingDirIsEmptyCorpus(t *testing.T) {
	store := vectorstore.New()
	svc := NewService(store, testFAQConfig(filepath.Join(t.TempDir(), "nope")))

	if err := svc.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if !stats.Initialized {
		t.Error("store should initialize even without a docs directory")
	}
	if stats.ChunkCount != 0 {
		t.Errorf("ChunkCount = %d, want 0", stats.ChunkCount)
	}

	answer, err := svc.Ask(context.Background(), "anything at all")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Answer != FallbackAnswer {
		t.Errorf("empty corpus should answer with fallback, got %q", answer.Answer)
	}
}

func TestReloadPicksUpNewDocuments(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	before, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	writeDoc(t, dir, "fleet.md", "## Fleet\n\n- **Do you have campers?** Yes, with kitchenettes.\n")

	after, err := svc.Reload(ctx)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if after.ChunkCount != before.ChunkCount+1 {
		t.Errorf("ChunkCount after reload = %d, want %d", after.ChunkCount, before.ChunkCount+1)
	}

	answer, err := svc.Ask(ctx, "Do you have campers with a kitchenette?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(answer.Answer, "kitchenettes") {
		t.Errorf("reloaded corpus not searchable: %q", answer.Answer)
	}
}

func TestReloadConcurrentWithFirstLoad(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	writeDoc(t, dir, "fleet.md", "## Fleet\n\n- **Do you have campers?** Yes, with kitchenettes.\n")

	// Reloads interleaved with first-load callers must all succeed; in
	// particular no caller may observe a load against an already-populated
	// store.
	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- svc.EnsureReady(ctx)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Reload(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent load/reload: %v", err)
		}
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	// 3 chunks from the base fixture plus the fleet document.
	if stats.ChunkCount != 4 {
		t.Errorf("ChunkCount = %d, want 4", stats.ChunkCount)
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	// "é" is 2 bytes; cutting at 5 would split the second one.
	text := "ééé"
	got := truncate(text, 5)
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if got != "éé" {
		t.Errorf("truncate = %q, want %q", got, "éé")
	}

	if got := truncate("plain ascii", 5); got != "plain" {
		t.Errorf("truncate = %q, want %q", got, "plain")
	}
	if got := truncate("short", 200); got != "short" {
		t.Errorf("truncate = %q, want unchanged input", got)
	}
}

func TestSourceTextTruncated(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("vanrental booking dates confirm ", 20)
	writeDoc(t, dir, "long.md", "## Long\n\n"+long)

	svc := NewService(vectorstore.New(), testFAQConfig(dir))
	answer, err := svc.Ask(context.Background(), "vanrental booking dates")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(answer.Sources) == 0 {
		t.Fatal("expected a source")
	}
	if len(answer.Sources[0].Text) > 200 {
		t.Errorf("source text not truncated: %d chars", len(answer.Sources[0].Text))
	}
}
