package recommend

import "testing"

func TestAnalyzeNeedScoresByUseCase(t *testing.T) {
	tests := []struct {
		name    string
		need    string
		topType string
	}{
		{"moving maps to cargo", "I am moving apartments next week", "Cargo"},
		{"camping maps to camper", "camping under the stars", "Camper"},
		{"family maps to passenger", "family outing with the kids", "Passenger"},
		{"delivery maps to cargo", "daily delivery of goods around town", "Cargo"},
		{"wedding maps to passenger", "shuttle for a wedding party", "Passenger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalyzeNeed(tt.need)
			if len(a.Recommendations) == 0 {
				t.Fatalf("no recommendations for %q", tt.need)
			}
			if a.Recommendations[0].Type != tt.topType {
				t.Errorf("top type = %s, want %s (scores: %v)",
					a.Recommendations[0].Type, tt.topType, a.Recommendations)
			}
		})
	}
}

func TestAnalyzeNeedNoMatch(t *testing.T) {
	a := AnalyzeNeed("zzzzz qqqqq")
	if len(a.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %v", a.Recommendations)
	}
	if a.CapacityFilter.MinCapacity != 0 || a.CapacityFilter.MaxCapacity != 0 {
		t.Errorf("expected empty capacity filter, got %+v", a.CapacityFilter)
	}
}

func TestAnalyzeNeedCapacityHints(t *testing.T) {
	small := AnalyzeNeed("a small van for moving alone")
	if small.CapacityFilter.MaxCapacity != 4 {
		t.Errorf("small hint maxCapacity = %d, want 4", small.CapacityFilter.MaxCapacity)
	}

	large := AnalyzeNeed("a big van for a large group trip")
	if large.CapacityFilter.MinCapacity != 6 {
		t.Errorf("large hint minCapacity = %d, want 6", large.CapacityFilter.MinCapacity)
	}
}

func TestAnalyzeNeedSortedDescending(t *testing.T) {
	// Mentions both moving (Cargo) and family (Passenger); both present,
	// ordered by score.
	a := AnalyzeNeed("moving furniture with my family group")
	if len(a.Recommendations) < 2 {
		t.Fatalf("expected at least two scored types, got %v", a.Recommendations)
	}
	for i := 1; i < len(a.Recommendations); i++ {
		if a.Recommendations[i].Score > a.Recommendations[i-1].Score {
			t.Errorf("recommendations not sorted by descending score: %v", a.Recommendations)
		}
	}
}

func TestMatchKeywordsSubstringAndTokenOverlap(t *testing.T) {
	if got := matchKeywords("weekend getaway with friends", []string{"weekend getaway"}); got != 1 {
		t.Errorf("phrase match = %d, want 1", got)
	}
	if got := matchKeywords("MOVING day!", []string{"moving"}); got != 1 {
		t.Errorf("case-insensitive match = %d, want 1", got)
	}
	if got := matchKeywords("nothing relevant", []string{"camping", "moving"}); got != 0 {
		t.Errorf("no-match = %d, want 0", got)
	}
}
