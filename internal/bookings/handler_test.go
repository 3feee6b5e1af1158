package bookings

import "testing"

func TestValidDates(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"single day", "2026-09-01", "2026-09-01", true},
		{"normal range", "2026-09-01", "2026-09-05", true},
		{"end before start", "2026-09-05", "2026-09-01", false},
		{"bad start format", "01-09-2026", "2026-09-05", false},
		{"bad end format", "2026-09-01", "tomorrow", false},
		{"empty", "", "", false},
		{"month overflow rejected", "2026-13-01", "2026-13-02", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validDates(tt.start, tt.end); got != tt.want {
				t.Errorf("validDates(%q, %q) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}
