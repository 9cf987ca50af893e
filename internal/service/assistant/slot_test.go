package assistant

import (
	"errors"
	"testing"
	"time"

	"github.com/seu-repo/crm-ia/internal/domain"
)

func TestNormalizeClock(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"10:00", "10:00", true},
		{"9:30", "09:30", true},
		{"14:00:00", "14:00", true},
		{"10h", "10:00", true},
		{"10h30", "10:30", true},
		{"3pm", "15:00", true},
		{"3:15 PM", "15:15", true},
		{"12am", "00:00", true},
		{"25:00", "", false},
		{"noon-ish", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, err := NormalizeClock(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("NormalizeClock(%q) = %q, %v; want %q, ok=%v", tt.in, got, err, tt.want, tt.ok)
		}
	}
}

func TestNormalizeDate_ISO(t *testing.T) {
	ref := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

	got, err := NormalizeDate("2025-09-10", ref)
	if err != nil || got != "2025-09-10" {
		t.Fatalf("expected 2025-09-10, got %q (%v)", got, err)
	}

	got, err = NormalizeDate("2025-09-10T10:00:00Z", ref)
	if err != nil || got != "2025-09-10" {
		t.Fatalf("expected date prefix to be kept, got %q (%v)", got, err)
	}
}

func TestNormalizeDate_UnreadableDates(t *testing.T) {
	ref := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

	for _, in := range []string{"gibberish", "TBD", "mercredi prochain", "lundi", "   "} {
		got, err := NormalizeDate(in, ref)
		if !errors.Is(err, domain.ErrInvalidSlot) {
			t.Errorf("NormalizeDate(%q) = %q, %v; want ErrInvalidSlot", in, got, err)
		}
	}
}

func TestNormalizeDate_TodayWords(t *testing.T) {
	ref := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

	for _, in := range []string{"today", "Aujourd'hui", "now"} {
		got, err := NormalizeDate(in, ref)
		if err != nil || got != "2025-09-01" {
			t.Errorf("NormalizeDate(%q) = %q, %v; want 2025-09-01", in, got, err)
		}
	}
}

func TestNormalizeDate_Natural(t *testing.T) {
	ref := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

	got, err := NormalizeDate("tomorrow", ref)

	if err != nil || got != "2025-09-02" {
		t.Fatalf("expected 2025-09-02, got %q (%v)", got, err)
	}
}

func TestResolveSlot_RejectsPast(t *testing.T) {
	now := time.Date(2025, 9, 10, 11, 0, 0, 0, time.UTC)

	_, _, err := resolveSlot(&domain.SchedulingDecision{Date: "2025-09-10", Time: "10:00"}, now)
	if !errors.Is(err, domain.ErrSlotInPast) {
		t.Fatalf("expected ErrSlotInPast, got %v", err)
	}

	date, clock, err := resolveSlot(&domain.SchedulingDecision{Date: "2025-09-10", Time: "11:00"}, now)
	if err != nil || date != "2025-09-10" || clock != "11:00" {
		t.Fatalf("expected current minute to be accepted, got %s %s (%v)", date, clock, err)
	}
}

func TestResolveSlot_MissingDate(t *testing.T) {
	_, _, err := resolveSlot(&domain.SchedulingDecision{Time: "10:00"}, time.Now())

	if !errors.Is(err, domain.ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
}
