package service

import (
	"testing"
	"time"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("21:05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec != "0 5 21 * * *" {
		t.Fatalf("unexpected spec %q", spec)
	}
	for _, bad := range []string{"", "25:00", "10:61", "9", "aa:bb"} {
		if _, err := buildDailySpec(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestBuildIntervalSpec(t *testing.T) {
	spec, err := buildIntervalSpec(30 * time.Minute)
	if err != nil || spec != "@every 1800s" {
		t.Fatalf("got %q, %v", spec, err)
	}
	if _, err := buildIntervalSpec(0); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestScheduleRegistersEntries(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	if _, err := s.ScheduleInterval(time.Hour, func() {}); err != nil {
		t.Fatalf("interval: %v", err)
	}
	if _, err := s.ScheduleDaily("07:30", func() {}); err != nil {
		t.Fatalf("daily: %v", err)
	}
	if s.Entries() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Entries())
	}
}
