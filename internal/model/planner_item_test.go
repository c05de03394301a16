package model

import (
	"errors"
	"testing"
	"time"
)

func TestCheckTaskName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Drink water", want: "Drink water"},
		{in: "  Python practice \n", want: "Python practice"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "\t\n", wantErr: true},
	}
	for _, tc := range cases {
		got, err := CheckTaskName(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrEmptyTaskName) {
				t.Fatalf("CheckTaskName(%q): expected ErrEmptyTaskName, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("CheckTaskName(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestClampXP(t *testing.T) {
	if got := ClampXP(-5); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := ClampXP(50); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := ClampXP(5000); got != MaxXP {
		t.Fatalf("expected %d, got %d", MaxXP, got)
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory("health"); got != CategoryHealth {
		t.Fatalf("expected Health, got %q", got)
	}
	if got := NormalizeCategory("Gardening"); got != CategoryOther {
		t.Fatalf("expected Other, got %q", got)
	}
	if IsKnownCategory(CategoryAll) {
		t.Fatal("sentinel must not be a storable category")
	}
}

func TestDateScan(t *testing.T) {
	want := NewDate(2024, time.January, 1)

	var d Date
	if err := d.Scan("2024-01-01"); err != nil || d != want {
		t.Fatalf("scan text: got %v, %v", d, err)
	}
	if err := d.Scan([]byte("2024-01-01 00:00:00+00:00")); err != nil || d != want {
		t.Fatalf("scan bytes: got %v, %v", d, err)
	}
	if err := d.Scan(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil || d != want {
		t.Fatalf("scan time: got %v, %v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("expected error for int source")
	}
	if _, err := ParseDate("01/02/2024"); err == nil {
		t.Fatal("expected error for wrong layout")
	}
}

func TestDateValueRejectsZero(t *testing.T) {
	if _, err := (Date{}).Value(); !errors.Is(err, ErrZeroDate) {
		t.Fatalf("expected ErrZeroDate, got %v", err)
	}
	v, err := NewDate(2024, time.March, 5).Value()
	if err != nil || v != "2024-03-05" {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestItemPatchApplyOnlySetFields(t *testing.T) {
	details := "500ml"
	item := PlannerItem{ID: 3, User: "anish", Date: NewDate(2024, 1, 1), Category: CategoryHealth, TaskName: "Drink water", Details: &details, XP: 10}
	xp := 50

	cols := ItemPatch{XP: &xp}.Apply(&item)

	if len(cols) != 1 || cols["xp"] != 50 {
		t.Fatalf("expected only xp column, got %v", cols)
	}
	if item.XP != 50 || item.TaskName != "Drink water" || item.Category != CategoryHealth || item.DetailsText() != "500ml" {
		t.Fatalf("unexpected item after patch: %+v", item)
	}
	if !(ItemPatch{}).Empty() {
		t.Fatal("zero patch must be empty")
	}
}
