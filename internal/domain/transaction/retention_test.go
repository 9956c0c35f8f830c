package transaction

import (
	"testing"
	"time"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestIsReviewed(t *testing.T) {
	now := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		date string
		want bool
	}{
		{"same month", "2026-03-01", false},
		{"same month end", "2026-03-31", false},
		{"previous month", "2026-02-28", true},
		{"same month last year", "2025-03-14", true},
		{"next month", "2026-04-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReviewed(date(tt.date), now); got != tt.want {
				t.Errorf("IsReviewed(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestInRetentionWindow(t *testing.T) {
	now := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date string
		want bool
	}{
		{"current month", "2026-01-02", true},
		{"previous month across year", "2025-12-31", true},
		{"two months back", "2025-11-30", false},
		{"three months back", "2025-10-20", false},
		{"future month", "2026-02-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InRetentionWindow(date(tt.date), now); got != tt.want {
				t.Errorf("InRetentionWindow(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestInRetentionWindow_EndOfMonth(t *testing.T) {
	// AddDate on the 31st would skip February if the first of the month were not used.
	now := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)

	if !InRetentionWindow(date("2026-02-10"), now) {
		t.Error("expected February to be the previous month on March 31")
	}
	if InRetentionWindow(date("2026-01-31"), now) {
		t.Error("expected January to fall outside the window on March 31")
	}
}

func TestRetain(t *testing.T) {
	now := time.Date(2026, time.May, 5, 0, 0, 0, 0, time.UTC)
	txs := []*Transaction{
		{ID: "keep-1", Date: date("2026-05-01")},
		{ID: "drop-1", Date: date("2026-02-12")},
		{ID: "keep-2", Date: date("2026-04-30")},
		{ID: "drop-2", Date: date("2026-03-31")},
	}

	got := Retain(txs, now)
	if len(got) != 2 {
		t.Fatalf("Retain() kept %d transactions, want 2", len(got))
	}
	if got[0].ID != "keep-1" || got[1].ID != "keep-2" {
		t.Errorf("Retain() = [%s %s], want [keep-1 keep-2]", got[0].ID, got[1].ID)
	}
}

func TestUnreviewed(t *testing.T) {
	txs := []*Transaction{
		{ID: "a", Reviewed: true},
		{ID: "b"},
		{ID: "c", Reviewed: true},
	}

	got := Unreviewed(txs)
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Unreviewed() = %v, want only b", got)
	}
	if Unreviewed(nil) != nil {
		t.Error("Unreviewed(nil) should be nil")
	}
}
