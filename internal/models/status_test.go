package models

import (
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		ref   string
		want  Status
	}{
		{"open mid-range", "2025-01-01", "2025-01-31", "2025-01-15", StatusOpen},
		{"open on start day", "2025-01-01", "2025-01-31", "2025-01-01", StatusOpen},
		{"open on end day", "2025-01-01", "2025-01-31", "2025-01-31", StatusOpen},
		{"not started", "2025-01-01", "2025-01-31", "2024-12-31", StatusNotStarted},
		{"closed", "2025-01-01", "2025-01-31", "2025-02-01", StatusClosed},
		{"missing start", "", "2025-01-31", "2025-01-15", StatusUnspecified},
		{"missing end", "2025-01-01", "", "2025-01-15", StatusUnspecified},
		{"both missing", "", "", "2025-01-15", StatusUnspecified},
		{"garbage dates", "someday", "later", "2025-01-15", StatusUnspecified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := time.Parse("2006-01-02", tt.ref)
			if err != nil {
				t.Fatal(err)
			}
			if got := DeriveStatus(tt.start, tt.end, ref); got != tt.want {
				t.Errorf("DeriveStatus(%q, %q, %s) = %s, want %s", tt.start, tt.end, tt.ref, got, tt.want)
			}
		})
	}
}

func TestDeriveStatusIgnoresTimeOfDay(t *testing.T) {
	ref := time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC)
	if got := DeriveStatus("2025-01-01", "2025-01-31", ref); got != StatusOpen {
		t.Errorf("expected Open on end day regardless of clock time, got %s", got)
	}
}

func TestPeriodInverted(t *testing.T) {
	if !(Period{Start: "2025-02-01", End: "2025-01-01"}).Inverted() {
		t.Error("expected inverted period to be detected")
	}
	if (Period{Start: "2025-01-01", End: "2025-02-01"}).Inverted() {
		t.Error("ordered period reported as inverted")
	}
	if (Period{Start: "", End: "2025-02-01"}).Inverted() {
		t.Error("partial period reported as inverted")
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if Category("Sports").Valid() {
		t.Error("unknown category reported valid")
	}
	if Category("").Valid() {
		t.Error("empty category reported valid")
	}
}

func TestSearchQueryValidate(t *testing.T) {
	q := &SearchQuery{}
	if err := q.Validate(0, 0); err != nil {
		t.Fatal(err)
	}
	if q.Limit != 24 || q.Order != OrderNew {
		t.Errorf("defaults not applied: %+v", q)
	}

	q = &SearchQuery{}
	_ = q.Validate(12, 0)
	if q.Limit != 12 {
		t.Errorf("configured default not applied: %d", q.Limit)
	}

	q = &SearchQuery{Limit: 500, Offset: -3}
	_ = q.Validate(24, 100)
	if q.Limit != 100 {
		t.Errorf("limit not capped: %d", q.Limit)
	}
	if q.Offset != 0 {
		t.Errorf("offset not normalized: %d", q.Offset)
	}

	// A zero maxLimit means the caller imposes no cap.
	q = &SearchQuery{Limit: 500}
	_ = q.Validate(24, 0)
	if q.Limit != 500 {
		t.Errorf("uncapped limit changed: %d", q.Limit)
	}
}
