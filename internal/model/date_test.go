package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-02")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year != 2024 || d.Month != time.January || d.Day != 2 {
		t.Errorf("got %v", d)
	}

	if _, err := ParseDate("02/01/2024"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDateComparisons(t *testing.T) {
	earlier := MustDate("2024-01-01")
	later := MustDate("2024-01-02")
	nextMonth := MustDate("2024-02-01")
	nextYear := MustDate("2025-01-01")

	if !earlier.Before(later) {
		t.Error("2024-01-01 should be before 2024-01-02")
	}
	if !earlier.Before(nextMonth) || !earlier.Before(nextYear) {
		t.Error("month and year comparisons failed")
	}
	if later.Before(earlier) {
		t.Error("Before is not asymmetric")
	}
	if earlier.Before(earlier) {
		t.Error("a date is not before itself")
	}
	if !later.After(earlier) {
		t.Error("After should mirror Before")
	}
}

func TestDateJSON(t *testing.T) {
	d := MustDate("2024-03-09")

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-03-09"` {
		t.Errorf("marshal = %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != d {
		t.Errorf("round trip = %v, want %v", back, d)
	}

	// Timestamps with a time component are truncated to the date.
	var fromTS Date
	if err := json.Unmarshal([]byte(`"2024-03-09T14:25:00"`), &fromTS); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if fromTS != d {
		t.Errorf("timestamp truncation = %v, want %v", fromTS, d)
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan("2024-06-30"); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if d != MustDate("2024-06-30") {
		t.Errorf("scan string = %v", d)
	}

	if err := d.Scan(time.Date(2024, 7, 1, 23, 59, 0, 0, time.UTC)); err != nil {
		t.Fatalf("scan time: %v", err)
	}
	if d != MustDate("2024-07-01") {
		t.Errorf("scan time = %v", d)
	}

	if err := d.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if !d.IsZero() {
		t.Errorf("scan nil should zero the date, got %v", d)
	}
}
