package notifier

import (
	"errors"
	"testing"
	"time"
)

var counterBlob = []byte(`{"count":"1,234","death":"567","dailycount":"56","dailydeath":"8","date":"June 29","info":"Updated as of 6/29/2020 8:00pm"}`)

func TestParseCounter(t *testing.T) {
	record, err := ParseCounter(counterBlob)
	if err != nil {
		t.Fatalf("parse counter: %v", err)
	}

	if record.TotalCases != 1234 {
		t.Errorf("TotalCases = %d, want 1234", record.TotalCases)
	}
	if record.TotalDeaths != 567 {
		t.Errorf("TotalDeaths = %d, want 567", record.TotalDeaths)
	}
	if record.DailyCases != 56 {
		t.Errorf("DailyCases = %d, want 56", record.DailyCases)
	}
	if record.DailyDeaths != 8 {
		t.Errorf("DailyDeaths = %d, want 8", record.DailyDeaths)
	}
	if record.UpdateLabel != "June 29" {
		t.Errorf("UpdateLabel = %q, want %q", record.UpdateLabel, "June 29")
	}

	loc, err := time.LoadLocation("US/Pacific")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	want := time.Date(2020, time.June, 29, 20, 0, 0, 0, loc)
	if !record.ObservedAt.Equal(want) {
		t.Errorf("ObservedAt = %s, want %s", record.ObservedAt, want)
	}
}

func TestParseCounterFieldOrderIrrelevant(t *testing.T) {
	reordered := []byte(`{"info":"Updated as of 6/29/2020 8:00pm","dailydeath":"8","date":"June 29","dailycount":"56","death":"567","count":"1,234"}`)

	a, err := ParseCounter(counterBlob)
	if err != nil {
		t.Fatalf("parse counter: %v", err)
	}
	b, err := ParseCounter(reordered)
	if err != nil {
		t.Fatalf("parse reordered counter: %v", err)
	}
	if a != b {
		t.Fatalf("records differ: %+v vs %+v", a, b)
	}
}

func TestParseCounterMissingField(t *testing.T) {
	blob := []byte(`{"count":"1,234","dailycount":"56","dailydeath":"8","date":"June 29","info":"as of 6/29/2020 8:00pm"}`)

	_, err := ParseCounter(blob)
	if err == nil {
		t.Fatal("expected an error for a missing field")
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("error %v does not match ErrParse", err)
	}
}

func TestParseCounterBadDate(t *testing.T) {
	blob := []byte(`{"count":"1,234","death":"567","dailycount":"56","dailydeath":"8","date":"June 29","info":"no timestamp here"}`)

	_, err := ParseCounter(blob)
	if err == nil {
		t.Fatal("expected a date error")
	}
	if !errors.Is(err, ErrDateParse) {
		t.Fatalf("error %v does not match ErrDateParse", err)
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("date errors must also match ErrParse, got %v", err)
	}
}

func TestSanitizeNumber(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1,234", 1234, true},
		{"56", 56, true},
		{" 5,123 people", 5123, true},
		{"n/a", 0, false},
		{"", 0, false},
	}

	for _, c := range cases {
		got, err := sanitizeNumber(c.in, "test")
		if c.ok && err != nil {
			t.Errorf("sanitizeNumber(%q): %v", c.in, err)
			continue
		}
		if !c.ok {
			if err == nil {
				t.Errorf("sanitizeNumber(%q): expected error", c.in)
			} else if !errors.Is(err, ErrParse) {
				t.Errorf("sanitizeNumber(%q): error %v does not match ErrParse", c.in, err)
			}
			continue
		}
		if got != c.want {
			t.Errorf("sanitizeNumber(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
