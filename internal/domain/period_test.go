package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestPeriodLabels(t *testing.T) {
	at := date(2024, time.March, 21, 15) // a Thursday in ISO week 12

	cases := []struct {
		pt   PeriodType
		want string
	}{
		{PeriodDaily, "daily:2024-03-21"},
		{PeriodWeekly, "weekly:2024-W12"},
		{PeriodMonthly, "monthly:2024-03"},
		{PeriodYearly, "yearly:2024"},
	}
	for _, tc := range cases {
		if got := tc.pt.Label(at); got != tc.want {
			t.Errorf("%s.Label = %q, want %q", tc.pt, got, tc.want)
		}
	}
}

func TestElapsedLabel(t *testing.T) {
	cases := []struct {
		pt    PeriodType
		local time.Time
		want  string
	}{
		{PeriodDaily, date(2024, time.March, 22, 9), "daily:2024-03-21"},
		{PeriodWeekly, date(2024, time.March, 24, 0), "weekly:2024-W12"}, // Sunday boundary, week just ending
		{PeriodMonthly, date(2024, time.April, 1, 0), "monthly:2024-03"},
		{PeriodYearly, date(2025, time.January, 1, 0), "yearly:2024"},
	}
	for _, tc := range cases {
		if got := tc.pt.ElapsedLabel(tc.local); got != tc.want {
			t.Errorf("%s.ElapsedLabel(%v) = %q, want %q", tc.pt, tc.local, got, tc.want)
		}
	}
}

func TestBoundaryCrossed(t *testing.T) {
	anchor := time.Sunday

	cases := []struct {
		name      string
		pt        PeriodType
		local     time.Time
		resetHour int
		want      bool
	}{
		{"daily at reset hour", PeriodDaily, date(2024, time.March, 21, 9), 9, true},
		{"daily off reset hour", PeriodDaily, date(2024, time.March, 21, 10), 9, false},
		{"weekly on anchor", PeriodWeekly, date(2024, time.March, 24, 9), 9, true}, // a Sunday
		{"weekly off anchor", PeriodWeekly, date(2024, time.March, 21, 9), 9, false},
		{"monthly on the 1st", PeriodMonthly, date(2024, time.April, 1, 0), 0, true},
		{"monthly mid-month", PeriodMonthly, date(2024, time.April, 15, 0), 0, false},
		{"yearly on jan 1", PeriodYearly, date(2025, time.January, 1, 0), 0, true},
		{"yearly on another day", PeriodYearly, date(2025, time.February, 1, 0), 0, false},
	}
	for _, tc := range cases {
		if got := tc.pt.BoundaryCrossed(tc.local, tc.resetHour, anchor); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseLabel(t *testing.T) {
	cases := []struct {
		label   string
		wantPT  PeriodType
		wantEnd time.Time
	}{
		{"daily:2024-03-21", PeriodDaily, date(2024, time.March, 21, 0)},
		{"weekly:2024-W12", PeriodWeekly, date(2024, time.March, 24, 0)}, // Sunday closing week 12
		{"monthly:2024-02", PeriodMonthly, date(2024, time.February, 29, 0)},
		{"yearly:2024", PeriodYearly, date(2024, time.December, 31, 0)},
	}
	for _, tc := range cases {
		pt, end, err := ParseLabel(tc.label)
		if err != nil {
			t.Errorf("ParseLabel(%q) error: %v", tc.label, err)
			continue
		}
		if pt != tc.wantPT || !end.Equal(tc.wantEnd) {
			t.Errorf("ParseLabel(%q) = (%s, %v), want (%s, %v)", tc.label, pt, end, tc.wantPT, tc.wantEnd)
		}
	}
}

func TestParseLabelRejectsMalformed(t *testing.T) {
	for _, label := range []string{"", "daily", "hourly:2024-03-21", "daily:21-03-2024", "weekly:2024-12", "weekly:2024-W60"} {
		if _, _, err := ParseLabel(label); err == nil {
			t.Errorf("ParseLabel(%q) succeeded, want error", label)
		}
	}
}

func TestLabelRoundTrip(t *testing.T) {
	at := date(2024, time.July, 6, 12)
	for _, pt := range PeriodTypes() {
		label := pt.Label(at)
		gotPT, end, err := ParseLabel(label)
		if err != nil {
			t.Fatalf("%s: ParseLabel(%q) error: %v", pt, label, err)
		}
		if gotPT != pt {
			t.Errorf("%s: round-tripped to %s", pt, gotPT)
		}
		if end.Before(at.Truncate(24 * time.Hour)) {
			t.Errorf("%s: period end %v precedes labeled day", pt, end)
		}
	}
}
