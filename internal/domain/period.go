package domain

import (
	"fmt"
	"strings"
	"time"
)

// PeriodType is the cadence at which rotational stats are rebased.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
	PeriodYearly  PeriodType = "yearly"
)

// PeriodTypes returns every period type in rotation order.
func PeriodTypes() []PeriodType {
	return []PeriodType{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly}
}

func (p PeriodType) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Label formats the stable identifier of the period containing t, e.g.
// "daily:2024-03-21", "weekly:2024-W12", "monthly:2024-03", "yearly:2024".
// Labels sort chronologically within a period type and double as storage
// keys for historical records.
func (p PeriodType) Label(t time.Time) string {
	switch p {
	case PeriodDaily:
		return fmt.Sprintf("daily:%s", t.Format("2006-01-02"))
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("weekly:%d-W%02d", year, week)
	case PeriodMonthly:
		return fmt.Sprintf("monthly:%s", t.Format("2006-01"))
	case PeriodYearly:
		return fmt.Sprintf("yearly:%s", t.Format("2006"))
	}
	return ""
}

// ElapsedLabel is the label of the period that just ended when a boundary is
// crossed at local time local. The previous day always falls inside the
// elapsed period for every period type, since boundaries sit on the first
// hour/day of the new one.
func (p PeriodType) ElapsedLabel(local time.Time) string {
	return p.Label(local.AddDate(0, 0, -1))
}

// BoundaryCrossed reports whether local sits on the reset boundary for this
// period type. anchor is the weekday weekly rotations reset on.
func (p PeriodType) BoundaryCrossed(local time.Time, resetHour int, anchor time.Weekday) bool {
	if local.Hour() != resetHour {
		return false
	}
	switch p {
	case PeriodDaily:
		return true
	case PeriodWeekly:
		return local.Weekday() == anchor
	case PeriodMonthly:
		return local.Day() == 1
	case PeriodYearly:
		return local.YearDay() == 1
	}
	return false
}

// ParseLabel decodes a period label back into its period type and the last
// calendar day of the period it names.
func ParseLabel(label string) (PeriodType, time.Time, error) {
	prefix, rest, ok := strings.Cut(label, ":")
	if !ok {
		return "", time.Time{}, fmt.Errorf("malformed period label %q", label)
	}

	switch PeriodType(prefix) {
	case PeriodDaily:
		day, err := time.Parse("2006-01-02", rest)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("malformed daily label %q: %w", label, err)
		}
		return PeriodDaily, day, nil

	case PeriodWeekly:
		var year, week int
		if _, err := fmt.Sscanf(rest, "%d-W%d", &year, &week); err != nil || week < 1 || week > 53 {
			return "", time.Time{}, fmt.Errorf("malformed weekly label %q", label)
		}
		return PeriodWeekly, isoWeekEnd(year, week), nil

	case PeriodMonthly:
		month, err := time.Parse("2006-01", rest)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("malformed monthly label %q: %w", label, err)
		}
		return PeriodMonthly, month.AddDate(0, 1, -1), nil

	case PeriodYearly:
		year, err := time.Parse("2006", rest)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("malformed yearly label %q: %w", label, err)
		}
		return PeriodYearly, time.Date(year.Year(), 12, 31, 0, 0, 0, 0, time.UTC), nil
	}

	return "", time.Time{}, fmt.Errorf("unknown period type in label %q", label)
}

// isoWeekEnd returns the Sunday closing ISO week (year, week). January 4 is
// always inside ISO week 1.
func isoWeekEnd(year, week int) time.Time {
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	wd := int(jan4.Weekday())
	if wd == 0 {
		wd = 7 // ISO weekday: Sunday is 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-wd)
	return week1Monday.AddDate(0, 0, (week-1)*7+6)
}
