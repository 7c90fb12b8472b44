package attendance

import (
	"fmt"

	"tntt-backend/lib/textutil"
)

// Record is one raw attendance row as fetched from upstream. Rows are
// never mutated; every field except StudentID and EventDate is optional
// free text.
type Record struct {
	StudentID string
	// calendar date string, e.g. "2024-09-19"
	EventDate string
	// free-text weekday label, e.g. "Chủ Nhật"
	WeekdayLabel string
	// free-text presence marker, e.g. "có", "P", "vắng"
	Status string
}

// WeeklySummary collapses all of one student's rows inside one ISO week
// to at most one presence flag per gathering.
type WeeklySummary struct {
	WeekKey            string
	HasThursdayPresent bool
	HasSundayPresent   bool
}

// WeeklyCount is the per-student total of distinct weeks with presence.
type WeeklyCount struct {
	StudentID         string
	WeeksWithThursday int
	WeeksWithSunday   int
}

var presentTokens = map[string]bool{
	"PRESENT": true, "YES": true, "TRUE": true, "1": true,
	"CO": true, "X": true, "P": true,
}

var absentTokens = map[string]bool{
	"ABSENT": true, "NO": true, "FALSE": true, "0": true,
	"VANG": true, "NGHI": true,
}

// IsPresent interprets a raw status marker. A blank status counts as
// present: sources that only insert rows for attendees carry no marker
// at all. Any other unrecognized marker is not-present, so an unknown
// status never counts toward a score.
func IsPresent(status string) bool {
	normalized := textutil.NormalizeName(status)
	if normalized == "" {
		return true
	}
	if presentTokens[normalized] {
		return true
	}
	if absentTokens[normalized] {
		return false
	}
	return false
}

// WeekKey returns the ISO-8601 week identifier ("2024-W38") for t. The
// ISO year is the year containing the week's Thursday, which is exactly
// what time.ISOWeek computes.
func WeekKey(date string) (string, error) {
	t, err := ParseEventDate(date)
	if err != nil {
		return "", err
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week), nil
}

// DedupeWeekly folds raw rows into per-student, per-ISO-week summaries.
// The fold is boolean OR, so it is commutative and idempotent: the same
// present row seen twice, or rows in any order, produce the same result.
// Rows without a student or date, rows whose status is not present, and
// rows that classify as neither gathering are dropped.
func DedupeWeekly(records []Record) map[string]map[string]*WeeklySummary {
	byStudent := map[string]map[string]*WeeklySummary{}

	for _, r := range records {
		if r.StudentID == "" || r.EventDate == "" {
			continue
		}
		if !IsPresent(r.Status) {
			continue
		}
		weekday := Classify(r.WeekdayLabel, r.EventDate)
		if weekday == Other {
			continue
		}
		key, err := WeekKey(r.EventDate)
		if err != nil {
			continue
		}

		weeks := byStudent[r.StudentID]
		if weeks == nil {
			weeks = map[string]*WeeklySummary{}
			byStudent[r.StudentID] = weeks
		}
		summary := weeks[key]
		if summary == nil {
			summary = &WeeklySummary{WeekKey: key}
			weeks[key] = summary
		}

		if weekday == Sunday {
			summary.HasSundayPresent = true
		} else {
			summary.HasThursdayPresent = true
		}
	}

	return byStudent
}

// CountWeeks sums a student's weekly presence flags.
func CountWeeks(weeks map[string]*WeeklySummary) WeeklyCount {
	var count WeeklyCount
	for _, summary := range weeks {
		if summary.HasThursdayPresent {
			count.WeeksWithThursday++
		}
		if summary.HasSundayPresent {
			count.WeeksWithSunday++
		}
	}
	return count
}
