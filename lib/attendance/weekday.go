// Package attendance turns raw per-event attendance rows into
// deduplicated weekly presence counts.
package attendance

import (
	"time"

	"tntt-backend/lib/textutil"
)

type Weekday int

const (
	// the midweek gathering; every non-Sunday weekday folds into it
	Thursday Weekday = iota
	Sunday
	Other
)

func (w Weekday) String() string {
	switch w {
	case Thursday:
		return "thursday"
	case Sunday:
		return "sunday"
	}
	return "other"
}

var sundayTokens = []string{"SUNDAY", "CHUNHAT", "SUN"}
var thursdayTokens = []string{"THURSDAY", "THUNAM", "THU5"}

// Classify maps a free-text weekday label and/or a calendar date string
// to the gathering it belongs to. The label is authoritative when it
// matches; otherwise the date decides: Sunday is the Sunday gathering
// and every other weekday counts as the midweek ("thursday") one. When
// neither yields an answer the record is unclassifiable.
func Classify(label, date string) Weekday {
	if normalized := textutil.NormalizeName(label); normalized != "" {
		if normalized == "CN" || textutil.MatchName(label, sundayTokens) {
			return Sunday
		}
		if normalized == "T5" || textutil.MatchName(label, thursdayTokens) {
			return Thursday
		}
	}

	t, err := ParseEventDate(date)
	if err != nil {
		return Other
	}
	if t.Weekday() == time.Sunday {
		return Sunday
	}
	return Thursday
}

var eventDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseEventDate parses a calendar date string as a UTC instant.
func ParseEventDate(date string) (time.Time, error) {
	var t time.Time
	var err error
	for _, layout := range eventDateLayouts {
		t, err = time.ParseInLocation(layout, date, time.UTC)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
