// Package scoring holds the program's score formulas. Every function is
// pure; "no data" is a nil result, never a zero score.
package scoring

import (
	"fmt"
	"math"
)

// Fixed business constants: the Sunday gathering weighs more than the
// midweek one, and catechism outweighs attendance in the final score.
const (
	thursdayWeight   = 0.4
	sundayWeight     = 0.6
	studyWeight      = 0.6
	attendanceWeight = 0.4
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	return &v
}

// WeeklyAttendanceScore normalizes deduplicated weekly presence counts
// to a 0-10 scale: (thursday*0.4 + sunday*0.6) * (10/totalWeeks). A
// non-positive totalWeeks means the academic-year length is not
// configured, and the score is undefined.
func WeeklyAttendanceScore(weeksWithThursday, weeksWithSunday, totalWeeks int) *float64 {
	if totalWeeks <= 0 {
		return nil
	}
	weighted := float64(weeksWithThursday)*thursdayWeight + float64(weeksWithSunday)*sundayWeight
	return ptr(round2(weighted * (10 / float64(totalWeeks))))
}

// LegacyAttendanceScore computes present/total*10 for sources that only
// report raw counts instead of per-event rows. Undefined when either
// count is missing or total is zero.
func LegacyAttendanceScore(present, total *int) *float64 {
	if present == nil || total == nil || *total == 0 {
		return nil
	}
	return ptr(round2(float64(*present) / float64(*total) * 10))
}

// CatechismAverage computes (s1_45 + s2_45 + 2*s1_exam + 2*s2_exam)/6.
// Missing components are deliberately zero-filled: a partially-graded
// student gets an average diluted by the missing parts. Only a student
// with no grades at all has no average.
func CatechismAverage(s1Test45, s1Exam, s2Test45, s2Exam *float64) *float64 {
	if s1Test45 == nil && s1Exam == nil && s2Test45 == nil && s2Exam == nil {
		return nil
	}
	sum := zeroFill(s1Test45) + zeroFill(s2Test45) + 2*zeroFill(s1Exam) + 2*zeroFill(s2Exam)
	return ptr(round2(sum / 6))
}

// TotalScore combines the two averages: study*0.6 + attendance*0.4,
// with the same zero-fill convention for a single missing side.
func TotalScore(studyAvg, attendanceAvg *float64) *float64 {
	if studyAvg == nil && attendanceAvg == nil {
		return nil
	}
	return ptr(round2(zeroFill(studyAvg)*studyWeight + zeroFill(attendanceAvg)*attendanceWeight))
}

func zeroFill(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// ValidateGrade rejects values a grade-entry caller must never write.
// The aggregation path never calls this; it treats unparseable fields
// as absent instead.
func ValidateGrade(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("grade must be a finite number")
	}
	if v < 0 || v > 10 {
		return fmt.Errorf("grade %v is outside the 0-10 scale", v)
	}
	return nil
}
