// Package studentscore computes a single student's scores, independent
// of the sector roll-up pipeline. Grade-entry endpoints call it
// directly.
package studentscore

import (
	"context"
	"fmt"

	"tntt-backend/lib/attendance"
	"tntt-backend/lib/scoring"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/studentscore")

type Service struct{}

func NewService() Service {
	return Service{}
}

type Grades struct {
	S1Test45 *float64
	S1Exam   *float64
	S2Test45 *float64
	S2Exam   *float64
}

type Request struct {
	StudentID string
	// per-event rows; preferred over the legacy counters below
	Records []attendance.Record
	// legacy present/total counters for sources without per-event rows
	PresentCount  *int
	TotalSessions *int
	Grades        Grades
	// academic-year length; <= 0 means unconfigured
	TotalWeeks int
}

type Result struct {
	StudentID         string   `json:"student_id"`
	WeeksWithThursday int      `json:"weeks_with_thursday"`
	WeeksWithSunday   int      `json:"weeks_with_sunday"`
	TotalWeeks        int      `json:"total_weeks"`
	AttendanceScore   *float64 `json:"attendance_score"`
	StudyAverage      *float64 `json:"study_average"`
	TotalScore        *float64 `json:"total_score"`
}

// Score folds the request's attendance rows into weekly counts and
// applies the published formulas. A nil score means "no data", never
// zero.
func (s Service) Score(ctx context.Context, req Request) Result {
	_, span := tracer.Start(ctx, "Score")
	defer span.End()

	result := Result{
		StudentID:  req.StudentID,
		TotalWeeks: req.TotalWeeks,
	}

	if len(req.Records) > 0 {
		byStudent := attendance.DedupeWeekly(req.Records)
		count := attendance.CountWeeks(byStudent[req.StudentID])
		result.WeeksWithThursday = count.WeeksWithThursday
		result.WeeksWithSunday = count.WeeksWithSunday
		result.AttendanceScore = scoring.WeeklyAttendanceScore(
			count.WeeksWithThursday, count.WeeksWithSunday, req.TotalWeeks)
	} else {
		result.AttendanceScore = scoring.LegacyAttendanceScore(
			req.PresentCount, req.TotalSessions)
	}

	result.StudyAverage = scoring.CatechismAverage(
		req.Grades.S1Test45, req.Grades.S1Exam, req.Grades.S2Test45, req.Grades.S2Exam)
	result.TotalScore = scoring.TotalScore(result.StudyAverage, result.AttendanceScore)
	return result
}

// ValidateGrades rejects grade writes outside the 0-10 scale before
// they can reach the aggregation path.
func (s Service) ValidateGrades(grades Grades) error {
	components := []struct {
		name  string
		value *float64
	}{
		{"s1_test45", grades.S1Test45},
		{"s1_exam", grades.S1Exam},
		{"s2_test45", grades.S2Test45},
		{"s2_exam", grades.S2Exam},
	}
	for _, c := range components {
		if c.value == nil {
			continue
		}
		if err := scoring.ValidateGrade(*c.value); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}
