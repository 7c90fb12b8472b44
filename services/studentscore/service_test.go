package studentscore

import (
	"context"
	"testing"

	"tntt-backend/lib/attendance"
	"tntt-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func floatp(v float64) *float64 { return &v }
func intp(v int) *int           { return &v }

func TestScoreFromWeeklyRecords(t *testing.T) {
	defer telemetry.SetupForTesting(t, "services/studentscore")()
	service := NewService()

	result := service.Score(context.Background(), Request{
		StudentID: "s1",
		Records: []attendance.Record{
			{StudentID: "s1", EventDate: "2024-09-19", Status: "P"},
			{StudentID: "s1", EventDate: "2024-09-22", Status: "có"},
			{StudentID: "s1", EventDate: "2024-09-22", Status: "có"}, // duplicate
			{StudentID: "s1", EventDate: "2024-09-29", Status: "1"},
		},
		Grades:     Grades{S1Test45: floatp(8), S1Exam: floatp(7)},
		TotalWeeks: 20,
	})

	require.Equal(t, 1, result.WeeksWithThursday)
	require.Equal(t, 2, result.WeeksWithSunday)
	require.NotNil(t, result.AttendanceScore)
	require.Equal(t, 0.8, *result.AttendanceScore)
	require.NotNil(t, result.StudyAverage)
	require.Equal(t, 3.67, *result.StudyAverage)
	// 3.67*0.6 + 0.8*0.4 = 2.202 + 0.32 = 2.52
	require.NotNil(t, result.TotalScore)
	require.Equal(t, 2.52, *result.TotalScore)
}

func TestScoreLegacyCounters(t *testing.T) {
	defer telemetry.SetupForTesting(t, "services/studentscore")()
	service := NewService()

	result := service.Score(context.Background(), Request{
		StudentID:     "s2",
		PresentCount:  intp(15),
		TotalSessions: intp(20),
		TotalWeeks:    20,
	})

	require.NotNil(t, result.AttendanceScore)
	require.Equal(t, 7.5, *result.AttendanceScore)
	require.Nil(t, result.StudyAverage)
	// attendance only: 0*0.6 + 7.5*0.4 = 3.0
	require.NotNil(t, result.TotalScore)
	require.Equal(t, 3.0, *result.TotalScore)
}

func TestScoreNoData(t *testing.T) {
	defer telemetry.SetupForTesting(t, "services/studentscore")()
	service := NewService()

	result := service.Score(context.Background(), Request{StudentID: "s3", TotalWeeks: 20})
	require.Nil(t, result.AttendanceScore)
	require.Nil(t, result.StudyAverage)
	require.Nil(t, result.TotalScore)
}

func TestScoreUnconfiguredYear(t *testing.T) {
	defer telemetry.SetupForTesting(t, "services/studentscore")()
	service := NewService()

	// records exist but total_weeks is not configured: the score is
	// "no data", never zero
	result := service.Score(context.Background(), Request{
		StudentID: "s1",
		Records: []attendance.Record{
			{StudentID: "s1", EventDate: "2024-09-22", Status: "P"},
		},
		TotalWeeks: 0,
	})
	require.Equal(t, 1, result.WeeksWithSunday)
	require.Nil(t, result.AttendanceScore)
}

func TestValidateGrades(t *testing.T) {
	service := NewService()

	require.NoError(t, service.ValidateGrades(Grades{}))
	require.NoError(t, service.ValidateGrades(Grades{S1Test45: floatp(7.5)}))

	err := service.ValidateGrades(Grades{S2Exam: floatp(11)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "s2_exam")

	err = service.ValidateGrades(Grades{S1Exam: floatp(-1)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "s1_exam")
}
