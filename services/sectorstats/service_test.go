package sectorstats

import (
	"context"
	"fmt"
	"testing"

	"tntt-backend/lib/attendance"
	"tntt-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type fakeSources struct {
	sectors    []SectorRow
	classes    []ClassRow
	students   []StudentRow
	teachers   []TeacherRow
	attendance []attendance.Record
	summary    *ToplineCounts

	failSectors  bool
	failClasses  bool
	failStudents bool
	failTeachers bool
	failSummary  bool
}

func (f *fakeSources) FetchSectors(ctx context.Context) ([]SectorRow, error) {
	if f.failSectors {
		return nil, fmt.Errorf("sectors: permission denied")
	}
	return f.sectors, nil
}

func (f *fakeSources) FetchClasses(ctx context.Context) ([]ClassRow, error) {
	if f.failClasses {
		return nil, fmt.Errorf("classes: relation does not exist")
	}
	return f.classes, nil
}

func (f *fakeSources) FetchStudents(ctx context.Context) ([]StudentRow, error) {
	if f.failStudents {
		return nil, fmt.Errorf("students: connection reset")
	}
	return f.students, nil
}

func (f *fakeSources) FetchTeachers(ctx context.Context) ([]TeacherRow, error) {
	if f.failTeachers {
		return nil, fmt.Errorf("teachers: timeout")
	}
	return f.teachers, nil
}

func (f *fakeSources) FetchAttendance(ctx context.Context) ([]attendance.Record, error) {
	return f.attendance, nil
}

func (f *fakeSources) FetchSummary(ctx context.Context) (ToplineCounts, error) {
	if f.failSummary || f.summary == nil {
		return ToplineCounts{}, fmt.Errorf("summary: rpc unavailable")
	}
	return *f.summary, nil
}

func (f *fakeSources) sources() Sources {
	return Sources{
		Sectors:    f,
		Classes:    f,
		Students:   f,
		Teachers:   f,
		Attendance: f,
		Summary:    f,
	}
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func testData() *fakeSources {
	return &fakeSources{
		sectors: []SectorRow{
			{ID: "1", Code: "CHIEN", Name: "Ngành Chiên"},
			{ID: "2", Code: "", Name: "Ngành Ấu"},
		},
		classes: []ClassRow{
			{ID: "c1", SectorID: "1", Name: "Chiên 1"},
			{ID: "c2", SectorID: "", SectorName: "Ấu", Name: "Ấu 2"},
			// resolvable only through the denormalized class name
			{ID: "c3", Name: "Lớp Nghĩa Sĩ 3"},
			// unresolvable, excluded from every total
			{ID: "c4"},
		},
		students: []StudentRow{
			// weekly records exist for s1 (see attendance below)
			{ID: "s1", ClassID: "c1", S1Test45: floatp(8), S1Exam: floatp(7)},
			// legacy counters only
			{ID: "s2", ClassID: "c2", PresentCount: intp(15), TotalSessions: intp(20)},
			// soft-deleted, skipped
			{ID: "s3", ClassID: "c1", Status: "DELETED"},
			// class id casing and padding must not matter
			{ID: "s4", ClassID: " C2 ", S2Exam: floatp(9)},
			// unknown class, excluded everywhere
			{ID: "s5", ClassID: "c4", S1Test45: floatp(10)},
			{ID: "s6", ClassID: "ghost", S1Test45: floatp(10)},
		},
		teachers: []TeacherRow{
			{ID: "t1", ClassID: "c1"},
			// same catechist through a second path, must not double count
			{ID: "t1", SectorLabel: "Chiên"},
			{ID: "t2", SectorLabel: "Thiếu"},
			// unresolvable, silently excluded
			{ID: "t3"},
		},
		attendance: []attendance.Record{
			{StudentID: "s1", EventDate: "2024-09-19", Status: "có"},  // thursday W38
			{StudentID: "s1", EventDate: "2024-09-22", Status: "P"},   // sunday W38
			{StudentID: "s1", EventDate: "2024-09-22", Status: "P"},   // duplicate
			{StudentID: "s1", EventDate: "2024-09-29", Status: "yes"}, // sunday W39
		},
	}
}

func metricByLabel(t *testing.T, report Report, label string) SectorMetrics {
	t.Helper()
	for _, m := range report.SectorMetrics {
		if m.Sector == label {
			return m
		}
	}
	t.Fatalf("no sector %q in report: %+v", label, report.SectorMetrics)
	return SectorMetrics{}
}

func TestSectorReport(t *testing.T) {
	defer telemetry.SetupForTesting(t, "services/sectorstats")()

	service := NewService(testData().sources())
	report := service.SectorReport(context.Background(), 20)

	// known sectors first, display order, ad-hoc tail after
	require.GreaterOrEqual(t, len(report.SectorMetrics), 4)
	require.Equal(t, "Chiên", report.SectorMetrics[0].Sector)
	require.Equal(t, "Ấu", report.SectorMetrics[1].Sector)
	require.Equal(t, "Thiếu", report.SectorMetrics[2].Sector)
	require.Equal(t, "Nghĩa", report.SectorMetrics[3].Sector)

	chien := metricByLabel(t, report, "Chiên")
	require.Equal(t, 1, chien.TotalClasses)
	require.Equal(t, 1, chien.TotalStudents) // s3 is soft-deleted
	require.Equal(t, 1, chien.TotalTeachers) // t1 counted once
	// s1: 1 thursday week, 2 sunday weeks -> (0.4 + 1.2) * 0.5 = 0.8
	require.NotNil(t, chien.AttendanceAvg)
	require.InDelta(t, 0.8, *chien.AttendanceAvg, 1e-9)
	// s1 grades: (8 + 0 + 14 + 0)/6 = 3.67
	require.NotNil(t, chien.StudyAvg)
	require.InDelta(t, 3.67, *chien.StudyAvg, 1e-9)

	au := metricByLabel(t, report, "Ấu")
	require.Equal(t, 1, au.TotalClasses)
	require.Equal(t, 2, au.TotalStudents) // s2 plus the " C2 " student
	// s2 legacy: 15/20*10 = 7.5; s4 has no attendance data
	require.NotNil(t, au.AttendanceAvg)
	require.InDelta(t, 7.5, *au.AttendanceAvg, 1e-9)
	// s4: (0 + 0 + 0 + 18)/6 = 3.0
	require.NotNil(t, au.StudyAvg)
	require.InDelta(t, 3.0, *au.StudyAvg, 1e-9)

	nghia := metricByLabel(t, report, "Nghĩa")
	require.Equal(t, 1, nghia.TotalClasses)
	require.Nil(t, nghia.AttendanceAvg)
	require.Nil(t, nghia.StudyAvg)

	thieu := metricByLabel(t, report, "Thiếu")
	require.Equal(t, 0, thieu.TotalClasses)
	require.Equal(t, 1, thieu.TotalTeachers)

	// no summary rpc -> locally aggregated counts
	require.Equal(t, 3, report.Summary.Classes)
	require.Equal(t, 3, report.Summary.Students)
	require.Equal(t, 2, report.Summary.Teachers)
	require.False(t, report.GeneratedAt.IsZero())
}

func TestSectorReportSummaryPreferred(t *testing.T) {
	defer telemetry.SetupForTesting(t, "services/sectorstats")()

	data := testData()
	data.summary = &ToplineCounts{Sectors: 4, Classes: 40, Students: 900, Teachers: 80}
	service := NewService(data.sources())
	report := service.SectorReport(context.Background(), 20)

	require.Equal(t, 4, report.Summary.Sectors)
	require.Equal(t, 40, report.Summary.Classes)
	require.Equal(t, 900, report.Summary.Students)
	require.Equal(t, 80, report.Summary.Teachers)
}

func TestSectorReportDegradesOnFetchFailure(t *testing.T) {
	defer telemetry.SetupForTesting(t, "services/sectorstats")()

	// the classes table erroring must not abort the report: the four
	// seeded sectors come back with zero classes
	data := testData()
	data.failClasses = true
	service := NewService(data.sources())
	report := service.SectorReport(context.Background(), 20)

	require.Len(t, report.SectorMetrics, 4)
	for _, m := range report.SectorMetrics {
		require.Equal(t, 0, m.TotalClasses, "sector %s", m.Sector)
		// no class mapping means no student attribution either
		require.Equal(t, 0, m.TotalStudents, "sector %s", m.Sector)
	}
}

func TestSectorReportAllFetchesFail(t *testing.T) {
	defer telemetry.SetupForTesting(t, "services/sectorstats")()

	data := &fakeSources{
		failSectors:  true,
		failClasses:  true,
		failStudents: true,
		failTeachers: true,
		failSummary:  true,
	}
	service := NewService(data.sources())
	report := service.SectorReport(context.Background(), 20)

	require.Len(t, report.SectorMetrics, 4)
	require.Equal(t, Summary{Sectors: 4}, report.Summary)
	for _, m := range report.SectorMetrics {
		require.Equal(t, SectorMetrics{Sector: m.Sector}, m)
	}
}
