package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tntt-backend/lib/testutil"
	"tntt-backend/services/sectorstats"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func seedTestData(t *testing.T, s Store, students int) {
	t.Helper()
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sectors (id, code, name) VALUES
			('1', 'CHIEN', 'Ngành Chiên'),
			('2', NULL, 'Ngành Thiếu');
		INSERT INTO classes (id, sector_id, sector_name, branch, name, code) VALUES
			('c1', '1', NULL, NULL, 'Chiên 1', NULL),
			('c2', NULL, 'Thiếu', NULL, 'Thiếu 2', NULL);
		INSERT INTO teachers (id, class_id, sector_label, role) VALUES
			('t1', 'c1', NULL, 'catechist'),
			('t2', NULL, 'Nghĩa', 'catechist');
		INSERT INTO attendance_events (student_id, event_date, weekday_label, status) VALUES
			('s0', '2024-09-22', 'Chủ Nhật', 'có'),
			('s0', '2024-09-19', NULL, 'P');
	`)
	require.NoError(t, err)

	insert, err := s.db.PrepareContext(ctx, `
		INSERT INTO students (id, class_id, status, present_count, total_sessions,
		                      s1_test45, s1_exam, s2_test45, s2_exam)
		VALUES (?, ?, NULL, 15, 20, 8, 7, NULL, NULL)`)
	require.NoError(t, err)
	defer insert.Close()
	for i := 0; i < students; i++ {
		_, err := insert.ExecContext(ctx, studentID(i), "c1")
		require.NoError(t, err)
	}
}

func studentID(i int) string {
	// zero-padded so ORDER BY id pages deterministically
	return fmt.Sprintf("s%06d", i)
}

func TestStoreFetches(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/sectorstats/store",
		DbSchema: Schema,
	})
	defer cleanup()
	s := NewStore(setup.DB)
	seedTestData(t, s, 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	sectors, err := s.FetchSectors(ctx)
	require.NoError(t, err)
	require.Len(t, sectors, 2)
	require.Equal(t, "CHIEN", sectors[0].Code)
	require.Equal(t, "", sectors[1].Code) // NULL scans to empty

	classes, err := s.FetchClasses(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 2)
	require.Equal(t, "1", classes[0].SectorID)
	require.Equal(t, "Thiếu", classes[1].SectorName)

	students, err := s.FetchStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 3)
	require.NotNil(t, students[0].PresentCount)
	require.Equal(t, 15, *students[0].PresentCount)
	require.NotNil(t, students[0].S1Exam)
	require.Nil(t, students[0].S2Test45)

	teachers, err := s.FetchTeachers(ctx)
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	require.Equal(t, "Nghĩa", teachers[1].SectorLabel)

	events, err := s.FetchAttendance(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "Chủ Nhật", events[0].WeekdayLabel)

	counts, err := s.FetchSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, sectorstats.ToplineCounts{
		Sectors:  2,
		Classes:  2,
		Students: 3,
		Teachers: 2,
	}, counts)
}

func TestStorePaginationIsExhaustive(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/sectorstats/store",
		DbSchema: Schema,
	})
	defer cleanup()
	s := NewStore(setup.DB)

	// enough rows to require multiple pages, not aligned to a boundary
	total := pageSize*2 + 17
	seedTestData(t, s, total)

	students, err := s.FetchStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, total)

	// all distinct, nothing double-fetched at page boundaries
	seen := map[string]bool{}
	for _, row := range students {
		require.False(t, seen[row.ID], "duplicate row %s", row.ID)
		seen[row.ID] = true
	}
}

func TestStoreEndToEndReport(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/sectorstats/store",
		DbSchema: Schema,
	})
	defer cleanup()
	s := NewStore(setup.DB)
	seedTestData(t, s, 3)

	service := sectorstats.NewService(s.Sources())
	report := service.SectorReport(context.Background(), 20)

	require.GreaterOrEqual(t, len(report.SectorMetrics), 4)
	// authoritative counts from the summary query
	require.Equal(t, 2, report.Summary.Classes)
	require.Equal(t, 3, report.Summary.Students)
	require.Equal(t, 2, report.Summary.Teachers)
}
