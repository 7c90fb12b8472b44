package sectorstats

import (
	"context"

	"tntt-backend/lib/attendance"
)

// Raw rows as fetched from upstream tables. Callers may fetch wider
// rows; only the fields named here feed the report.

type SectorRow struct {
	// numeric or uuid identifier, kept as text
	ID   string
	Code string
	Name string
}

type ClassRow struct {
	ID string
	// reference into the sectors table, may be blank
	SectorID string
	// denormalized free-text fields, any of which may carry the sector
	SectorName string
	Branch     string
	Name       string
	Code       string
}

type StudentRow struct {
	ID      string
	ClassID string
	// soft-delete marker; "deleted" rows are skipped
	Status string

	// legacy attendance counters for sources without per-event rows
	PresentCount  *int
	TotalSessions *int

	// semester grade components, absent when ungraded
	S1Test45 *float64
	S1Exam   *float64
	S2Test45 *float64
	S2Exam   *float64
}

type TeacherRow struct {
	ID      string
	ClassID string
	// free-text sector assignment for catechists without a class
	SectorLabel string
	Role        string
}

// ToplineCounts is the result of the authoritative exact-count query.
type ToplineCounts struct {
	Sectors  int
	Classes  int
	Students int
	Teachers int
}

type SectorSource interface {
	FetchSectors(ctx context.Context) ([]SectorRow, error)
}

type ClassSource interface {
	FetchClasses(ctx context.Context) ([]ClassRow, error)
}

type StudentSource interface {
	FetchStudents(ctx context.Context) ([]StudentRow, error)
}

type TeacherSource interface {
	FetchTeachers(ctx context.Context) ([]TeacherRow, error)
}

type AttendanceSource interface {
	FetchAttendance(ctx context.Context) ([]attendance.Record, error)
}

type SummarySource interface {
	FetchSummary(ctx context.Context) (ToplineCounts, error)
}

// Sources bundles the upstream fetchers. Attendance and Summary are
// optional; the report degrades to legacy counters and locally tallied
// totals without them.
type Sources struct {
	Sectors    SectorSource
	Classes    ClassSource
	Students   StudentSource
	Teachers   TeacherSource
	Attendance AttendanceSource
	Summary    SummarySource
}
