// Package store is the sqlite/libsql-backed implementation of the
// sectorstats row sources.
package store

import (
	"context"
	"database/sql"
	"log/slog"

	"tntt-backend/lib/attendance"
	"tntt-backend/services/sectorstats"
)

// student and attendance tables run into the thousands of rows; those
// two are read page by page
const pageSize = 500

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Sources exposes the store as the aggregation pipeline's inputs.
func (s Store) Sources() sectorstats.Sources {
	return sectorstats.Sources{
		Sectors:    s,
		Classes:    s,
		Students:   s,
		Teachers:   s,
		Attendance: s,
		Summary:    s,
	}
}

func (s Store) FetchSectors(ctx context.Context) ([]sectorstats.SectorRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name FROM sectors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sectorstats.SectorRow
	for rows.Next() {
		var r sectorstats.SectorRow
		var code, name sql.NullString
		if err := rows.Scan(&r.ID, &code, &name); err != nil {
			return nil, err
		}
		r.Code = code.String
		r.Name = name.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s Store) FetchClasses(ctx context.Context) ([]sectorstats.ClassRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sector_id, sector_name, branch, name, code FROM classes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sectorstats.ClassRow
	for rows.Next() {
		var r sectorstats.ClassRow
		var sectorID, sectorName, branch, name, code sql.NullString
		if err := rows.Scan(&r.ID, &sectorID, &sectorName, &branch, &name, &code); err != nil {
			return nil, err
		}
		r.SectorID = sectorID.String
		r.SectorName = sectorName.String
		r.Branch = branch.String
		r.Name = name.String
		r.Code = code.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// FetchStudents pages through the students table until a short page.
// A paging error truncates the result set instead of failing the fetch;
// the pipeline prefers a partial report over none.
func (s Store) FetchStudents(ctx context.Context) ([]sectorstats.StudentRow, error) {
	var out []sectorstats.StudentRow
	for offset := 0; ; offset += pageSize {
		page, err := s.fetchStudentPage(ctx, offset)
		out = append(out, page...)
		if err != nil {
			slog.WarnContext(ctx, "student paging failed, truncating result set",
				"offset", offset, "rows", len(out), "err", err)
			return out, nil
		}
		if len(page) < pageSize {
			return out, nil
		}
	}
}

func (s Store) fetchStudentPage(ctx context.Context, offset int) ([]sectorstats.StudentRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, class_id, status,
		       present_count, total_sessions,
		       s1_test45, s1_exam, s2_test45, s2_exam
		FROM students ORDER BY id LIMIT ? OFFSET ?`,
		pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sectorstats.StudentRow
	for rows.Next() {
		var r sectorstats.StudentRow
		var classID, status sql.NullString
		var present, total sql.NullInt64
		var s1t, s1e, s2t, s2e sql.NullFloat64
		err := rows.Scan(&r.ID, &classID, &status, &present, &total, &s1t, &s1e, &s2t, &s2e)
		if err != nil {
			return out, err
		}
		r.ClassID = classID.String
		r.Status = status.String
		r.PresentCount = nullableInt(present)
		r.TotalSessions = nullableInt(total)
		r.S1Test45 = nullableFloat(s1t)
		r.S1Exam = nullableFloat(s1e)
		r.S2Test45 = nullableFloat(s2t)
		r.S2Exam = nullableFloat(s2e)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s Store) FetchTeachers(ctx context.Context) ([]sectorstats.TeacherRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, class_id, sector_label, role FROM teachers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sectorstats.TeacherRow
	for rows.Next() {
		var r sectorstats.TeacherRow
		var classID, label, role sql.NullString
		if err := rows.Scan(&r.ID, &classID, &label, &role); err != nil {
			return nil, err
		}
		r.ClassID = classID.String
		r.SectorLabel = label.String
		r.Role = role.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// FetchAttendance pages like FetchStudents, with the same truncating
// error behavior.
func (s Store) FetchAttendance(ctx context.Context) ([]attendance.Record, error) {
	var out []attendance.Record
	for offset := 0; ; offset += pageSize {
		page, err := s.fetchAttendancePage(ctx, offset)
		out = append(out, page...)
		if err != nil {
			slog.WarnContext(ctx, "attendance paging failed, truncating result set",
				"offset", offset, "rows", len(out), "err", err)
			return out, nil
		}
		if len(page) < pageSize {
			return out, nil
		}
	}
}

func (s Store) fetchAttendancePage(ctx context.Context, offset int) ([]attendance.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id, event_date, weekday_label, status
		FROM attendance_events ORDER BY id LIMIT ? OFFSET ?`,
		pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []attendance.Record
	for rows.Next() {
		var r attendance.Record
		var label, status sql.NullString
		if err := rows.Scan(&r.StudentID, &r.EventDate, &label, &status); err != nil {
			return out, err
		}
		r.WeekdayLabel = label.String
		r.Status = status.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// FetchSummary runs the authoritative exact-count query.
func (s Store) FetchSummary(ctx context.Context) (sectorstats.ToplineCounts, error) {
	var counts sectorstats.ToplineCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sectors),
			(SELECT COUNT(*) FROM classes),
			(SELECT COUNT(*) FROM students WHERE LOWER(COALESCE(status, '')) != 'deleted'),
			(SELECT COUNT(*) FROM teachers)`,
	).Scan(&counts.Sectors, &counts.Classes, &counts.Students, &counts.Teachers)
	if err != nil {
		return sectorstats.ToplineCounts{}, err
	}
	return counts, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
