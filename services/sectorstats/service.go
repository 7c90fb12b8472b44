// Package sectorstats aggregates raw sector/class/student/teacher rows
// into per-sector roll-up metrics for the program dashboard.
package sectorstats

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"tntt-backend/lib/attendance"
	"tntt-backend/lib/scoring"
	"tntt-backend/lib/sector"
	"tntt-backend/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var tracer = otel.Tracer("services/sectorstats")

type Service struct {
	src Sources
}

func NewService(src Sources) Service {
	return Service{src: src}
}

// SectorMetrics is one row of the final report. The averages are nil
// when no student contributed the corresponding metric.
type SectorMetrics struct {
	Sector        string   `json:"sector"`
	TotalClasses  int      `json:"total_classes"`
	TotalStudents int      `json:"total_students"`
	TotalTeachers int      `json:"total_teachers"`
	AttendanceAvg *float64 `json:"attendance_avg"`
	StudyAvg      *float64 `json:"study_avg"`
}

type Summary struct {
	Sectors  int `json:"sectors"`
	Classes  int `json:"classes"`
	Students int `json:"students"`
	Teachers int `json:"teachers"`
}

type Report struct {
	Summary       Summary         `json:"summary"`
	SectorMetrics []SectorMetrics `json:"sector_metrics"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// mutable roll-up state for one sector, alive for a single report call
type accumulator struct {
	totalClasses  int
	totalStudents int
	totalTeachers int

	attendanceSum   float64
	attendanceCount int
	studySum        float64
	studyCount      int
}

// SectorReport builds the sector roll-up for an academic year of
// totalWeeks weeks. It never fails: any upstream fetch that errors is
// logged and substituted with an empty result set, so the worst case is
// the four known sectors with zero data.
func (s Service) SectorReport(ctx context.Context, totalWeeks int) Report {
	ctx, span := tracer.Start(ctx, "SectorReport")
	defer span.End()

	rows := s.fetchAll(ctx)

	registry := sector.NewRegistry()
	accs := map[string]*accumulator{}
	// seed the known sectors so the dashboard always has its 4 rows,
	// even when every fetch came back empty
	for _, known := range sector.Known() {
		accs[known.Key] = &accumulator{}
	}

	sectorIDToKey := s.indexSectors(rows.sectors, registry, accs)
	classToSector := s.accumulateClasses(ctx, rows.classes, sectorIDToKey, registry, accs)
	weeklyCounts := attendance.DedupeWeekly(rows.attendance)
	s.accumulateStudents(rows.students, classToSector, weeklyCounts, totalWeeks, accs)
	s.accumulateTeachers(rows.teachers, classToSector, registry, accs)

	return s.finalize(rows, registry, accs)
}

type fetchedRows struct {
	sectors    []SectorRow
	classes    []ClassRow
	students   []StudentRow
	teachers   []TeacherRow
	attendance []attendance.Record
	summary    *ToplineCounts
}

// fetchAll runs every upstream fetch concurrently. The fetches are
// read-only and independent; each failure is recorded, logged and
// replaced by an empty result.
func (s Service) fetchAll(ctx context.Context) fetchedRows {
	ctx, span := tracer.Start(ctx, "fetchAll")
	defer span.End()

	recordFailure := func(table string, err error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "upstream fetch failed, continuing with empty rows", "table", table, "err", err)
	}

	var rows fetchedRows
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		fetched, err := s.src.Sectors.FetchSectors(ctx)
		if err != nil {
			recordFailure("sectors", err)
			return
		}
		rows.sectors = fetched
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		fetched, err := s.src.Classes.FetchClasses(ctx)
		if err != nil {
			recordFailure("classes", err)
			return
		}
		rows.classes = fetched
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		fetched, err := s.src.Students.FetchStudents(ctx)
		if err != nil {
			recordFailure("students", err)
			return
		}
		rows.students = fetched
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		fetched, err := s.src.Teachers.FetchTeachers(ctx)
		if err != nil {
			recordFailure("teachers", err)
			return
		}
		rows.teachers = fetched
	}()

	if s.src.Attendance != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetched, err := s.src.Attendance.FetchAttendance(ctx)
			if err != nil {
				recordFailure("attendance", err)
				return
			}
			rows.attendance = fetched
		}()
	}

	if s.src.Summary != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetched, err := s.src.Summary.FetchSummary(ctx)
			if err != nil {
				recordFailure("summary", err)
				return
			}
			rows.summary = &fetched
		}()
	}

	wg.Wait()
	return rows
}

// indexSectors maps the sectors table's numeric ids to canonical keys.
func (s Service) indexSectors(rows []SectorRow, registry *sector.Registry, accs map[string]*accumulator) map[string]string {
	idToKey := map[string]string{}
	for _, row := range rows {
		resolved := sector.Resolve(row.Code, row.Name)
		if resolved == nil {
			continue
		}
		merged := registry.Register(*resolved)
		ensure(accs, merged.Key)
		if row.ID != "" {
			idToKey[row.ID] = merged.Key
		}
	}
	return idToKey
}

// accumulateClasses resolves every class to a sector (by sector id
// first, then by the row's text fields), counts it, and records the
// class id to sector key mapping used to attribute students and teachers.
func (s Service) accumulateClasses(
	ctx context.Context,
	rows []ClassRow,
	sectorIDToKey map[string]string,
	registry *sector.Registry,
	accs map[string]*accumulator,
) map[string]string {
	classToSector := map[string]string{}

	for _, row := range rows {
		key, ok := sectorIDToKey[row.SectorID]
		if !ok {
			resolved := sector.Resolve(row.SectorName, row.Branch, row.Name, row.Code)
			if resolved == nil {
				// a data-quality gap, not an error
				slog.DebugContext(ctx, "class has no resolvable sector", "class", row.ID)
				continue
			}
			if resolved.IsAdHoc() {
				closest, similarity := sector.Closest(resolved.Label)
				slog.WarnContext(ctx, "class label matches no known sector",
					"class", row.ID,
					"label", resolved.Label,
					"closest", closest.Label,
					"similarity", similarity,
				)
			}
			merged := registry.Register(*resolved)
			key = merged.Key
		}

		ensure(accs, key).totalClasses++
		if row.ID != "" {
			classToSector[classKey(row.ID)] = key
		}
	}
	return classToSector
}

func (s Service) accumulateStudents(
	rows []StudentRow,
	classToSector map[string]string,
	weeklyCounts map[string]map[string]*attendance.WeeklySummary,
	totalWeeks int,
	accs map[string]*accumulator,
) {
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.Status), "deleted") {
			continue
		}
		key, ok := classToSector[classKey(row.ClassID)]
		if !ok {
			// students of unresolved classes are excluded everywhere
			continue
		}
		acc := ensure(accs, key)
		acc.totalStudents++

		// per-event weekly records beat the legacy counters
		var attendanceScore *float64
		if weeks, ok := weeklyCounts[row.ID]; ok {
			count := attendance.CountWeeks(weeks)
			attendanceScore = scoring.WeeklyAttendanceScore(
				count.WeeksWithThursday, count.WeeksWithSunday, totalWeeks)
		} else {
			attendanceScore = scoring.LegacyAttendanceScore(row.PresentCount, row.TotalSessions)
		}
		if attendanceScore != nil {
			acc.attendanceSum += *attendanceScore
			acc.attendanceCount++
		}

		// a student missing attendance data still contributes grades,
		// and vice versa
		studyAvg := scoring.CatechismAverage(row.S1Test45, row.S1Exam, row.S2Test45, row.S2Exam)
		if studyAvg != nil {
			acc.studySum += *studyAvg
			acc.studyCount++
		}
	}
}

func (s Service) accumulateTeachers(
	rows []TeacherRow,
	classToSector map[string]string,
	registry *sector.Registry,
	accs map[string]*accumulator,
) {
	counted := map[string]bool{}
	for _, row := range rows {
		// the same catechist may appear once per assignment path;
		// identity decides, not the path that resolved them
		if row.ID != "" && counted[row.ID] {
			continue
		}

		key, ok := classToSector[classKey(row.ClassID)]
		if !ok {
			resolved := sector.Resolve(row.SectorLabel)
			if resolved == nil {
				continue
			}
			merged := registry.Register(*resolved)
			key = merged.Key
		}

		ensure(accs, key).totalTeachers++
		if row.ID != "" {
			counted[row.ID] = true
		}
	}
}

func (s Service) finalize(rows fetchedRows, registry *sector.Registry, accs map[string]*accumulator) Report {
	metrics := make([]SectorMetrics, 0, len(accs))
	order := map[string]int{}
	for key, acc := range accs {
		meta, ok := registry.Get(key)
		if !ok {
			// every accumulator is created through ensure() after a
			// Register call or the known-sector seed, so this cannot
			// happen; guard anyway instead of emitting a blank row
			continue
		}
		metrics = append(metrics, SectorMetrics{
			Sector:        meta.Label,
			TotalClasses:  acc.totalClasses,
			TotalStudents: acc.totalStudents,
			TotalTeachers: acc.totalTeachers,
			AttendanceAvg: average(acc.attendanceSum, acc.attendanceCount),
			StudyAvg:      average(acc.studySum, acc.studyCount),
		})
		order[meta.Label] = meta.Order
	}

	collator := collate.New(language.Vietnamese)
	sortMetrics(metrics, order, collator)

	summary := Summary{}
	if rows.summary != nil {
		summary.Sectors = rows.summary.Sectors
		summary.Classes = rows.summary.Classes
		summary.Students = rows.summary.Students
		summary.Teachers = rows.summary.Teachers
	} else {
		summary.Sectors = len(metrics)
		for _, m := range metrics {
			summary.Classes += m.TotalClasses
			summary.Students += m.TotalStudents
			summary.Teachers += m.TotalTeachers
		}
	}

	return Report{
		Summary:       summary,
		SectorMetrics: metrics,
		GeneratedAt:   timezone.Now(),
	}
}

func sortMetrics(metrics []SectorMetrics, order map[string]int, collator *collate.Collator) {
	sort.Slice(metrics, func(i, j int) bool {
		oi, oj := order[metrics[i].Sector], order[metrics[j].Sector]
		if oi != oj {
			return oi < oj
		}
		return collator.CompareString(metrics[i].Sector, metrics[j].Sector) < 0
	})
}

func ensure(accs map[string]*accumulator, key string) *accumulator {
	acc, ok := accs[key]
	if !ok {
		acc = &accumulator{}
		accs[key] = acc
	}
	return acc
}

func average(sum float64, count int) *float64 {
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

// class ids coming from different tables disagree on case and padding
func classKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
