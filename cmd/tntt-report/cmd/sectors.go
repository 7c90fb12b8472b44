package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"tntt-backend/lib/telemetry"
	"tntt-backend/services/sectorstats"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var weeksFlag int
var watchFlag time.Duration

func init() {
	sectorsCmd.Flags().IntVar(&weeksFlag, "weeks", 0,
		"academic-year length in weeks (overrides the config)")
	sectorsCmd.Flags().DurationVar(&watchFlag, "watch", 0,
		"re-render the report on this interval, e.g. 30s")
	rootCmd.AddCommand(sectorsCmd)
}

var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "Prints the per-sector attendance and study roll-up.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s := openStore()
		service := sectorstats.NewService(s.Sources())

		totalWeeks := config.TotalWeeks
		if weeksFlag > 0 {
			totalWeeks = weeksFlag
		}

		if watchFlag <= 0 {
			renderReport(service.SectorReport(ctx, totalWeeks))
			return
		}

		tel, err := telemetry.SetupFromEnv(ctx, "tntt-report")
		if err == nil {
			defer tel.Shutdown(context.Background())
			telemetry.InstrumentPerfStats(ctx)
		}
		for {
			renderReport(service.SectorReport(ctx, totalWeeks))
			select {
			case <-time.After(watchFlag):
			case <-ctx.Done():
				return
			}
		}
	},
}

func renderReport(report sectorstats.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{
		"Sector", "Classes", "Students", "Teachers", "Attendance Avg", "Study Avg",
	})
	for _, m := range report.SectorMetrics {
		t.AppendRow(table.Row{
			m.Sector,
			m.TotalClasses,
			m.TotalStudents,
			m.TotalTeachers,
			formatAvg(m.AttendanceAvg),
			formatAvg(m.StudyAvg),
		})
	}
	t.AppendFooter(table.Row{
		"Total",
		report.Summary.Classes,
		report.Summary.Students,
		report.Summary.Teachers,
		"", "",
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
	fmt.Printf("generated at %s\n", report.GeneratedAt.Format(time.RFC1123))
}

// an undefined average renders as "no data", never as 0
func formatAvg(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *v)
}
