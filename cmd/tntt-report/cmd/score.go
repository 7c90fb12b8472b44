package cmd

import (
	"fmt"
	"os"

	"tntt-backend/services/studentscore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scoreWeeks int
var scorePresent, scoreTotal int
var s1Test45, s1Exam, s2Test45, s2Exam float64

func init() {
	scoreCmd.Flags().IntVar(&scoreWeeks, "weeks", 0, "academic-year length in weeks")
	scoreCmd.Flags().IntVar(&scorePresent, "present", -1, "sessions attended")
	scoreCmd.Flags().IntVar(&scoreTotal, "total", -1, "sessions held")
	scoreCmd.Flags().Float64Var(&s1Test45, "s1-test45", -1, "semester 1 45-minute test")
	scoreCmd.Flags().Float64Var(&s1Exam, "s1-exam", -1, "semester 1 exam")
	scoreCmd.Flags().Float64Var(&s2Test45, "s2-test45", -1, "semester 2 45-minute test")
	scoreCmd.Flags().Float64Var(&s2Exam, "s2-exam", -1, "semester 2 exam")
	rootCmd.AddCommand(scoreCmd)
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Computes a single student's scores from counters and grades.",
	Run: func(cmd *cobra.Command, args []string) {
		service := studentscore.NewService()

		grades := studentscore.Grades{
			S1Test45: flagValue(s1Test45),
			S1Exam:   flagValue(s1Exam),
			S2Test45: flagValue(s2Test45),
			S2Exam:   flagValue(s2Exam),
		}
		if err := service.ValidateGrades(grades); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		req := studentscore.Request{
			Grades:     grades,
			TotalWeeks: scoreWeeks,
		}
		if scorePresent >= 0 && scoreTotal >= 0 {
			req.PresentCount = &scorePresent
			req.TotalSessions = &scoreTotal
		}

		result := service.Score(cmd.Context(), req)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Attendance", "Study Avg", "Total"})
		t.AppendRow(table.Row{
			formatAvg(result.AttendanceScore),
			formatAvg(result.StudyAverage),
			formatAvg(result.TotalScore),
		})
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

// grade flags use -1 as "not provided"; a provided grade is validated
// before it is used
func flagValue(v float64) *float64 {
	if v < 0 {
		return nil
	}
	return &v
}
