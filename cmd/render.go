package cmd

import (
	"fmt"
	"io"
	"strconv"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepday/internal/daily"
	"github.com/abhisek/prepday/internal/planner"
	"github.com/abhisek/prepday/internal/ui/theme"
)

// printResult prints the outcome of an allocation.
func printResult(w io.Writer, res *daily.Result) {
	if !res.Success {
		lipgloss.Fprintln(w, theme.Failure.Render(res.Message))
		if res.Err != nil {
			lipgloss.Fprintln(w, theme.Hint.Render(res.Err.Error()))
		}
		return
	}
	lipgloss.Fprintln(w, theme.Done.Render(res.Message))
	if len(res.CarryOver) > 0 {
		lipgloss.Fprintln(w, theme.Subtitle.Render(fmt.Sprintf("Carried over: %d unfinished modules", len(res.CarryOver))))
	}
	if res.Budget != planner.InBand {
		for _, d := range res.Diagnostics {
			lipgloss.Fprintln(w, theme.Warning.Render("! "+d))
		}
	}
}

// printToday renders the current set as a table.
func printToday(w io.Writer, v *daily.TodayView) {
	if len(v.Items) == 0 {
		lipgloss.Fprintln(w, theme.Hint.Render("No modules assigned yet. Run `prepday new-day`."))
		return
	}
	title := fmt.Sprintf("Practice set for %s", v.Date)
	lipgloss.Fprintln(w, theme.Title.Render(title))
	if v.Stale {
		lipgloss.Fprintln(w, theme.Warning.Render(fmt.Sprintf("This set is from %s; today is %s.", v.Date, v.Today)))
	}

	rows := make([][]string, 0, len(v.Items))
	for i, it := range v.Items {
		part, cat, mins := "?", "?", "?"
		if it.Known {
			part = it.Module.Group.String()
			cat = it.Module.Category.DisplayName()
			mins = strconv.Itoa(it.Module.Duration)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			theme.Check(it.IsCompleted),
			it.ModuleID,
			part,
			cat,
			mins,
			strconv.Itoa(it.CompletedCount),
		})
	}
	lipgloss.Fprintln(w, theme.Table(
		[]string{"#", "Done", "Module", "Part", "Skill", "Min", "Total"}, rows, nil))
	lipgloss.Fprintln(w, theme.Subtitle.Render(fmt.Sprintf("%d/%d done · %d/%d minutes",
		v.Completed, len(v.Items), v.CompletedMinutes, v.TotalMinutes)))
}
