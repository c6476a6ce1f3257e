package cmd

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/progress"
	"github.com/abhisek/prepday/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lifetime practice history",
	RunE: func(cmd *cobra.Command, args []string) error {
		sortFlag, _ := cmd.Flags().GetString("sort")
		catFlag, _ := cmd.Flags().GetString("category")

		sortKey, err := progress.ParseSort(sortFlag)
		if err != nil {
			return err
		}
		var cat catalog.Category
		if catFlag != "" {
			if cat, err = catalog.ParseCategory(catFlag); err != nil {
				return err
			}
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.svc.State(cmd.Context(), a.userID())
		if err != nil {
			return err
		}
		r := progress.Build(a.catalog, st, a.svc.Policy(), progress.Options{
			Sort:     sortKey,
			Category: cat,
			Today:    a.svc.Clock().Today(),
		})

		out := cmd.OutOrStdout()
		lipgloss.Fprintln(out, theme.Title.Render("Practice history"))

		rows := make([][]string, len(r.Rows))
		for i, row := range r.Rows {
			last := "never"
			if row.LastCompletedDate != "" {
				last = fmt.Sprintf("%s (%dd ago)", row.LastCompletedDate, row.DaysSince)
			}
			rows[i] = []string{
				row.Module.ID,
				row.Module.Category.DisplayName(),
				strconv.Itoa(row.Module.Duration),
				fmt.Sprintf("%d/%d", row.CompletedCount, row.Cap),
				last,
			}
		}
		lipgloss.Fprintln(out, theme.Table(
			[]string{"Module", "Skill", "Min", "Done", "Last"}, rows,
			func(row, col int) lipgloss.Style {
				if col == 3 && row >= 0 && row < len(r.Rows) {
					return theme.Level(int(r.Rows[row].Level))
				}
				return theme.Body
			}))

		for _, c := range catalog.Categories {
			t := r.Totals[c]
			lipgloss.Fprintln(out, theme.Subtitle.Render(fmt.Sprintf(
				"%-9s %4d completions · %.1f avg over %d modules · %d at cap",
				c.DisplayName()+":", t.Completions, t.Average, t.Tracked, t.Capped)))
		}
		lipgloss.Fprintln(out, theme.Subtitle.Render(fmt.Sprintf("Total:    %4d completions", r.Completions)))
		return nil
	},
}

func init() {
	statsCmd.Flags().String("sort", "group", "Sort by group, count or recent")
	statsCmd.Flags().String("category", "", "Only show listening or reading modules")
}
