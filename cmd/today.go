package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepday/internal/ui/theme"
)

var todayCmd = &cobra.Command{
	Use:     "today",
	Aliases: []string{"show"},
	Short:   "Show today's practice set, starting a new day if needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		noTransition, _ := cmd.Flags().GetBool("no-transition")
		return runToday(cmd, !noTransition)
	},
}

var newDayCmd = &cobra.Command{
	Use:   "new-day",
	Short: "Allocate a new set if the stored one is from an earlier day",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.svc.CheckAndTransitionIfNewDay(cmd.Context(), a.userID())
		out := cmd.OutOrStdout()
		if res == nil {
			lipgloss.Fprintln(out, theme.Subtitle.Render("Already on today's set."))
			return nil
		}
		printResult(out, res)
		if !res.Success {
			return res.Err
		}
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Replace today's set with a freshly drawn one",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.svc.GenerateDailyAssignments(cmd.Context(), a.userID())
		printResult(cmd.OutOrStdout(), res)
		if !res.Success {
			return res.Err
		}
		v, err := a.svc.Today(cmd.Context(), a.userID())
		if err != nil {
			return err
		}
		printToday(cmd.OutOrStdout(), v)
		return nil
	},
}

// runToday prints the current set, transitioning first when asked to.
func runToday(cmd *cobra.Command, transition bool) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if transition {
		if res := a.svc.CheckAndTransitionIfNewDay(ctx, a.userID()); res != nil {
			printResult(out, res)
			if !res.Success {
				return fmt.Errorf("start new day: %w", res.Err)
			}
		}
	}
	v, err := a.svc.Today(ctx, a.userID())
	if err != nil {
		return err
	}
	printToday(out, v)
	return nil
}

func init() {
	todayCmd.Flags().Bool("no-transition", false, "Show the stored set without starting a new day")
}
