package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepday/internal/store"
	"github.com/abhisek/prepday/internal/ui/theme"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the allocation and completion log",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		kind, _ := cmd.Flags().GetString("kind")
		all, _ := cmd.Flags().GetBool("all-users")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.events == nil {
			return fmt.Errorf("the %s backend keeps no event log", a.cfg.Backend)
		}

		opts := store.QueryOpts{Limit: limit}
		if !all {
			opts.UserID = a.userID()
		}
		out := cmd.OutOrStdout()

		switch kind {
		case "allocations", "allocation", "a":
			events, err := a.events.QueryAllocations(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "No allocation events found.")
				return nil
			}
			rows := make([][]string, len(events))
			for i, e := range events {
				ok := "✓"
				if !e.Success {
					ok = "✗"
				}
				rows[i] = []string{
					strconv.FormatInt(e.Sequence, 10),
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.UserID, e.Date, e.Kind, ok,
					strconv.Itoa(e.TotalMinutes), e.Budget,
					strconv.Itoa(len(e.ModuleIDs)), strconv.Itoa(len(e.CarryOver)),
					truncate(e.Message, 40),
				}
			}
			lipgloss.Fprintln(out, theme.Table([]string{
				"Seq", "Timestamp", "User", "Date", "Trigger", "OK", "Min", "Budget", "Mods", "Carry", "Message",
			}, rows, nil))

		case "completions", "completion", "c":
			events, err := a.events.QueryCompletions(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "No completion events found.")
				return nil
			}
			rows := make([][]string, len(events))
			for i, e := range events {
				rows[i] = []string{
					strconv.FormatInt(e.Sequence, 10),
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.UserID, e.Date, e.ModuleID,
					theme.Check(e.Completed),
					strconv.Itoa(e.CompletedCount),
				}
			}
			lipgloss.Fprintln(out, theme.Table([]string{
				"Seq", "Timestamp", "User", "Date", "Module", "Done", "Count",
			}, rows, nil))

		default:
			return fmt.Errorf("unknown kind %q (want allocations or completions)", kind)
		}
		return nil
	},
}

var eventsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent events",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		if keep < 0 {
			return fmt.Errorf("--keep must not be negative")
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.events == nil {
			return fmt.Errorf("the %s backend keeps no event log", a.cfg.Backend)
		}

		n, err := a.events.Prune(cmd.Context(), keep)
		if err != nil {
			return fmt.Errorf("prune events: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d events.\n", n)
		return nil
	},
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func init() {
	eventsListCmd.Flags().Int("limit", 20, "Maximum number of events to show")
	eventsListCmd.Flags().String("kind", "allocations", "Event kind: allocations or completions")
	eventsListCmd.Flags().Bool("all-users", false, "Show events of every user")
	eventsPruneCmd.Flags().Int("keep", 1000, "Number of most recent events of each kind to keep")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsPruneCmd)
}
