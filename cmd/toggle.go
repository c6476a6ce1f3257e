package cmd

import (
	"fmt"
	"regexp"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/ui/theme"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle MODULE...",
	Short: "Mark modules done or not done",
	Long: "Flip the completion of modules in today's set. Modules are given by id " +
		`("Part 1 01") or as PART-SEQ ("1-01", "7.2").`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		for _, arg := range args {
			id := parseModuleArg(arg)
			res, err := a.svc.ToggleCompletion(cmd.Context(), a.userID(), id)
			if err != nil {
				return err
			}
			state := theme.Pending.Render("not done")
			if res.Completed {
				state = theme.Done.Render("done")
			}
			lipgloss.Fprintln(out, fmt.Sprintf("%s %s: %s (completed %d times)",
				theme.Check(res.Completed), res.ModuleID, state, res.CompletedCount))
		}
		return nil
	},
}

var shortModule = regexp.MustCompile(`^\s*(?:[Pp](?:art)?\s*)?(\d)\s*[-.:/ ]\s*(\d{1,2})\s*$`)

// parseModuleArg expands PART-SEQ shorthands to module ids. Anything else
// is returned unchanged.
func parseModuleArg(s string) string {
	m := shortModule.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	g, _ := strconv.Atoi(m[1])
	seq, _ := strconv.Atoi(m[2])
	return catalog.ModuleID(catalog.Group(g), seq)
}
