package cmd

import (
	"fmt"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/ui/theme"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List practice modules (optionally filtered by part or skill)",
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetInt("part")
		catFlag, _ := cmd.Flags().GetString("category")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cat := catalog.Default()
		if cfg.Catalog != "" {
			if cat, err = catalog.LoadFile(cfg.Catalog); err != nil {
				return err
			}
		}

		var mods []catalog.Module
		switch {
		case group != 0 && catFlag != "":
			return fmt.Errorf("use --part or --category, not both")
		case group != 0:
			mods = cat.ByGroup(catalog.Group(group))
			if len(mods) == 0 {
				return fmt.Errorf("no modules found for part %d", group)
			}
		case catFlag != "":
			c, err := catalog.ParseCategory(catFlag)
			if err != nil {
				return err
			}
			mods = cat.ByCategory(c)
		default:
			mods = cat.All()
		}

		rows := make([][]string, len(mods))
		total := 0
		for i, m := range mods {
			rows[i] = []string{m.ID, m.Group.String(), m.Category.DisplayName(), strconv.Itoa(m.Duration)}
			total += m.Duration
		}
		out := cmd.OutOrStdout()
		lipgloss.Fprintln(out, theme.Table([]string{"Module", "Part", "Skill", "Min"}, rows, nil))
		lipgloss.Fprintln(out, theme.Subtitle.Render(fmt.Sprintf("%d modules · %d minutes", len(mods), total)))
		return nil
	},
}

func init() {
	catalogCmd.Flags().Int("part", 0, "Filter by part (1-7)")
	catalogCmd.Flags().String("category", "", "Filter by skill (listening or reading)")
}
