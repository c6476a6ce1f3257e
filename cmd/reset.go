package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a user's assignments, history and stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if !yes {
			return fmt.Errorf("this deletes all data of user %q; rerun with --yes to confirm", a.userID())
		}
		if err := a.svc.Reset(cmd.Context(), a.userID()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset user %s.\n", a.userID())
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
