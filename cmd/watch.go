package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start each new day automatically, checking on an interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		interval := a.cfg.WatchInterval
		if d, _ := cmd.Flags().GetDuration("interval"); d > 0 {
			interval = d
		}
		ctx := cmd.Context()
		user := a.userID()
		a.log.Info("watching for new days", "user", user, "interval", interval)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if res := a.svc.CheckAndTransitionIfNewDay(ctx, user); res != nil {
				if res.Success {
					a.log.Info("new day started", "user", user, "date", res.Date,
						"modules", len(res.DailyAssignments), "minutes", res.TotalDuration)
				} else {
					a.log.Error("new day failed, will retry", "user", user, "error", res.Err)
				}
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	watchCmd.Flags().Duration("interval", 0, "Check interval (default from config, 1m)")
}
