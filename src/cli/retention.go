package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"gce-backup/src/backup/retention"
	"gce-backup/src/computeapi"
	"gce-backup/src/snapindex"
)

func newRetentionCmd(stdout io.Writer, client computeapi.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "apply-retention-policy",
		Short: "Delete redundant snapshots per the age-tiered retention rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}
			log, flush, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer flush()

			ctx := cmd.Context()
			gw, err := gatewayClient(cmd, client, cfg.KeyFile)
			if err != nil {
				return err
			}
			snapshots, err := gw.ListSnapshots(ctx, cfg.Project)
			if err != nil {
				return err
			}

			fmt.Fprintln(stdout, "Applying retention policy per disk")
			plan := retention.Plan(snapindex.ByDiskAndDate(snapshots), retention.Options{
				DailyWindowDays:  cfg.DailyWindowDays,
				WeeklyWindowDays: cfg.WeeklyWindowDays,
				Today:            time.Now(),
			})
			if len(plan) == 0 {
				fmt.Fprintln(stdout, "Nothing to delete")
				return nil
			}

			fmt.Fprintf(stdout, "Found %d snapshots to delete\n", len(plan))
			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DISK\tSNAPSHOT\tCREATED\tWINDOW\tACTION")
			for _, c := range plan {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\tdelete\n",
					c.Disk, c.Snapshot.Name, c.Snapshot.CreationTimestamp, c.Window)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if dry, _ := cmd.Root().PersistentFlags().GetBool("dry-run"); dry {
				return nil
			}
			return retention.Apply(ctx, gw, log, cfg.Project, plan)
		},
	}
}
