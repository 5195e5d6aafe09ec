package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"gce-backup/src/backup/schedule"
	"gce-backup/src/computeapi"
)

func newSnapshotCmd(stdout io.Writer, client computeapi.Client) *cobra.Command {
	var (
		name        string
		forceCreate bool
		forceSkip   bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Create snapshots for backup-enabled instances and wait for completion",
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

			dryRun, _ := cmd.Root().PersistentFlags().GetBool("dry-run")
			sched := schedule.New(gw, log, schedule.Options{
				Project:        cfg.Project,
				Zone:           cfg.Zone,
				NameOverride:   name,
				ForceCreate:    forceCreate,
				ForceSkip:      forceSkip,
				PollInterval:   time.Duration(cfg.PollInterval),
				Scope:          cfg.LastBackupScope,
				FailOnAnyError: cfg.FailOnAnyError,
				DryRun:         dryRun,
			})
			results, runErr := sched.Run(ctx)

			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "INSTANCE\tSTATE\tSNAPSHOT")
			for _, r := range results {
				snap := r.Snapshot
				if snap == "" {
					snap = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Instance.Name, r.State, snap)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			fmt.Fprintln(stdout, "All backup tasks finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Snapshot name override (default <disk>-<timestamp>)")
	cmd.Flags().BoolVar(&forceCreate, "force-create", false, "Create even if a snapshot was already taken today")
	cmd.Flags().BoolVar(&forceSkip, "force-skip", false, "Skip creation regardless of snapshot history")
	return cmd
}
