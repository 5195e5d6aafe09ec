package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gce-backup/src/computeapi"
	"gce-backup/src/snapindex"
)

func newInstancesCmd(stdout io.Writer, client computeapi.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "instances",
		Short: "Report each instance's backup label and last backup time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			gw, err := gatewayClient(cmd, client, cfg.KeyFile)
			if err != nil {
				return err
			}
			instances, err := gw.ListInstances(ctx, cfg.Project, cfg.Zone)
			if err != nil {
				return err
			}
			snapshots, err := gw.ListSnapshots(ctx, cfg.Project)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "INSTANCE\tZONE\tBACKUP\tLAST BACKUP")
			for _, inst := range instances {
				last := "Never"
				if snaps := snapindex.ForDisk(snapshots, inst.BootDisk); len(snaps) > 0 {
					latest, err := snapindex.Latest(snaps)
					if err != nil {
						return err
					}
					last = latest.CreationTimestamp
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", inst.Name, inst.Zone, inst.BackupEnabled, last)
			}
			return tw.Flush()
		},
	}
}
