package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gce-backup/src/computeapi"
	"gce-backup/src/logging"
)

// NewRootCmd returns the root cobra command for the gce-backup CLI.
// A non-nil client replaces the real compute gateway; tests pass a
// computeapi.FakeClient here.
func NewRootCmd(stdout, stderr io.Writer, client computeapi.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gce-backup",
		Short:         "Schedule disk snapshots and enforce retention for compute instances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	cmd.AddCommand(newInstancesCmd(stdout, client))
	cmd.AddCommand(newSnapshotCmd(stdout, client))
	cmd.AddCommand(newRetentionCmd(stdout, client))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

// Execute runs the CLI with the process stdio. Interrupts cancel the command
// context so in-flight polling loops stop promptly.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(os.Stdout, os.Stderr, nil)
	if err := root.ExecuteContext(ctx); err != nil {
		// An interrupt already aborted the run; exit without further noise.
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// newLogger builds the run's logger from the --log-level flag. Callers must
// invoke the returned flush when the run ends, error or not.
func newLogger(cmd *cobra.Command) (*zap.Logger, func(), error) {
	level, _ := cmd.Root().PersistentFlags().GetString("log-level")
	log, err := logging.New(level)
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// gatewayClient returns the injected client, an empty in-memory gateway when
// --fake is set, or a connection to the real compute API.
func gatewayClient(cmd *cobra.Command, injected computeapi.Client, keyFile string) (computeapi.Client, error) {
	if injected != nil {
		return injected, nil
	}
	if fake, _ := cmd.Root().PersistentFlags().GetBool("fake"); fake {
		return computeapi.NewFake(), nil
	}
	return computeapi.Connect(cmd.Context(), keyFile)
}
