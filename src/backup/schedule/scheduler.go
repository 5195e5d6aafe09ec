// Package schedule decides, per instance, whether a fresh disk snapshot is
// due, launches creation through the compute gateway, and supervises each
// asynchronous operation to a terminal state.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gce-backup/src/computeapi"
	"gce-backup/src/config"
	"gce-backup/src/snapindex"
)

// State is an instance's position in the backup lifecycle. NotApplicable,
// Skipped, Completed and Failed are terminal.
type State string

const (
	StateNotApplicable State = "NOT_APPLICABLE"
	StateSkipped       State = "SKIPPED"
	StateCreating      State = "CREATING"
	StateCompleted     State = "COMPLETED"
	StateFailed        State = "FAILED"
)

// ErrAllFailed reports that every instance that attempted a backup failed.
var ErrAllFailed = errors.New("all backup creations failed")

// Options tunes a scheduler run.
type Options struct {
	Project string
	Zone    string

	// NameOverride names the created snapshot instead of the default
	// <disk>-<timestamp>. Meant for single-instance test runs.
	NameOverride string

	// ForceCreate and ForceSkip pin the create-vs-skip decision for
	// deterministic testing. ForceSkip wins when both are set.
	ForceCreate bool
	ForceSkip   bool

	PollInterval time.Duration

	// Scope selects which snapshots the last-backup date is computed over:
	// config.ScopeDisk (the instance's own boot disk) or config.ScopeGlobal
	// (every snapshot in the project, the legacy behavior).
	Scope string

	// FailOnAnyError fails the run on the first failed instance instead of
	// only when every attempted backup failed.
	FailOnAnyError bool

	// DryRun reports each instance's create-vs-skip decision without
	// issuing any creation call.
	DryRun bool

	// Now supplies "today"; defaults to time.Now.
	Now func() time.Time
}

// Result is the terminal outcome for one instance. Snapshot is set when a
// creation was attempted.
type Result struct {
	Instance computeapi.Instance
	State    State
	Snapshot string
	Err      error
}

// Scheduler runs the per-instance backup state machine over a whole zone.
type Scheduler struct {
	client computeapi.Client
	log    *zap.Logger
	opts   Options
}

func New(client computeapi.Client, log *zap.Logger, opts Options) *Scheduler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.Scope == "" {
		opts.Scope = config.ScopeDisk
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{client: client, log: log, opts: opts}
}

// Run lists instances and snapshots, decides create-vs-skip per instance,
// and supervises every launched creation concurrently. It returns one Result
// per instance, in listing order, after all supervision tasks have reached a
// terminal state.
func (s *Scheduler) Run(ctx context.Context) ([]Result, error) {
	instances, err := s.client.ListInstances(ctx, s.opts.Project, s.opts.Zone)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.client.ListSnapshots(ctx, s.opts.Project)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(instances))
	var g errgroup.Group
	for i, inst := range instances {
		results[i].Instance = inst

		if !inst.BackupEnabled {
			s.transition(inst, StateNotApplicable, "backup label not set")
			results[i].State = StateNotApplicable
			continue
		}

		if skip, reason := s.shouldSkip(inst, snapshots); skip {
			s.transition(inst, StateSkipped, reason)
			results[i].State = StateSkipped
			continue
		}

		name := s.opts.NameOverride
		if name == "" {
			name = fmt.Sprintf("%s-%s", inst.BootDisk, s.opts.Now().UTC().Format("20060102-150405"))
		}
		if s.opts.DryRun {
			s.transition(inst, StateCreating, "dry-run: would create snapshot "+name)
			results[i].State = StateCreating
			results[i].Snapshot = name
			continue
		}
		// Each task owns its result slot; nothing else writes it.
		res := &results[i]
		res.Snapshot = name
		inst := inst
		g.Go(func() error {
			res.State, res.Err = s.supervise(ctx, inst, name)
			return nil
		})
	}

	// The batch is complete only once every launched task is terminal.
	_ = g.Wait()

	// An interrupt aborts the batch; cancelled tasks are not failures.
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, s.runError(results)
}

// shouldSkip applies the decision rule for an enabled instance.
func (s *Scheduler) shouldSkip(inst computeapi.Instance, snapshots []computeapi.Snapshot) (bool, string) {
	if s.opts.ForceSkip {
		return true, "skip forced"
	}
	if s.opts.ForceCreate {
		return false, ""
	}
	scoped := snapshots
	if s.opts.Scope == config.ScopeDisk {
		scoped = snapindex.ForDisk(snapshots, inst.BootDisk)
	}
	if len(scoped) == 0 {
		return false, ""
	}
	latest, err := snapindex.Latest(scoped)
	if err != nil {
		// Unreachable: emptiness checked above.
		return false, ""
	}
	// UTC is the one date basis for the run, matching the UTC timestamp
	// embedded in generated snapshot names.
	today := s.opts.Now().UTC().Format("2006-01-02")
	if latest.Date() == today {
		return true, fmt.Sprintf("latest snapshot %s is from today", latest.Name)
	}
	return false, ""
}

// supervise launches one snapshot creation and polls the operation until it
// settles. Gateway errors and ERROR statuses both land in StateFailed.
func (s *Scheduler) supervise(ctx context.Context, inst computeapi.Instance, name string) (State, error) {
	s.transition(inst, StateCreating, "starting asynchronous backup creation")
	op, err := s.client.CreateSnapshot(ctx, s.opts.Project, inst.Zone, inst.BootDisk, name)
	if err != nil {
		s.transition(inst, StateFailed, err.Error())
		return StateFailed, err
	}

	for {
		status, err := s.client.GetOperationStatus(ctx, s.opts.Project, inst.Zone, op)
		if err != nil {
			s.transition(inst, StateFailed, err.Error())
			return StateFailed, err
		}
		switch status {
		case computeapi.StatusDone:
			s.transition(inst, StateCompleted, "snapshot "+name+" created")
			return StateCompleted, nil
		case computeapi.StatusError:
			opErr := &computeapi.OperationError{Op: op}
			s.transition(inst, StateFailed, opErr.Error())
			return StateFailed, opErr
		default:
			s.log.Debug("operation still running",
				zap.String("instance", inst.Name), zap.String("operation", op.Name))
		}
		select {
		case <-ctx.Done():
			return StateFailed, ctx.Err()
		case <-time.After(s.opts.PollInterval):
		}
	}
}

func (s *Scheduler) transition(inst computeapi.Instance, state State, reason string) {
	s.log.Info("state transition",
		zap.String("instance", inst.Name),
		zap.String("state", string(state)),
		zap.String("reason", reason))
}

// runError applies the batch failure policy over terminal results.
// Cancelled tasks count as interrupted, not failed.
func (s *Scheduler) runError(results []Result) error {
	attempted, failed := 0, 0
	var firstErr error
	for _, r := range results {
		switch r.State {
		case StateCompleted:
			attempted++
		case StateFailed:
			if errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded) {
				continue
			}
			attempted++
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
		}
	}
	if failed == 0 {
		return nil
	}
	if s.opts.FailOnAnyError {
		return fmt.Errorf("%d of %d backups failed: %w", failed, attempted, firstErr)
	}
	if failed == attempted {
		return fmt.Errorf("%w: %v", ErrAllFailed, firstErr)
	}
	return nil
}
