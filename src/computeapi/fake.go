package computeapi

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// FakeClient is an in-memory implementation for unit tests and rehearsal runs.
// Operations returned by CreateSnapshot report RUNNING for PollsUntilDone
// status checks, then DONE (or ERROR when the disk is listed in FailDisks).
type FakeClient struct {
	mu sync.Mutex

	InstancesByZone map[string][]Instance
	SnapshotsMap    map[string]Snapshot

	// PollsUntilDone is how many RUNNING responses each operation gives
	// before settling. Zero means the first poll observes the terminal state.
	PollsUntilDone int
	FailDisks      map[string]bool

	// Now stamps created snapshots; defaults to time.Now.
	Now func() time.Time

	Deleted []string

	ops    map[string]*fakeOp
	nextOp int
}

type fakeOp struct {
	disk      string
	pollsLeft int
	fail      bool
}

func NewFake() *FakeClient {
	return &FakeClient{
		InstancesByZone: map[string][]Instance{},
		SnapshotsMap:    map[string]Snapshot{},
		FailDisks:       map[string]bool{},
		ops:             map[string]*fakeOp{},
	}
}

// AddInstance registers an instance in its zone.
func (f *FakeClient) AddInstance(inst Instance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InstancesByZone[inst.Zone] = append(f.InstancesByZone[inst.Zone], inst)
}

// AddSnapshot seeds an existing snapshot.
func (f *FakeClient) AddSnapshot(s Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = s.Name
	}
	f.SnapshotsMap[s.Name] = s
}

func (f *FakeClient) ListInstances(ctx context.Context, project, zone string) ([]Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Instance, len(f.InstancesByZone[zone]))
	copy(out, f.InstancesByZone[zone])
	return out, nil
}

func (f *FakeClient) ListSnapshots(ctx context.Context, project string) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Snapshot, 0, len(f.SnapshotsMap))
	for _, s := range f.SnapshotsMap {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FakeClient) CreateSnapshot(ctx context.Context, project, zone, disk, name string) (Operation, error) {
	if err := ctx.Err(); err != nil {
		return Operation{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextOp++
	opName := fmt.Sprintf("operation-%d", f.nextOp)
	f.ops[opName] = &fakeOp{
		disk:      disk,
		pollsLeft: f.PollsUntilDone,
		fail:      f.FailDisks[disk],
	}
	if !f.FailDisks[disk] {
		now := time.Now
		if f.Now != nil {
			now = f.Now
		}
		f.SnapshotsMap[name] = Snapshot{
			ID:                name,
			Name:              name,
			SourceDisk:        disk,
			CreationTimestamp: now().Format(time.RFC3339),
		}
	}
	return Operation{Name: opName, Zone: zone}, nil
}

func (f *FakeClient) GetOperationStatus(ctx context.Context, project, zone string, op Operation) (OpStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.ops[op.Name]
	if !ok {
		return "", &NotFoundError{Resource: "operation", Name: op.Name}
	}
	if o.pollsLeft > 0 {
		o.pollsLeft--
		return StatusRunning, nil
	}
	if o.fail {
		return StatusError, nil
	}
	return StatusDone, nil
}

func (f *FakeClient) DeleteSnapshot(ctx context.Context, project, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.SnapshotsMap[name]; !ok {
		return &NotFoundError{Resource: "snapshot", Name: name}
	}
	delete(f.SnapshotsMap, name)
	f.Deleted = append(f.Deleted, name)
	return nil
}
