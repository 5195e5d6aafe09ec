package computeapi

import "context"

// BackupLabel is the instance label that marks a machine for scheduled backups.
const BackupLabel = "backup"

// Instance models a minimal compute instance for our purposes.
type Instance struct {
	Name          string
	Zone          string
	BootDisk      string
	BackupEnabled bool
}

// Snapshot is a point-in-time disk copy. CreationTimestamp is kept as the
// RFC 3339 string returned by the API: for a single project all timestamps
// share an offset, so lexicographic order equals chronological order.
type Snapshot struct {
	ID                string
	Name              string
	SourceDisk        string
	CreationTimestamp string
}

// Date returns the calendar-date portion (YYYY-MM-DD) of the creation timestamp.
func (s Snapshot) Date() string {
	if len(s.CreationTimestamp) < 10 {
		return s.CreationTimestamp
	}
	return s.CreationTimestamp[:10]
}

// Operation is a handle for an in-flight asynchronous API action.
type Operation struct {
	Name string
	Zone string
}

// OpStatus is the lifecycle status of an Operation.
type OpStatus string

const (
	StatusRunning OpStatus = "RUNNING"
	StatusDone    OpStatus = "DONE"
	StatusError   OpStatus = "ERROR"
)

// Client is a narrow interface over the compute API used by our app.
// Keep it small and focused on what we actually need so it stays mockable.
type Client interface {
	ListInstances(ctx context.Context, project, zone string) ([]Instance, error)
	ListSnapshots(ctx context.Context, project string) ([]Snapshot, error)
	CreateSnapshot(ctx context.Context, project, zone, disk, name string) (Operation, error)
	GetOperationStatus(ctx context.Context, project, zone string, op Operation) (OpStatus, error)
	DeleteSnapshot(ctx context.Context, project, name string) error
}

type NotFoundError struct{ Resource, Name string }

func (e *NotFoundError) Error() string { return e.Resource + " not found: " + e.Name }

// OperationError reports an operation that finished in the ERROR state.
type OperationError struct {
	Op      Operation
	Message string
}

func (e *OperationError) Error() string {
	if e.Message == "" {
		return "operation " + e.Op.Name + " failed"
	}
	return "operation " + e.Op.Name + " failed: " + e.Message
}
