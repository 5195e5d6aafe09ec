package computeapi

import (
	"context"
	"fmt"
	"path"
	"strconv"

	compute "google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

// RealClient wraps the official Compute Engine API client.
type RealClient struct {
	svc *compute.Service
}

// Connect builds a client using application default credentials, or the
// service-account key file when keyFile is non-empty.
func Connect(ctx context.Context, keyFile string) (*RealClient, error) {
	var opts []option.ClientOption
	if keyFile != "" {
		opts = append(opts, option.WithCredentialsFile(keyFile))
	}
	svc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to compute API: %w", err)
	}
	return &RealClient{svc: svc}, nil
}

func (r *RealClient) ListInstances(ctx context.Context, project, zone string) ([]Instance, error) {
	list, err := r.svc.Instances.List(project, zone).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing instances in %s/%s: %w", project, zone, err)
	}
	out := make([]Instance, 0, len(list.Items))
	for _, it := range list.Items {
		inst := Instance{
			Name:          it.Name,
			Zone:          path.Base(it.Zone),
			BackupEnabled: it.Labels[BackupLabel] == "true",
		}
		for _, d := range it.Disks {
			if d.Boot {
				inst.BootDisk = path.Base(d.Source)
				break
			}
		}
		out = append(out, inst)
	}
	return out, nil
}

func (r *RealClient) ListSnapshots(ctx context.Context, project string) ([]Snapshot, error) {
	list, err := r.svc.Snapshots.List(project).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing snapshots in %s: %w", project, err)
	}
	out := make([]Snapshot, 0, len(list.Items))
	for _, s := range list.Items {
		out = append(out, Snapshot{
			ID:                strconv.FormatUint(s.Id, 10),
			Name:              s.Name,
			SourceDisk:        path.Base(s.SourceDisk),
			CreationTimestamp: s.CreationTimestamp,
		})
	}
	return out, nil
}

func (r *RealClient) CreateSnapshot(ctx context.Context, project, zone, disk, name string) (Operation, error) {
	op, err := r.svc.Disks.CreateSnapshot(project, zone, disk, &compute.Snapshot{Name: name}).Context(ctx).Do()
	if err != nil {
		return Operation{}, fmt.Errorf("creating snapshot %s of disk %s: %w", name, disk, err)
	}
	return Operation{Name: op.Name, Zone: zone}, nil
}

func (r *RealClient) GetOperationStatus(ctx context.Context, project, zone string, op Operation) (OpStatus, error) {
	res, err := r.svc.ZoneOperations.Get(project, zone, op.Name).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("polling operation %s: %w", op.Name, err)
	}
	switch res.Status {
	case "DONE":
		if res.Error != nil && len(res.Error.Errors) > 0 {
			return StatusError, nil
		}
		return StatusDone, nil
	default: // PENDING or RUNNING
		return StatusRunning, nil
	}
}

func (r *RealClient) DeleteSnapshot(ctx context.Context, project, name string) error {
	if _, err := r.svc.Snapshots.Delete(project, name).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", name, err)
	}
	return nil
}
