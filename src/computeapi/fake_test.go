package computeapi_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gce-backup/src/computeapi"
)

func TestFakeClient_SnapshotLifecycle(t *testing.T) {
	ctx := context.Background()
	f := computeapi.NewFake()
	f.Now = func() time.Time { return time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC) }

	// Initially empty
	snaps, err := f.ListSnapshots(ctx, "proj")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 0 {
		t.Fatalf("got %d snapshots, want 0", len(snaps))
	}

	// Create
	op, err := f.CreateSnapshot(ctx, "proj", "us-west1-b", "d1", "d1-snap")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	status, err := f.GetOperationStatus(ctx, "proj", "us-west1-b", op)
	if err != nil {
		t.Fatal(err)
	}
	if status != computeapi.StatusDone {
		t.Fatalf("got status %s, want DONE", status)
	}

	snaps, err = f.ListSnapshots(ctx, "proj")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].SourceDisk != "d1" {
		t.Fatalf("unexpected list: %+v", snaps)
	}
	if snaps[0].CreationTimestamp != "2026-08-30T09:00:00Z" {
		t.Fatalf("unexpected timestamp: %s", snaps[0].CreationTimestamp)
	}

	// Delete
	if err := f.DeleteSnapshot(ctx, "proj", "d1-snap"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.DeleteSnapshot(ctx, "proj", "d1-snap"); err == nil {
		t.Fatalf("expected not found on second delete")
	}
}

func TestFakeClient_OperationRunsBeforeSettling(t *testing.T) {
	ctx := context.Background()
	f := computeapi.NewFake()
	f.PollsUntilDone = 2

	op, err := f.CreateSnapshot(ctx, "proj", "us-west1-b", "d1", "s1")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		status, err := f.GetOperationStatus(ctx, "proj", "us-west1-b", op)
		if err != nil {
			t.Fatal(err)
		}
		if status != computeapi.StatusRunning {
			t.Fatalf("poll %d: got %s, want RUNNING", i, status)
		}
	}
	status, err := f.GetOperationStatus(ctx, "proj", "us-west1-b", op)
	if err != nil {
		t.Fatal(err)
	}
	if status != computeapi.StatusDone {
		t.Fatalf("got %s, want DONE", status)
	}
}

func TestFakeClient_FailedDiskReportsError(t *testing.T) {
	ctx := context.Background()
	f := computeapi.NewFake()
	f.FailDisks["d1"] = true

	op, err := f.CreateSnapshot(ctx, "proj", "us-west1-b", "d1", "s1")
	if err != nil {
		t.Fatal(err)
	}
	status, err := f.GetOperationStatus(ctx, "proj", "us-west1-b", op)
	if err != nil {
		t.Fatal(err)
	}
	if status != computeapi.StatusError {
		t.Fatalf("got %s, want ERROR", status)
	}

	// The failed creation must not have registered a snapshot.
	snaps, err := f.ListSnapshots(ctx, "proj")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 0 {
		t.Fatalf("got %d snapshots, want 0", len(snaps))
	}
}

func TestFakeClient_UnknownOperation(t *testing.T) {
	f := computeapi.NewFake()
	_, err := f.GetOperationStatus(context.Background(), "proj", "us-west1-b", computeapi.Operation{Name: "nope"})
	var nf *computeapi.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
