// Package snapindex groups snapshot collections by source disk and creation
// date, and answers "most recent" queries over any subset.
package snapindex

import (
	"errors"

	"gce-backup/src/computeapi"
)

// ErrNoSnapshots is returned by Latest when the input collection is empty.
// Callers must check emptiness first; hitting this is a programming error.
var ErrNoSnapshots = errors.New("snapshot collection is empty")

// Index maps disk name -> calendar date -> snapshots created that day,
// in input order. Rebuilt fresh from the live snapshot list on every run.
type Index map[string]map[string][]computeapi.Snapshot

// ByDiskAndDate partitions snaps into an Index. Every snapshot lands in
// exactly one bucket, keyed by its own disk and creation date.
func ByDiskAndDate(snaps []computeapi.Snapshot) Index {
	idx := Index{}
	for _, s := range snaps {
		byDate, ok := idx[s.SourceDisk]
		if !ok {
			byDate = map[string][]computeapi.Snapshot{}
			idx[s.SourceDisk] = byDate
		}
		byDate[s.Date()] = append(byDate[s.Date()], s)
	}
	return idx
}

// Latest returns the snapshot with the maximum creation timestamp.
// RFC 3339 timestamps compare lexicographically, so no parsing is needed.
func Latest(snaps []computeapi.Snapshot) (computeapi.Snapshot, error) {
	if len(snaps) == 0 {
		return computeapi.Snapshot{}, ErrNoSnapshots
	}
	latest := snaps[0]
	for _, s := range snaps[1:] {
		if s.CreationTimestamp > latest.CreationTimestamp {
			latest = s
		}
	}
	return latest, nil
}

// ForDisk filters snaps down to those taken from the named disk.
func ForDisk(snaps []computeapi.Snapshot, disk string) []computeapi.Snapshot {
	var out []computeapi.Snapshot
	for _, s := range snaps {
		if s.SourceDisk == disk {
			out = append(out, s)
		}
	}
	return out
}
