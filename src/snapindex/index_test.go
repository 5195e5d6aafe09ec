package snapindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gce-backup/src/computeapi"
	"gce-backup/src/snapindex"
)

func snap(name, disk, ts string) computeapi.Snapshot {
	return computeapi.Snapshot{ID: name, Name: name, SourceDisk: disk, CreationTimestamp: ts}
}

func TestLatest_PermutationInvariant(t *testing.T) {
	a := snap("a", "d1", "2026-08-27T10:00:00-08:00")
	b := snap("b", "d1", "2026-08-28T09:30:00-08:00")
	c := snap("c", "d2", "2026-08-28T11:45:00-08:00")

	perms := [][]computeapi.Snapshot{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	for _, p := range perms {
		got, err := snapindex.Latest(p)
		require.NoError(t, err)
		assert.Equal(t, "c", got.Name)
	}
}

func TestLatest_EmptyInput(t *testing.T) {
	_, err := snapindex.Latest(nil)
	assert.ErrorIs(t, err, snapindex.ErrNoSnapshots)
}

func TestByDiskAndDate_ExactPartition(t *testing.T) {
	snaps := []computeapi.Snapshot{
		snap("s1", "d1", "2026-08-28T01:00:00-08:00"),
		snap("s2", "d1", "2026-08-28T02:00:00-08:00"),
		snap("s3", "d1", "2026-08-27T01:00:00-08:00"),
		snap("s4", "d2", "2026-08-28T01:00:00-08:00"),
	}

	idx := snapindex.ByDiskAndDate(snaps)

	require.Len(t, idx, 2)
	require.Len(t, idx["d1"], 2)
	require.Len(t, idx["d2"], 1)

	seen := map[string]int{}
	for _, byDate := range idx {
		for date, bucket := range byDate {
			for _, s := range bucket {
				assert.Equal(t, date, s.Date())
				seen[s.Name]++
			}
		}
	}
	require.Len(t, seen, len(snaps))
	for name, n := range seen {
		assert.Equalf(t, 1, n, "snapshot %s bucketed %d times", name, n)
	}

	// Insertion order preserved within a bucket.
	bucket := idx["d1"]["2026-08-28"]
	require.Len(t, bucket, 2)
	assert.Equal(t, "s1", bucket[0].Name)
	assert.Equal(t, "s2", bucket[1].Name)
}

func TestByDiskAndDate_Empty(t *testing.T) {
	assert.Empty(t, snapindex.ByDiskAndDate(nil))
}

func TestForDisk(t *testing.T) {
	snaps := []computeapi.Snapshot{
		snap("s1", "d1", "2026-08-28T01:00:00-08:00"),
		snap("s2", "d2", "2026-08-28T02:00:00-08:00"),
		snap("s3", "d1", "2026-08-27T01:00:00-08:00"),
	}
	got := snapindex.ForDisk(snaps, "d1")
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].Name)
	assert.Equal(t, "s3", got[1].Name)
	assert.Empty(t, snapindex.ForDisk(snaps, "d3"))
}
