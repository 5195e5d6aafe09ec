// Package retention prunes redundant snapshots per disk under a two-tier
// rule: within the recent window keep one snapshot per day, within the older
// window keep one snapshot total. Anything older is left alone.
package retention

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"gce-backup/src/computeapi"
	"gce-backup/src/snapindex"
)

// Window labels a candidate with the tier that selected it.
type Window string

const (
	WindowDaily  Window = "daily"
	WindowWeekly Window = "weekly"
)

// Candidate is one snapshot selected for deletion.
type Candidate struct {
	Disk     string
	Snapshot computeapi.Snapshot
	Window   Window
}

// Options bounds the two windows: per-day dedup over [0, DailyWindowDays)
// and one-survivor pooling over [DailyWindowDays, WeeklyWindowDays), both
// measured in calendar days before Today.
type Options struct {
	DailyWindowDays  int
	WeeklyWindowDays int
	Today            time.Time
}

// Plan walks the disk/date index and returns every snapshot the policy says
// to delete, ordered by disk then timestamp for determinism. It never
// selects a disk's sole snapshot in a bucket, so planning over a previously
// pruned set yields nothing.
func Plan(idx snapindex.Index, opts Options) []Candidate {
	today := opts.Today.UTC().Truncate(24 * time.Hour)

	var out []Candidate
	disks := make([]string, 0, len(idx))
	for disk := range idx {
		disks = append(disks, disk)
	}
	sort.Strings(disks)

	for _, disk := range disks {
		byDate := idx[disk]
		var pooled []computeapi.Snapshot

		dates := make([]string, 0, len(byDate))
		for date := range byDate {
			dates = append(dates, date)
		}
		sort.Strings(dates)

		for _, date := range dates {
			age, ok := ageInDays(date, today)
			if !ok {
				continue
			}
			switch {
			case age < opts.DailyWindowDays:
				for _, s := range allButNewest(byDate[date]) {
					out = append(out, Candidate{Disk: disk, Snapshot: s, Window: WindowDaily})
				}
			case age < opts.WeeklyWindowDays:
				pooled = append(pooled, byDate[date]...)
			}
			// Older buckets are not managed by retention.
		}

		for _, s := range allButNewest(pooled) {
			out = append(out, Candidate{Disk: disk, Snapshot: s, Window: WindowWeekly})
		}
	}
	return out
}

// Apply deletes every planned snapshot through the gateway, logging each
// name before the call. The first gateway error aborts the run.
func Apply(ctx context.Context, client computeapi.Client, log *zap.Logger, project string, plan []Candidate) error {
	for _, c := range plan {
		log.Info("deleting snapshot",
			zap.String("snapshot", c.Snapshot.Name),
			zap.String("disk", c.Disk),
			zap.String("window", string(c.Window)))
		if err := client.DeleteSnapshot(ctx, project, c.Snapshot.Name); err != nil {
			return err
		}
	}
	return nil
}

// allButNewest returns everything except the max-timestamp snapshot, sorted
// by timestamp. One or fewer snapshots yields nothing to delete.
func allButNewest(snaps []computeapi.Snapshot) []computeapi.Snapshot {
	if len(snaps) < 2 {
		return nil
	}
	sorted := make([]computeapi.Snapshot, len(snaps))
	copy(sorted, snaps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreationTimestamp < sorted[j].CreationTimestamp
	})
	return sorted[:len(sorted)-1]
}

// ageInDays parses a YYYY-MM-DD bucket key and returns whole calendar days
// before today. Unparseable keys and future dates are skipped.
func ageInDays(date string, today time.Time) (int, bool) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, false
	}
	age := int(today.Sub(d).Hours() / 24)
	if age < 0 {
		return 0, false
	}
	return age, true
}
