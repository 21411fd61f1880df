// Package dedup collapses overlapping motif matches into one representative
// per overlap cluster.
package dedup

import (
	"sort"

	"github.com/lubieowoce/overlappy/internal/motif"
)

// Cluster is a maximal run of records whose [Start, Stop] ranges are
// connected through the running union of the sweep.
type Cluster struct {
	Members []*motif.Record // sorted by Start, ties in input order
	Start   int64           // union start
	Stop    int64           // union stop
}

// ClusterRecords partitions records, which should share one motif.Key, into
// clusters of transitively overlapping ranges.
//
// Records are swept in Start order. A record joins the open cluster when its
// Start lies inside the cluster's closed union [Start, Stop]; touching
// boundaries count. Closed clusters are never revisited, so members of one
// cluster need not overlap pairwise. The input slice is not modified.
func ClusterRecords(records []*motif.Record) []Cluster {
	if len(records) == 0 {
		return nil
	}

	sorted := make([]*motif.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	first := sorted[0]
	cur := Cluster{Members: []*motif.Record{first}, Start: first.Start, Stop: first.Stop}
	var clusters []Cluster

	for _, r := range sorted[1:] {
		if cur.Start <= r.Start && r.Start <= cur.Stop {
			cur.Members = append(cur.Members, r)
			cur.Start = min(cur.Start, r.Start)
			cur.Stop = max(cur.Stop, r.Stop)
			continue
		}
		clusters = append(clusters, cur)
		cur = Cluster{Members: []*motif.Record{r}, Start: r.Start, Stop: r.Stop}
	}

	return append(clusters, cur)
}
