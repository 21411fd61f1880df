package dedup

import "github.com/lubieowoce/overlappy/internal/motif"

// Best returns the member with the lowest p-value. On ties the earliest
// member wins. Best panics if members is empty.
func Best(members []*motif.Record) *motif.Record {
	best := members[0]
	for _, r := range members[1:] {
		if r.PValue < best.PValue {
			best = r
		}
	}
	return best
}

// Best returns the cluster's representative record.
func (c Cluster) Best() *motif.Record {
	return Best(c.Members)
}

// Deduplicate clusters records sharing one key and returns the best record
// of each cluster, in cluster order.
func Deduplicate(records []*motif.Record) []*motif.Record {
	clusters := ClusterRecords(records)
	out := make([]*motif.Record, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, c.Best())
	}
	return out
}
