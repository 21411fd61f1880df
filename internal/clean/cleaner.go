// Package clean removes low-complexity motif matches and collapses
// overlapping matches into one representative per overlap cluster.
package clean

import (
	"go.uber.org/zap"

	"github.com/lubieowoce/overlappy/internal/dedup"
	"github.com/lubieowoce/overlappy/internal/motif"
)

// Stats summarizes one cleaning run.
type Stats struct {
	Input    int // records read
	Removed  int // low-complexity records
	Groups   int // distinct (pattern, sequence) keys among kept records
	Clusters int // overlap clusters, equal to Kept
	Kept     int // representatives written to the cleaned output
}

// GroupStats describes the clustering of one (pattern, sequence) key.
type GroupStats struct {
	Key      motif.Key
	Matches  int // kept matches before deduplication
	Clusters int
}

// Result holds both outputs of a cleaning run.
type Result struct {
	Kept    []*motif.Record // one per cluster, group order then cluster order
	Removed []*motif.Record // input order
	Groups  []GroupStats    // group order
	Stats   Stats
}

// Cleaner runs the filter, group, cluster and pick stages.
type Cleaner struct {
	logger *zap.Logger
}

// NewCleaner creates a cleaner that logs nothing.
func NewCleaner() *Cleaner {
	return &Cleaner{logger: zap.NewNop()}
}

// SetLogger sets the logger for debug and info messages.
func (c *Cleaner) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Clean partitions records into low-complexity (removed) and the rest, then
// keeps the lowest p-value record of each overlap cluster per key.
// The input slice and its records are left untouched.
func (c *Cleaner) Clean(records []*motif.Record) *Result {
	res := &Result{}
	res.Stats.Input = len(records)

	var kept []*motif.Record
	for _, r := range records {
		if r.IsLowComplexity() {
			c.logger.Debug("removing low-complexity match",
				zap.String("pattern", r.PatternName),
				zap.String("sequence", r.SequenceName),
				zap.Int64("start", r.Start),
				zap.String("matched", r.MatchedSequence))
			res.Removed = append(res.Removed, r)
			continue
		}
		kept = append(kept, r)
	}

	groups := motif.GroupByKey(kept)
	for _, k := range groups.Keys() {
		clusters := dedup.ClusterRecords(groups.Get(k))
		for _, cl := range clusters {
			best := cl.Best()
			if len(cl.Members) > 1 {
				c.logger.Debug("collapsed overlapping matches",
					zap.Stringer("key", k),
					zap.Int64("start", cl.Start),
					zap.Int64("stop", cl.Stop),
					zap.Int("members", len(cl.Members)),
					zap.Float64("p_value", best.PValue))
			}
			res.Kept = append(res.Kept, best)
		}
		res.Groups = append(res.Groups, GroupStats{
			Key:      k,
			Matches:  len(groups.Get(k)),
			Clusters: len(clusters),
		})
		res.Stats.Clusters += len(clusters)
	}

	res.Stats.Removed = len(res.Removed)
	res.Stats.Groups = groups.Len()
	res.Stats.Kept = len(res.Kept)

	c.logger.Info("cleaned motif matches",
		zap.Int("input", res.Stats.Input),
		zap.Int("removed", res.Stats.Removed),
		zap.Int("groups", res.Stats.Groups),
		zap.Int("clusters", res.Stats.Clusters),
		zap.Int("kept", res.Stats.Kept))

	return res
}
