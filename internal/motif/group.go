package motif

// Groups is an insertion-ordered partition of records by key.
type Groups struct {
	keys   []Key
	groups map[Key][]*Record
}

// GroupBy partitions records by keyFn. Keys keep first-seen order and
// records keep input order within their key.
func GroupBy(records []*Record, keyFn func(*Record) Key) *Groups {
	g := &Groups{groups: make(map[Key][]*Record)}
	for _, r := range records {
		k := keyFn(r)
		if _, ok := g.groups[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.groups[k] = append(g.groups[k], r)
	}
	return g
}

// GroupByKey partitions records by (pattern, sequence).
func GroupByKey(records []*Record) *Groups {
	return GroupBy(records, (*Record).Key)
}

// Keys returns the keys in first-seen order.
func (g *Groups) Keys() []Key {
	return g.keys
}

// Get returns the records for k in input order.
func (g *Groups) Get(k Key) []*Record {
	return g.groups[k]
}

// Len returns the number of distinct keys.
func (g *Groups) Len() int {
	return len(g.keys)
}
