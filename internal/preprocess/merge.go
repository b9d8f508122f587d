package preprocess

import "sort"

type mergedCluster struct {
	Cluster
	shard int
}

// Merge folds partial registries into one. partials[i] is shard i; nil
// entries are skipped.
//
// Counts sum. The sample and first-seen order come from whichever partial
// cluster has the smaller first-seen order, ties going to the lower shard
// index. The merged registry is in first-seen order, so ranking it gives the
// same result as a sequential run whenever the shards stamped lines with a
// shared order counter.
func Merge(partials ...*Registry) *Registry {
	byTemplate := make(map[string]*mergedCluster)
	var all []*mergedCluster

	for shard, part := range partials {
		if part == nil {
			continue
		}
		for _, c := range part.clusters {
			m, ok := byTemplate[c.Template]
			if !ok {
				m = &mergedCluster{Cluster: c, shard: shard}
				byTemplate[c.Template] = m
				all = append(all, m)
				continue
			}
			m.Count += c.Count
			if c.FirstSeen < m.FirstSeen || (c.FirstSeen == m.FirstSeen && shard < m.shard) {
				m.Sample = c.Sample
				m.FirstSeen = c.FirstSeen
				m.shard = shard
			}
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].FirstSeen != all[j].FirstSeen {
			return all[i].FirstSeen < all[j].FirstSeen
		}
		if all[i].shard != all[j].shard {
			return all[i].shard < all[j].shard
		}
		return all[i].Template < all[j].Template
	})

	out := NewRegistry()
	out.clusters = make([]Cluster, 0, len(all))
	for _, m := range all {
		out.index[m.Template] = len(out.clusters)
		out.clusters = append(out.clusters, m.Cluster)
		out.total += m.Count
	}
	return out
}
