package preprocess

// Cluster is the aggregate for one template.
type Cluster struct {
	Template  string `json:"template"`
	Count     int    `json:"count"`
	Sample    string `json:"sample"`     // first raw line, never truncated
	FirstSeen int    `json:"first_seen"` // order of the line that created the cluster
}

// Registry maps templates to clusters in insertion order.
//
// There is exactly one cluster per distinct template. The sample and
// first-seen order are set on creation and never change; the count grows by
// one per observation. Nothing is evicted, so memory is proportional to the
// number of distinct templates.
//
// A Registry is not safe for concurrent use. Sharded runs give every worker
// its own Registry and fold them with Merge.
type Registry struct {
	index    map[string]int
	clusters []Cluster
	total    int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Observe records one eligible line. order must increase strictly across
// calls; it is the line's position among eligible lines.
func (r *Registry) Observe(rawLine, template string, order int) {
	r.total++
	if i, ok := r.index[template]; ok {
		r.clusters[i].Count++
		return
	}
	r.index[template] = len(r.clusters)
	r.clusters = append(r.clusters, Cluster{
		Template:  template,
		Count:     1,
		Sample:    rawLine,
		FirstSeen: order,
	})
}

// Len returns the number of distinct templates.
func (r *Registry) Len() int {
	return len(r.clusters)
}

// Total returns the sum of all cluster counts.
func (r *Registry) Total() int {
	return r.total
}

// Get returns the cluster for a template.
func (r *Registry) Get(template string) (Cluster, bool) {
	i, ok := r.index[template]
	if !ok {
		return Cluster{}, false
	}
	return r.clusters[i], true
}

// Clusters returns a copy of all clusters in insertion order.
func (r *Registry) Clusters() []Cluster {
	return append([]Cluster(nil), r.clusters...)
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		index:    make(map[string]int, len(r.index)),
		clusters: r.Clusters(),
		total:    r.total,
	}
	for k, v := range r.index {
		c.index[k] = v
	}
	return c
}
