package facility

import "sort"

const (
	// DefaultLimit is how many facilities either ranking mode returns.
	DefaultLimit = 3

	// DefaultSpecialty receives categories missing from the route table.
	DefaultSpecialty = "general"

	DefaultSearchURL = "https://www.google.com/maps/search/hospitals+near+me"

	highSeverity = 8
)

// Result is the outcome of rule-based ranking. Fallback is set when the
// specialty has no catalog entry; SearchURL then points at a generic map search.
type Result struct {
	Facilities []Facility `json:"hospitals"`
	Fallback   bool       `json:"fallback,omitempty"`
	SearchURL  string     `json:"mapsSearch,omitempty"`
}

// Ranker recommends facilities from a read-only catalog. It is safe for
// concurrent use.
type Ranker struct {
	order     []string
	catalog   map[string][]Facility
	routes    map[string]string
	searchURL string
	limit     int
}

// NewRanker builds a ranker over specialties (kept in the given order) and a
// category to specialty route table.
func NewRanker(specialties []Specialty, routes map[string]string, searchURL string) *Ranker {
	r := &Ranker{
		catalog:   make(map[string][]Facility, len(specialties)),
		routes:    make(map[string]string, len(routes)),
		searchURL: searchURL,
		limit:     DefaultLimit,
	}
	if r.searchURL == "" {
		r.searchURL = DefaultSearchURL
	}
	for _, s := range specialties {
		if _, dup := r.catalog[s.Key]; !dup {
			r.order = append(r.order, s.Key)
		}
		r.catalog[s.Key] = append(r.catalog[s.Key], s.Facilities...)
	}
	for k, v := range routes {
		r.routes[k] = v
	}
	return r
}

// SpecialtyFor maps a category to its specialty key.
func (r *Ranker) SpecialtyFor(category string) string {
	if s, ok := r.routes[category]; ok && s != "" {
		return s
	}
	return DefaultSpecialty
}

// Rank returns up to three facilities for the category's specialty. With
// severity 8 or more, round-the-clock emergency sites move to the front
// before truncation; otherwise catalog order is kept.
func (r *Ranker) Rank(category string, severity int) Result {
	list, ok := r.catalog[r.SpecialtyFor(category)]
	if !ok {
		return Result{Facilities: []Facility{}, Fallback: true, SearchURL: r.searchURL}
	}

	ranked := make([]Facility, len(list))
	copy(ranked, list)

	if severity >= highSeverity {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Emergency24x7 && !ranked[j].Emergency24x7
		})
	}

	if len(ranked) > r.limit {
		ranked = ranked[:r.limit]
	}
	return Result{Facilities: ranked}
}

// RankNearest returns the three facilities closest to (lat, lng) across every
// specialty, each annotated with its distance. Facilities without a stored
// coordinate are skipped. Specialty and severity play no part.
func (r *Ranker) RankNearest(lat, lng float64) []Facility {
	user := Coordinate{Lat: lat, Lng: lng}

	var pool []Facility
	for _, key := range r.order {
		for _, f := range r.catalog[key] {
			if f.Location == nil {
				continue
			}
			d := Distance(user, *f.Location)
			f.Distance = &d
			pool = append(pool, f)
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return *pool[i].Distance < *pool[j].Distance
	})

	if len(pool) > r.limit {
		pool = pool[:r.limit]
	}
	if pool == nil {
		pool = []Facility{}
	}
	return pool
}
