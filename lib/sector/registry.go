package sector

// Registry tracks every sector seen during one report run. It is built
// fresh per run and thrown away with it; nothing in this package holds
// state between calls.
type Registry struct {
	byKey map[string]Sector
}

func NewRegistry() *Registry {
	r := &Registry{byKey: map[string]Sector{}}
	for _, s := range Known() {
		r.byKey[s.Key] = s
	}
	return r
}

// Register merges s into the registry. Registering the same key twice
// never downgrades what is already there: the lower order wins, and a
// canonical label is kept over an ad-hoc one.
func (r *Registry) Register(s Sector) Sector {
	existing, ok := r.byKey[s.Key]
	if !ok {
		r.byKey[s.Key] = s
		return s
	}
	if s.Order < existing.Order {
		existing.Order = s.Order
		existing.Label = s.Label
		r.byKey[s.Key] = existing
	}
	return existing
}

func (r *Registry) Get(key string) (Sector, bool) {
	s, ok := r.byKey[key]
	return s, ok
}

func (r *Registry) All() []Sector {
	out := make([]Sector, 0, len(r.byKey))
	for _, s := range r.byKey {
		out = append(out, s)
	}
	return out
}
