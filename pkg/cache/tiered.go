package cache

// Layer is one level of a Tiered cache. Both RateCache and the badger-backed
// storage.GraphRates satisfy it.
type Layer interface {
	GetRate(from, to string) (float64, bool)
	PutRate(from, to string, rate float64)
}

// Tiered checks layers in order, fastest first. A hit in a slower layer is
// copied into every faster one; writes go to all layers.
type Tiered struct {
	layers []Layer
}

// NewTiered builds a tiered cache. Nil layers are skipped.
func NewTiered(layers ...Layer) *Tiered {
	t := &Tiered{}
	for _, l := range layers {
		if l != nil {
			t.layers = append(t.layers, l)
		}
	}
	return t
}

// GetRate implements unitgraph.RateCache.
func (t *Tiered) GetRate(from, to string) (float64, bool) {
	for i, l := range t.layers {
		if rate, ok := l.GetRate(from, to); ok {
			for _, faster := range t.layers[:i] {
				faster.PutRate(from, to, rate)
			}
			return rate, true
		}
	}
	return 0, false
}

// PutRate implements unitgraph.RateCache.
func (t *Tiered) PutRate(from, to string, rate float64) {
	for _, l := range t.layers {
		l.PutRate(from, to, rate)
	}
}

// Len returns the number of layers.
func (t *Tiered) Len() int {
	return len(t.layers)
}
