package metrics

// Delta returns after[k] - before[k] for every key in after. Keys missing from
// before count from zero.
func Delta(before, after Counters) Counters {
	delta := make(Counters, len(after))
	for key, value := range after {
		delta[key] = value - before[key]
	}
	return delta
}

// Lookup returns the counter value and whether it was present.
func (c Counters) Lookup(name string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c[name]
	return v, ok
}
