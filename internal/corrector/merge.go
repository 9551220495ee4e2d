package corrector

// Merge accepts corrections in the order given, which the caller fixes as cop
// registration order then offense order. A correction whose edits clash with
// an already accepted edit is deferred whole; deferred holds their indices.
func Merge(corrections []Correction) (set *EditSet, deferred []int) {
	var accepted []Edit
	for i, corr := range corrections {
		var fresh []Edit
		ok := true
	edits:
		for _, e := range corr.edits {
			for _, a := range accepted {
				if a.sameAs(e) {
					continue edits
				}
				if clashes(a, e) {
					ok = false
					break edits
				}
			}
			fresh = append(fresh, e)
		}
		if !ok {
			deferred = append(deferred, i)
			continue
		}
		accepted = append(accepted, fresh...)
	}
	return newEditSet(accepted), deferred
}
