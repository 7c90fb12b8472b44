package sector

import (
	"tntt-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

// Closest returns the known sector whose key is most similar to the
// given label, for logging data-quality hints on rows that Resolve
// could not place. It is deliberately not part of resolution itself:
// similarity scores are not stable enough to attribute students to.
func Closest(label string) (Sector, float64) {
	normalized := textutil.NormalizeName(label)

	var best Sector
	var bestSimilarity float64
	for _, known := range Known() {
		similarity := matchr.JaroWinkler(normalized, known.Key, false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = known
		}
	}
	return best, bestSimilarity
}
