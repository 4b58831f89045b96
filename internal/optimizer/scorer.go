package optimizer

import (
	"sort"

	"github.com/bimmerbailey/promptune/internal/dataset"
)

// Score computes the agreement between a prediction set and the ground
// truth: the fraction of record identifiers whose predicted label
// exactly equals the ground-truth label. Equality is purely textual and
// case-sensitive; any label normalization must happen upstream, in the
// data files.
//
// The loop controller guarantees gt is non-empty before any iteration
// runs; an empty ground truth scores 0.
func Score(pred Prediction, gt dataset.GroundTruth) float64 {
	if len(gt) == 0 {
		return 0
	}

	matches := 0
	for id, want := range gt {
		if got, ok := pred[id]; ok && got == want {
			matches++
		}
	}

	return float64(matches) / float64(len(gt))
}

// Mismatches returns the record identifiers whose prediction disagrees
// with (or is absent from) the ground truth, sorted for stable
// reporting. Used for per-case reporting, not by the loop itself.
func Mismatches(pred Prediction, gt dataset.GroundTruth) []string {
	var ids []string
	for id, want := range gt {
		if got, ok := pred[id]; !ok || got != want {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
