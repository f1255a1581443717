package trajectory

import (
	"fmt"
	"math"
	"sort"
)

// Pair links a groundtruth sample to an estimate sample by index.
type Pair struct {
	Groundtruth int
	Estimate    int
}

// AssociationError reports estimate samples without a groundtruth partner
// when strict association was requested.
type AssociationError struct {
	Unmatched int
	Total     int
}

func (e *AssociationError) Error() string {
	return fmt.Sprintf("%d of %d estimate samples could not be associated with groundtruth", e.Unmatched, e.Total)
}

type candidate struct {
	diff   float64
	gt, es int
}

// Associate pairs estimate samples with groundtruth samples whose timestamps
// differ by less than tolerance. Candidates are taken in order of increasing
// time difference and each sample is used at most once. The returned pairs
// are ordered by groundtruth time.
//
// With allowUnassociated false, any estimate sample left without a partner
// yields an *AssociationError.
func Associate(gt, est Track, tolerance float64, allowUnassociated bool) ([]Pair, error) {
	gtTimes := gt.Times()
	var cands []candidate
	for j, s := range est {
		lo := sort.Search(len(gtTimes), func(i int) bool { return gtTimes[i] > s.Time-tolerance })
		for i := lo; i < len(gtTimes) && gtTimes[i] < s.Time+tolerance; i++ {
			d := math.Abs(gtTimes[i] - s.Time)
			if d < tolerance {
				cands = append(cands, candidate{diff: d, gt: i, es: j})
			}
		}
	}

	sort.Slice(cands, func(a, b int) bool {
		if cands[a].diff != cands[b].diff {
			return cands[a].diff < cands[b].diff
		}
		if cands[a].gt != cands[b].gt {
			return cands[a].gt < cands[b].gt
		}
		return cands[a].es < cands[b].es
	})

	usedGT := make([]bool, len(gt))
	usedEst := make([]bool, len(est))
	pairs := make([]Pair, 0, len(est))
	for _, c := range cands {
		if usedGT[c.gt] || usedEst[c.es] {
			continue
		}
		usedGT[c.gt] = true
		usedEst[c.es] = true
		pairs = append(pairs, Pair{Groundtruth: c.gt, Estimate: c.es})
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].Groundtruth < pairs[b].Groundtruth })

	if !allowUnassociated && len(pairs) < len(est) {
		return pairs, &AssociationError{Unmatched: len(est) - len(pairs), Total: len(est)}
	}
	return pairs, nil
}
