package index

import "sort"

// rrfK dampens the contribution of lower ranks in reciprocal rank
// fusion. 60 is the value from the original RRF paper.
const rrfK = 60.0

// fuseRanks merges ranked id lists by reciprocal rank fusion. Each list
// must be ordered best-first. The result is deduplicated and ordered by
// fused score descending, ties broken by ascending id for stability.
func fuseRanks(lists ...[]uint32) []uint32 {
	scores := make(map[uint32]float64)

	for _, list := range lists {
		for rank, id := range list {
			scores[id] += 1.0 / (rrfK + float64(rank) + 1)
		}
	}

	fused := make([]uint32, 0, len(scores))
	for id := range scores {
		fused = append(fused, id)
	}

	sort.Slice(fused, func(i, j int) bool {
		si, sj := scores[fused[i]], scores[fused[j]]
		if si != sj {
			return si > sj
		}
		return fused[i] < fused[j]
	})

	return fused
}
