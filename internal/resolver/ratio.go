package resolver

// matchRatio scores the similarity of two rune sequences as
// 2*M / (len(a)+len(b)), where M is the total length of the matching
// blocks found by repeatedly taking the longest common substring and
// recursing on both sides. Identical strings score 1.0.
func matchRatio(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	m := matchingTotal(a, b)
	return 2.0 * float64(m) / float64(len(a)+len(b))
}

func matchingTotal(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingTotal(a[:ai], b[:bi]) +
		matchingTotal(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest common substring, preferring the
// earliest occurrence in a, then in b, on ties.
func longestMatch(a, b []rune) (bestI, bestJ, bestSize int) {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] != b[j] {
				cur[j+1] = 0
				continue
			}
			cur[j+1] = prev[j] + 1
			if cur[j+1] > bestSize {
				bestSize = cur[j+1]
				bestI = i - bestSize + 1
				bestJ = j - bestSize + 1
			}
		}
		prev, cur = cur, prev
		for k := range cur {
			cur[k] = 0
		}
	}
	return bestI, bestJ, bestSize
}
