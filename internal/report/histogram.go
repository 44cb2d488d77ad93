// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"math"
	"sort"
)

// Histogram counts values into the bins delimited by edges. Bin i holds
// edges[i] <= v < edges[i+1], except the last bin, which also holds
// v == edges[len(edges)-1]. NaN and out-of-range values are not counted.
// edges must be increasing.
func Histogram(values, edges []float64) []int {
	if len(edges) < 2 {
		return nil
	}
	counts := make([]int, len(edges)-1)
	lo, hi := edges[0], edges[len(edges)-1]
	for _, v := range values {
		if math.IsNaN(v) || v < lo || v > hi {
			continue
		}
		if v == hi {
			counts[len(counts)-1]++
			continue
		}
		i := sort.Search(len(edges), func(i int) bool { return edges[i] > v }) - 1
		counts[i]++
	}
	return counts
}

// Percents converts counts to percentages of size. A zero size yields zeros.
func Percents(counts []int, size int) []float64 {
	out := make([]float64, len(counts))
	if size == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(size) * 100
	}
	return out
}
