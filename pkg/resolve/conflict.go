// Package resolve finds z-fighting conflicts across a flat list of boxes and
// applies corrective transforms to them.
//
// The scan is a static all-pairs pass. Conflicts are never cached: every
// detection or fix recomputes them from the current geometry.
package resolve

import (
	"fmt"
	"strings"

	"github.com/chazu/zfight/pkg/geom"
)

// Conflict pairs two boxes whose overlap test reported true.
type Conflict struct {
	A      *geom.Box `json:"-"`
	B      *geom.Box `json:"-"`
	IndexA int       `json:"index_a"`
	IndexB int       `json:"index_b"`
	NameA  string    `json:"name_a"`
	NameB  string    `json:"name_b"`

	Result    geom.OverlapResult `json:"result"`
	Tolerance float64            `json:"tolerance"`
}

// String formats the conflict as "A ↔ B (X-axis, Y-axis)" for face results
// and "A ↔ B (depth [x, y, z])" for volumetric ones.
func (c Conflict) String() string {
	if c.Result.Policy == geom.PolicyFaceAdjacency {
		return fmt.Sprintf("%s ↔ %s (%s)", c.NameA, c.NameB, strings.Join(c.Result.FaceLabels(), ", "))
	}
	return fmt.Sprintf("%s ↔ %s (depth %s)", c.NameA, c.NameB, c.Result.Depth)
}

// DisplayName returns the box name, or "Cube <index>" when it has none.
func DisplayName(b *geom.Box, index int) string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("Cube %d", index)
}

// PairCount returns the number of unordered pairs among n boxes.
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// ScanAllPairs tests every unordered pair of boxes once and returns a
// Conflict for each pair the policy reports as overlapping. Conflicts are
// ordered by the first box's index, then the second's. Nil entries are
// skipped. The result is never nil.
func ScanAllPairs(boxes []*geom.Box, tolerance float64, policy geom.Policy) []Conflict {
	conflicts := []Conflict{}

	for i := 0; i < len(boxes); i++ {
		a := boxes[i]
		if a == nil {
			continue
		}
		for j := i + 1; j < len(boxes); j++ {
			b := boxes[j]
			if b == nil {
				continue
			}

			res := geom.TestOverlap(a, b, tolerance, policy)
			if !res.Overlapping {
				continue
			}
			conflicts = append(conflicts, Conflict{
				A:         a,
				B:         b,
				IndexA:    i,
				IndexB:    j,
				NameA:     DisplayName(a, i),
				NameB:     DisplayName(b, j),
				Result:    res,
				Tolerance: tolerance,
			})
		}
	}

	return conflicts
}
