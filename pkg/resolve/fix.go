package resolve

import (
	"github.com/chazu/zfight/pkg/geom"
)

// Change records one mutation made by ApplyFix.
type Change struct {
	Box  *geom.Box `json:"-"`
	Name string    `json:"name"`

	// Inflate changes.
	Inflated   bool    `json:"inflated,omitempty"`
	OldInflate float64 `json:"old_inflate,omitempty"`
	NewInflate float64 `json:"new_inflate,omitempty"`

	// Separations.
	Moved  bool      `json:"moved,omitempty"`
	Axis   geom.Axis `json:"axis"`
	Offset float64   `json:"offset,omitempty"`
}

// FixResult summarizes an ApplyFix call.
type FixResult struct {
	Method FixMethod `json:"method"`
	// Fixed is the number of distinct boxes mutated for the inflate methods,
	// and the number of conflicts resolved for separate.
	Fixed     int         `json:"fixed"`
	Separated int         `json:"separated"`
	Inflated  int         `json:"inflated"`
	Mutated   []*geom.Box `json:"-"`
	Changes   []Change    `json:"changes"`
}

// boxSet is an insertion-ordered set of boxes keyed by pointer.
type boxSet struct {
	seen  map[*geom.Box]bool
	order []*geom.Box
}

func newBoxSet() *boxSet {
	return &boxSet{seen: make(map[*geom.Box]bool)}
}

func (s *boxSet) add(b *geom.Box) bool {
	if b == nil || s.seen[b] {
		return false
	}
	s.seen[b] = true
	s.order = append(s.order, b)
	return true
}

// Targets returns the distinct boxes a fix with the given method may mutate,
// in first-seen order. Hosts use it to scope their undo transaction.
func Targets(conflicts []Conflict, method FixMethod) []*geom.Box {
	set := newBoxSet()
	for _, c := range conflicts {
		switch method {
		case FixInflateBoth, FixInflateAll:
			set.add(c.A)
			set.add(c.B)
		default:
			set.add(c.B)
		}
	}
	return set.order
}

// ApplyFix mutates the boxes referenced by conflicts in place.
//
// The inflate methods collect the distinct target boxes first and increment
// each one's Inflate by amount exactly once, however many conflicts name it.
//
// Separate handles conflicts in order. A pair that still interpenetrates is
// pulled apart along its deepest axis by moving the second box; a pair that
// only touches falls back to inflating the second box. Each pair is fixed
// on its own, so a later move can re-introduce overlap with an earlier one.
func ApplyFix(conflicts []Conflict, method FixMethod, amount float64) FixResult {
	res := FixResult{Method: method}
	mutated := newBoxSet()

	if method != FixSeparate {
		for _, b := range Targets(conflicts, method) {
			res.Changes = append(res.Changes, inflate(b, nameOf(conflicts, b), amount))
			mutated.add(b)
			res.Inflated++
		}
		res.Fixed = res.Inflated
		res.Mutated = mutated.order
		return res
	}

	inflated := newBoxSet()
	for _, c := range conflicts {
		if c.A == nil || c.B == nil {
			continue
		}

		if !c.Result.Volumetric(c.Tolerance) {
			if inflated.add(c.B) {
				res.Changes = append(res.Changes, inflate(c.B, c.NameB, amount))
				mutated.add(c.B)
				res.Inflated++
				res.Fixed++
			}
			continue
		}

		change, ok := separate(c, amount)
		if !ok {
			// Already cleared by an earlier move in this call.
			continue
		}
		res.Changes = append(res.Changes, change)
		mutated.add(c.B)
		res.Separated++
		res.Fixed++
	}

	res.Mutated = mutated.order
	return res
}

func inflate(b *geom.Box, name string, amount float64) Change {
	old := b.Inflate
	if old == 0 {
		b.Inflate = amount
	} else {
		b.Inflate += amount
	}
	return Change{Box: b, Name: name, Inflated: true, OldInflate: old, NewInflate: b.Inflate}
}

// separate moves c.B along the axis of deepest overlap until it clears c.A
// on that axis, plus amount. The direction is away from A: positive when
// B.From is at or beyond A.From on that axis.
func separate(c Conflict, amount float64) (Change, bool) {
	cur := geom.TestOverlap(c.A, c.B, c.Tolerance, geom.PolicyVolumetric)
	if !cur.Overlapping {
		return Change{}, false
	}

	axis := cur.DeepestAxis()
	ba := geom.EffectiveBounds(c.A)
	bb := geom.EffectiveBounds(c.B)

	var offset float64
	if c.B.From.Get(axis) >= c.A.From.Get(axis) {
		offset = ba.Max.Get(axis) - bb.Min.Get(axis) + amount
	} else {
		offset = -(bb.Max.Get(axis) - ba.Min.Get(axis) + amount)
	}

	c.B.Translate(axis, offset)
	return Change{Box: c.B, Name: c.NameB, Moved: true, Axis: axis, Offset: offset}, true
}

// nameOf finds the display name a conflict assigned to b.
func nameOf(conflicts []Conflict, b *geom.Box) string {
	for _, c := range conflicts {
		if c.A == b {
			return c.NameA
		}
		if c.B == b {
			return c.NameB
		}
	}
	return b.Name
}
