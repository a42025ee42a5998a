package geom

// Box is an axis-aligned cuboid defined by two corner points. From and To
// are not required to be ordered. Inflate grows every face outward by the
// same amount; a negative value shrinks the box.
//
// A *Box is the identity of a cube: the resolver mutates boxes in place and
// de-duplicates them by pointer.
type Box struct {
	Name    string  `json:"name,omitempty"`
	From    Vec3    `json:"from"`
	To      Vec3    `json:"to"`
	Inflate float64 `json:"inflate,omitempty"`
}

// Bounds is an ordered axis-aligned extent. Min <= Max holds on every axis
// for bounds produced by EffectiveBounds.
type Bounds struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// EffectiveBounds returns the box extent with inflation applied: per axis
// [min(from,to) - inflate, max(from,to) + inflate].
//
// If a negative inflate would invert an axis (min > max), that axis
// collapses to zero width at the midpoint of the uninflated extent.
func EffectiveBounds(b *Box) Bounds {
	lo := b.From.Min(b.To)
	hi := b.From.Max(b.To)

	var out Bounds
	for _, a := range Axes {
		start := lo.Get(a) - b.Inflate
		end := hi.Get(a) + b.Inflate
		if start > end {
			mid := (lo.Get(a) + hi.Get(a)) / 2
			start, end = mid, mid
		}
		out.Min = out.Min.With(a, start)
		out.Max = out.Max.With(a, end)
	}
	return out
}

// Size returns the extent of the bounds on each axis.
func (b Bounds) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Degenerate reports whether the bounds have zero width on any axis.
func (b Bounds) Degenerate() bool {
	s := b.Size()
	return s.X <= 0 || s.Y <= 0 || s.Z <= 0
}

// Intersection returns the shared region of b and o. The second result is
// false when the bounds are disjoint on some axis; touching bounds yield a
// zero-width region and true.
func (b Bounds) Intersection(o Bounds) (Bounds, bool) {
	out := Bounds{Min: b.Min.Max(o.Min), Max: b.Max.Min(o.Max)}
	for _, a := range Axes {
		if out.Min.Get(a) > out.Max.Get(a) {
			return Bounds{}, false
		}
	}
	return out, true
}

// Translate moves both corners of the box by d along axis a. Inflate is
// unchanged, so the effective bounds shift by exactly d.
func (b *Box) Translate(a Axis, d float64) {
	b.From = b.From.With(a, b.From.Get(a)+d)
	b.To = b.To.With(a, b.To.Get(a)+d)
}
