package geom

import (
	"fmt"
	"math"
	"strings"
)

// Policy selects how TestOverlap decides that two boxes conflict.
type Policy int

const (
	// PolicyVolumetric reports a conflict only when the boxes interpenetrate
	// by more than the tolerance on all three axes. Abutting boxes pass.
	PolicyVolumetric Policy = iota

	// PolicyFaceAdjacency reports a conflict when two faces sit on the same
	// plane (within tolerance) and their projections intersect. This catches
	// thin-sheet z-fighting but also flags legitimately abutting geometry.
	PolicyFaceAdjacency
)

func (p Policy) String() string {
	switch p {
	case PolicyVolumetric:
		return "volumetric"
	case PolicyFaceAdjacency:
		return "face"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePolicy converts a policy name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "volumetric", "volume":
		return PolicyVolumetric, nil
	case "face", "face-adjacency", "faces":
		return PolicyFaceAdjacency, nil
	}
	return 0, fmt.Errorf("unknown detection policy %q, expected volumetric or face", s)
}

// OverlapResult describes the relationship between two boxes.
type OverlapResult struct {
	Policy      Policy `json:"policy"`
	Overlapping bool   `json:"overlapping"`
	// Depth is the interpenetration on each axis. It is zero where the
	// boxes touch or are disjoint on that axis.
	Depth Vec3 `json:"depth"`
	// Faces lists the axes on which the boxes have coincident faces whose
	// projections intersect.
	Faces []Axis `json:"faces,omitempty"`
}

// Volumetric reports whether the depth strictly exceeds tolerance on all
// three axes, independent of the policy the result was computed with.
func (r OverlapResult) Volumetric(tolerance float64) bool {
	tol := math.Max(tolerance, 0)
	return r.Depth.X > tol && r.Depth.Y > tol && r.Depth.Z > tol
}

// DeepestAxis returns the axis with the largest overlap depth. Ties go to
// the first axis in X, Y, Z order.
func (r OverlapResult) DeepestAxis() Axis {
	best := AxisX
	for _, a := range Axes[1:] {
		if r.Depth.Get(a) > r.Depth.Get(best) {
			best = a
		}
	}
	return best
}

// FaceLabels returns the touching-face axes as "X-axis" style labels.
func (r OverlapResult) FaceLabels() []string {
	labels := make([]string, len(r.Faces))
	for i, a := range r.Faces {
		labels[i] = a.String()
	}
	return labels
}

// TestOverlap compares two boxes under the given policy. Depth and Faces
// are always filled in; Overlapping is decided by the policy.
//
// A tolerance of zero or less requires exact coincidence.
func TestOverlap(a, b *Box, tolerance float64, policy Policy) OverlapResult {
	ba := EffectiveBounds(a)
	bb := EffectiveBounds(b)

	res := OverlapResult{
		Policy: policy,
		Depth:  overlapDepth(ba, bb),
		Faces:  touchingFaces(ba, bb, tolerance),
	}

	switch policy {
	case PolicyFaceAdjacency:
		res.Overlapping = len(res.Faces) > 0
	default:
		res.Overlapping = res.Volumetric(tolerance)
	}
	return res
}

// overlapDepth computes max(0, min(maxA,maxB) - max(minA,minB)) per axis.
func overlapDepth(a, b Bounds) Vec3 {
	var d Vec3
	for _, ax := range Axes {
		depth := math.Min(a.Max.Get(ax), b.Max.Get(ax)) - math.Max(a.Min.Get(ax), b.Min.Get(ax))
		d = d.With(ax, math.Max(0, depth))
	}
	return d
}

// touchingFaces returns the axes on which a face of a sits on a face of b
// and the projections onto the remaining two axes intersect.
func touchingFaces(a, b Bounds, tolerance float64) []Axis {
	var faces []Axis
	for _, ax := range Axes {
		if !near(a.Max.Get(ax), b.Min.Get(ax), tolerance) && !near(a.Min.Get(ax), b.Max.Get(ax), tolerance) {
			continue
		}
		if BoxesOverlap2D(a.project(ax), b.project(ax)) {
			faces = append(faces, ax)
		}
	}
	return faces
}

func near(x, y, tolerance float64) bool {
	if tolerance <= 0 {
		return x == y
	}
	return math.Abs(x-y) < tolerance
}

// Rect is an axis-aligned rectangle in a 2D projection plane.
type Rect struct {
	MinU, MaxU float64
	MinV, MaxV float64
}

// project drops axis ax and returns the rectangle spanned by the other two.
func (b Bounds) project(ax Axis) Rect {
	u, v := ax.others()
	return Rect{
		MinU: b.Min.Get(u), MaxU: b.Max.Get(u),
		MinV: b.Min.Get(v), MaxV: b.Max.Get(v),
	}
}

// BoxesOverlap2D reports whether two rectangles intersect or touch. The
// test is on closed intervals, so shared edges count.
func BoxesOverlap2D(a, b Rect) bool {
	return !(a.MaxU < b.MinU || a.MinU > b.MaxU || a.MaxV < b.MinV || a.MinV > b.MaxV)
}
