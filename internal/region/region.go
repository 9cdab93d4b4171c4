// Package region implements a small set algebra over axis-aligned
// rectangles. A Region is a value: every operation returns a new Region and
// never modifies its receiver, so regions can be shared freely.
package region

import (
	"fmt"
	"image"
	"log/slog"
	"sort"
	"strings"
)

// Region is a set of pixels described by disjoint, non-empty rectangles.
// The zero value is the empty region.
type Region struct {
	rects []image.Rectangle
}

// New returns the union of the given rectangles.
func New(rects ...image.Rectangle) Region {
	var r Region
	for _, rc := range rects {
		r = r.Add(rc)
	}
	return r
}

// Add returns the union of r and rc.
func (r Region) Add(rc image.Rectangle) Region {
	rc = rc.Canon()
	if rc.Empty() {
		return r
	}

	pieces := []image.Rectangle{rc}
	for _, existing := range r.rects {
		pieces = cutAll(pieces, existing)
		if len(pieces) == 0 {
			return r
		}
	}

	out := make([]image.Rectangle, 0, len(r.rects)+len(pieces))
	out = append(out, r.rects...)
	out = append(out, pieces...)
	sortRects(out)
	return Region{rects: out}
}

// Union returns the union of r and other.
func (r Region) Union(other Region) Region {
	if r.IsEmpty() {
		return other
	}
	for _, rc := range other.rects {
		r = r.Add(rc)
	}
	return r
}

// SubtractRect returns r with rc removed.
func (r Region) SubtractRect(rc image.Rectangle) Region {
	rc = rc.Canon()
	if rc.Empty() || r.IsEmpty() {
		return r
	}
	return Region{rects: cutAll(r.rects, rc)}
}

// Subtract returns r with every pixel of other removed.
func (r Region) Subtract(other Region) Region {
	if r.IsEmpty() || other.IsEmpty() {
		return r
	}
	rects := r.rects
	for _, rc := range other.rects {
		rects = cutAll(rects, rc)
		if len(rects) == 0 {
			return Region{}
		}
	}
	return Region{rects: rects}
}

// Intersect returns the part of r that lies inside rc.
func (r Region) Intersect(rc image.Rectangle) Region {
	var out []image.Rectangle
	for _, existing := range r.rects {
		if in := existing.Intersect(rc); !in.Empty() {
			out = append(out, in)
		}
	}
	sortRects(out)
	return Region{rects: out}
}

// Translate returns r shifted by (dx, dy).
func (r Region) Translate(dx, dy int) Region {
	if r.IsEmpty() {
		return r
	}
	d := image.Pt(dx, dy)
	out := make([]image.Rectangle, len(r.rects))
	for i, rc := range r.rects {
		out[i] = rc.Add(d)
	}
	return Region{rects: out}
}

// IsEmpty reports whether r contains no pixels.
func (r Region) IsEmpty() bool {
	return len(r.rects) == 0
}

// Rects returns a copy of the disjoint rectangles making up r, ordered
// top-to-bottom then left-to-right.
func (r Region) Rects() []image.Rectangle {
	out := make([]image.Rectangle, len(r.rects))
	copy(out, r.rects)
	return out
}

// Len is the number of rectangles in the representation of r.
func (r Region) Len() int {
	return len(r.rects)
}

// Bounds returns the smallest rectangle containing r.
func (r Region) Bounds() image.Rectangle {
	var b image.Rectangle
	for _, rc := range r.rects {
		b = b.Union(rc)
	}
	return b
}

// Area returns the number of pixels in r.
func (r Region) Area() int {
	area := 0
	for _, rc := range r.rects {
		area += rc.Dx() * rc.Dy()
	}
	return area
}

// Contains reports whether pt lies inside r.
func (r Region) Contains(pt image.Point) bool {
	for _, rc := range r.rects {
		if pt.In(rc) {
			return true
		}
	}
	return false
}

// Equal reports whether r and other cover exactly the same pixels, regardless
// of how either is split into rectangles.
func (r Region) Equal(other Region) bool {
	if r.Area() != other.Area() {
		return false
	}
	return r.Subtract(other).IsEmpty()
}

func (r Region) String() string {
	parts := make([]string, len(r.rects))
	for i, rc := range r.rects {
		parts[i] = fmt.Sprintf("(%d,%d %dx%d)", rc.Min.X, rc.Min.Y, rc.Dx(), rc.Dy())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// LogValue keeps log lines short for regions with many rectangles.
func (r Region) LogValue() slog.Value {
	b := r.Bounds()
	return slog.GroupValue(
		slog.Int("rects", len(r.rects)),
		slog.Int("area", r.Area()),
		slog.String("bounds", fmt.Sprintf("%d,%d %dx%d", b.Min.X, b.Min.Y, b.Dx(), b.Dy())),
	)
}

// cutAll removes b from every rectangle in rects and returns the pieces in
// canonical order. The input slice is not modified.
func cutAll(rects []image.Rectangle, b image.Rectangle) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(rects))
	for _, a := range rects {
		out = append(out, cut(a, b)...)
	}
	sortRects(out)
	return out
}

// cut returns a minus b as at most four disjoint rectangles: full-width bands
// above and below the overlap, then the left and right remainders beside it.
func cut(a, b image.Rectangle) []image.Rectangle {
	in := a.Intersect(b)
	if in.Empty() {
		return []image.Rectangle{a}
	}

	out := make([]image.Rectangle, 0, 4)
	if a.Min.Y < in.Min.Y {
		out = append(out, image.Rect(a.Min.X, a.Min.Y, a.Max.X, in.Min.Y))
	}
	if in.Max.Y < a.Max.Y {
		out = append(out, image.Rect(a.Min.X, in.Max.Y, a.Max.X, a.Max.Y))
	}
	if a.Min.X < in.Min.X {
		out = append(out, image.Rect(a.Min.X, in.Min.Y, in.Min.X, in.Max.Y))
	}
	if in.Max.X < a.Max.X {
		out = append(out, image.Rect(in.Max.X, in.Min.Y, a.Max.X, in.Max.Y))
	}
	return out
}

func sortRects(rects []image.Rectangle) {
	sort.Slice(rects, func(i, j int) bool {
		if rects[i].Min.Y != rects[j].Min.Y {
			return rects[i].Min.Y < rects[j].Min.Y
		}
		return rects[i].Min.X < rects[j].Min.X
	})
}
