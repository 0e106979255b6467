package mv

// Range is an inclusive integer-sample box of MV displacements.
// An empty range has Right < Left or Bottom < Top.
type Range struct {
	Left, Right int
	Top, Bottom int
}

// Around returns the box of radius r centred on the integer part of c.
func Around(c MV, r int) Range {
	x, y := c.Int()
	return Range{Left: x - r, Right: x + r, Top: y - r, Bottom: y + r}
}

// Empty reports whether r contains no point.
func (r Range) Empty() bool { return r.Right < r.Left || r.Bottom < r.Top }

// Intersect returns the overlap of r and o.
func (r Range) Intersect(o Range) Range {
	return Range{
		Left:   max(r.Left, o.Left),
		Right:  min(r.Right, o.Right),
		Top:    max(r.Top, o.Top),
		Bottom: min(r.Bottom, o.Bottom),
	}
}

// ContainsInt reports whether the integer displacement (x, y) is in r.
func (r Range) ContainsInt(x, y int) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Contains reports whether the quarter-sample vector v has its integer part
// inside r. Because the interpolation footprint is accounted for when the
// legal range is built, any fractional phase of a contained integer part is
// legal as well.
func (r Range) Contains(v MV) bool {
	x, y := v.Int()
	return r.ContainsInt(x, y)
}

// Clamp moves v to the nearest vector whose integer part is inside r,
// keeping the fractional phase where possible.
func (r Range) Clamp(v MV) MV {
	if r.Empty() {
		panic("mv: clamp into empty range")
	}
	lo, hi := r.Left<<FracBits, r.Right<<FracBits|FracMask
	v.X = clip(v.X, lo, hi)
	lo, hi = r.Top<<FracBits, r.Bottom<<FracBits|FracMask
	v.Y = clip(v.Y, lo, hi)
	return v
}

// ClampInt clamps an integer displacement into r.
func (r Range) ClampInt(x, y int) (int, int) {
	return clip(x, r.Left, r.Right), clip(y, r.Top, r.Bottom)
}

// Width returns the number of integer columns in r.
func (r Range) Width() int { return r.Right - r.Left + 1 }

// Height returns the number of integer rows in r.
func (r Range) Height() int { return r.Bottom - r.Top + 1 }
