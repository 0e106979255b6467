// Package mv holds the value types shared by every stage of the inter search:
// quarter-sample motion vectors, integer search windows, prediction block
// geometry, committed motion records, the rate-distortion cost model and the
// bit-cost oracle.
package mv

import "fmt"

// FracBits is the number of fractional bits carried by an MV component.
// MVs are stored in quarter-sample units.
const FracBits = 2

// FracMask extracts the fractional phase of an MV component.
const FracMask = 1<<FracBits - 1

// Limits of a stored MV component (16-bit signed, matching the motion field).
const (
	MinComponent = -1 << 15
	MaxComponent = 1<<15 - 1
)

// MV is a 2-D displacement in quarter-sample units.
type MV struct {
	X, Y int
}

// Zero is the zero vector.
var Zero = MV{}

// FromInt converts an integer-sample displacement to quarter-sample units.
func FromInt(x, y int) MV {
	return MV{X: x << FracBits, Y: y << FracBits}
}

// Add returns m + o.
func (m MV) Add(o MV) MV { return MV{X: m.X + o.X, Y: m.Y + o.Y} }

// Sub returns m - o.
func (m MV) Sub(o MV) MV { return MV{X: m.X - o.X, Y: m.Y - o.Y} }

// Neg returns -m.
func (m MV) Neg() MV { return MV{X: -m.X, Y: -m.Y} }

// Shl scales both components by 1<<s.
func (m MV) Shl(s int) MV { return MV{X: m.X << s, Y: m.Y << s} }

// Shr shifts both components right arithmetically by s.
func (m MV) Shr(s int) MV { return MV{X: m.X >> s, Y: m.Y >> s} }

// IsZero reports whether both components are zero.
func (m MV) IsZero() bool { return m.X == 0 && m.Y == 0 }

// Int returns the integer-sample part of m (floor division by four).
func (m MV) Int() (x, y int) { return m.X >> FracBits, m.Y >> FracBits }

// Frac returns the fractional phases of m in [0, 3].
func (m MV) Frac() (fx, fy int) { return m.X & FracMask, m.Y & FracMask }

// IsInt reports whether m lies on the integer-sample lattice.
func (m MV) IsInt() bool { return m.X&FracMask == 0 && m.Y&FracMask == 0 }

// Clip clamps both components into the storable 16-bit range.
func (m MV) Clip() MV {
	return MV{X: clip(m.X, MinComponent, MaxComponent), Y: clip(m.Y, MinComponent, MaxComponent)}
}

func (m MV) String() string {
	return fmt.Sprintf("(%d,%d)", m.X, m.Y)
}

// RoundShift divides v by 1<<shift rounding half away from zero.
func RoundShift(v, shift int) int {
	if shift == 0 {
		return v
	}
	off := 1 << (shift - 1)
	if v >= 0 {
		return (v + off) >> shift
	}
	return -((-v + off) >> shift)
}

// Precision is the coded MV resolution of a block.
type Precision int

const (
	// Quarter is the default quarter-sample resolution.
	Quarter Precision = iota
	// Integer restricts MVs and MVDs to whole samples.
	Integer
	// Four restricts MVs and MVDs to multiples of four samples.
	Four
)

// Shift returns the number of quarter-sample bits dropped at precision p.
func (p Precision) Shift() int {
	switch p {
	case Integer:
		return 2
	case Four:
		return 4
	default:
		return 0
	}
}

func (p Precision) String() string {
	switch p {
	case Quarter:
		return "quarter"
	case Integer:
		return "int"
	case Four:
		return "4pel"
	default:
		return "unknown"
	}
}

// RoundTo rounds m onto the lattice of precision p (still in quarter units).
func (m MV) RoundTo(p Precision) MV {
	s := p.Shift()
	if s == 0 {
		return m
	}
	return MV{X: RoundShift(m.X, s) << s, Y: RoundShift(m.Y, s) << s}
}

// Scale rescales m by the POC distance ratio tb/td using the fixed-point
// temporal scaler of the motion field.
func (m MV) Scale(tb, td int) MV {
	if td == tb || td == 0 {
		return m
	}
	tb = clip(tb, -128, 127)
	td = clip(td, -128, 127)
	tx := (16384 + abs(td)/2) / td
	f := clip((tb*tx+32)>>6, -4096, 4095)
	return MV{X: scaleComponent(m.X, f), Y: scaleComponent(m.Y, f)}
}

func scaleComponent(v, f int) int {
	p := f * v
	s := 1
	if p < 0 {
		s = -1
		p = -p
	}
	return clip(s*((p+127)>>8), MinComponent, MaxComponent)
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
