package view

import "math"

// Tau is the full circle in radians.
const Tau = 2 * math.Pi

// Point is a 2D position in layout space. The Y axis grows downward, matching
// screen coordinates, so an angle of -Pi/2 points up.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Angle returns the polar angle of the vector from q to p, in (-Pi, Pi].
func (p Point) Angle(q Point) float64 { return math.Atan2(p.Y-q.Y, p.X-q.X) }

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Polar returns the point at the given angle and radius from origin o.
func Polar(o Point, angle, radius float64) Point {
	return Point{o.X + radius*math.Cos(angle), o.Y + radius*math.Sin(angle)}
}

// NormalizeAngle reduces an angle to [0, Tau).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, Tau)
	if a < 0 {
		a += Tau
	}
	return a
}

// Sector is a contiguous angular interval reserved for a node and its
// descendants. Start is the interval's first angle; Width is its extent in
// radians, at most Tau (the root's full circle). Storing start+width rather
// than start+end keeps intervals that cross the 0/Tau seam unambiguous.
type Sector struct {
	Start float64 `json:"start" bson:"start"`
	Width float64 `json:"width" bson:"width"`
}

// FullCircle is the root sector covering every angle.
func FullCircle() Sector { return Sector{Start: 0, Width: Tau} }

// End returns the sector's final angle, Start + Width.
func (s Sector) End() float64 { return s.Start + s.Width }

// Center returns the sector's middle angle.
func (s Sector) Center() float64 { return s.Start + s.Width/2 }

// Contains reports whether the angle lies inside the sector, handling
// wrap-around across the 0/Tau seam.
func (s Sector) Contains(angle float64) bool {
	if s.Width >= Tau {
		return true
	}
	return NormalizeAngle(angle-s.Start) <= s.Width
}

// ClampAngle returns the angle unchanged if it lies inside the sector,
// otherwise the nearest sector edge. Nearness is angular distance measured
// the short way around.
func (s Sector) ClampAngle(angle float64) float64 {
	if s.Contains(angle) {
		return angle
	}
	// Outside: the offset past Start exceeds Width. Whichever edge is
	// closer the short way around wins.
	off := NormalizeAngle(angle - s.Start)
	distToEnd := off - s.Width
	distToStart := Tau - off
	if distToEnd < distToStart {
		return s.End()
	}
	return s.Start
}

// Shrink returns a sector with the same center and the given fraction of the
// width. A fraction of 0.9 reserves 5% padding on each side.
func (s Sector) Shrink(fraction float64) Sector {
	w := s.Width * fraction
	return Sector{Start: s.Center() - w/2, Width: w}
}
