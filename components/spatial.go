// Package components holds the plain value types shared by the simulator and its consumers.
package components

// Position represents a particle center in world units.
type Position struct {
	X, Y float32
}

// Velocity represents a particle's displacement per tick.
type Velocity struct {
	X, Y float32
}

// Particle pairs a position with its velocity.
// Used for explicit initial states and for the overflow pool.
type Particle struct {
	Pos Position
	Vel Velocity
}

// Sub returns p - q as a separation vector.
func (p Position) Sub(q Position) Velocity {
	return Velocity{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dot returns the dot product of two vectors.
func (v Velocity) Dot(w Velocity) float32 {
	return v.X*w.X + v.Y*w.Y
}

// Sub returns v - w.
func (v Velocity) Sub(w Velocity) Velocity {
	return Velocity{X: v.X - w.X, Y: v.Y - w.Y}
}

// Scale returns v scaled by s.
func (v Velocity) Scale(s float32) Velocity {
	return Velocity{X: v.X * s, Y: v.Y * s}
}

// LenSq returns the squared length of v.
func (v Velocity) LenSq() float32 {
	return v.X*v.X + v.Y*v.Y
}
