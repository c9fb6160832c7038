package systems

import "github.com/pthm-cable/partsim/components"

// ResolveElastic returns the post-collision velocities of two equal-mass
// bodies whose centers are separated by d = posA - posB. The velocity
// component along d is exchanged; the perpendicular component is kept.
// A zero separation leaves both velocities unchanged.
func ResolveElastic(d, va, vb components.Velocity) (components.Velocity, components.Velocity) {
	dd := d.Dot(d)
	if dd == 0 {
		return va, vb
	}
	nd := d.Scale(-1)
	ka := va.Sub(vb).Dot(d) / dd
	kb := vb.Sub(va).Dot(nd) / dd
	return va.Sub(d.Scale(ka)), vb.Sub(nd.Scale(kb))
}

// pairCheck distance-tests two particles given as two-element views and
// applies the elastic response when they overlap.
func (w *World) pairCheck(ap, av, bp, bv []float32) {
	w.stats.PairsTested++

	dx := ap[0] - bp[0]
	dy := ap[1] - bp[1]
	distSq := dx*dx + dy*dy
	if !(distSq < w.diameterSq) || distSq == 0 {
		return
	}

	na, nb := ResolveElastic(
		components.Velocity{X: dx, Y: dy},
		components.Velocity{X: av[0], Y: av[1]},
		components.Velocity{X: bv[0], Y: bv[1]},
	)
	av[0], av[1] = na.X, na.Y
	bv[0], bv[1] = nb.X, nb.Y
	w.stats.Collisions++
}

// collideWithin checks every unique pair inside one cell, then the cell
// against the overflow pool.
func (w *World) collideWithin(c *Cell) {
	for i := 0; i < c.count; i++ {
		ap, av := c.at(i)
		for j := i + 1; j < c.count; j++ {
			bp, bv := c.at(j)
			w.pairCheck(ap, av, bp, bv)
		}
		for j := 0; j < w.store.OverflowLen(); j++ {
			bp, bv := w.store.overflowAt(j)
			w.pairCheck(ap, av, bp, bv)
		}
	}
}

// collideBetween checks every particle of a against every particle of b.
func (w *World) collideBetween(a, b *Cell) {
	for i := 0; i < a.count; i++ {
		ap, av := a.at(i)
		for j := 0; j < b.count; j++ {
			bp, bv := b.at(j)
			w.pairCheck(ap, av, bp, bv)
		}
	}
}

// collideOverflow checks unique pairs inside the overflow pool.
func (w *World) collideOverflow() {
	n := w.store.OverflowLen()
	for i := 0; i < n; i++ {
		ap, av := w.store.overflowAt(i)
		for j := i + 1; j < n; j++ {
			bp, bv := w.store.overflowAt(j)
			w.pairCheck(ap, av, bp, bv)
		}
	}
}

// collide runs the broad-phase over the current buffer. Each cell is paired
// with its right and below neighbours; the last column, last row and final
// corner are split out so no neighbour test happens per pair.
func (w *World) collide() {
	cells := w.store.current().cells
	cols, rows := w.grid.Cols, w.grid.Rows

	for row := 0; row < rows-1; row++ {
		base := row * cols
		for col := 0; col < cols-1; col++ {
			k := base + col
			w.collideWithin(&cells[k])
			w.collideBetween(&cells[k], &cells[k+1])
			w.collideBetween(&cells[k], &cells[k+cols])
			if w.checkDiagonals {
				w.collideBetween(&cells[k], &cells[k+cols+1])
				if col > 0 {
					w.collideBetween(&cells[k], &cells[k+cols-1])
				}
			}
		}

		// Last column: only the cell below.
		k := base + cols - 1
		w.collideWithin(&cells[k])
		w.collideBetween(&cells[k], &cells[k+cols])
		if w.checkDiagonals && cols > 1 {
			w.collideBetween(&cells[k], &cells[k+cols-1])
		}
	}

	// Last row: only the cell to the right.
	base := (rows - 1) * cols
	for col := 0; col < cols-1; col++ {
		k := base + col
		w.collideWithin(&cells[k])
		w.collideBetween(&cells[k], &cells[k+1])
	}

	// Final corner has no right or below neighbour.
	w.collideWithin(&cells[rows*cols-1])

	w.collideOverflow()
}
