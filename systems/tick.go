package systems

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
)

// Process advances the world by one tick: integrate, reflect at the walls,
// resolve collisions, reconcile overflow, reassign every particle into the
// other buffer, then swap buffers.
//
// A geometry error aborts the tick and leaves the world unusable until Reset.
func (w *World) Process() error {
	if w.err != nil {
		return fmt.Errorf("%w: %w", ErrPoisoned, w.err)
	}
	w.stats = TickStats{}

	w.phase(PhaseIntegrate)
	w.integrate()

	w.phase(PhaseReflect)
	w.reflect()

	w.phase(PhaseCollide)
	w.collide()

	w.phase(PhaseReconcile)
	if err := w.reconcile(); err != nil {
		return w.abort("reconciling overflow", err)
	}

	w.phase(PhaseReassign)
	if err := w.reassign(); err != nil {
		return w.abort("reassigning particles", err)
	}

	w.store.swap()
	w.stats.Overflow = w.store.OverflowLen()
	w.tick++
	return nil
}

func (w *World) abort(stage string, err error) error {
	w.err = fmt.Errorf("tick %d: %s: %w", w.tick, stage, err)
	return w.err
}

// integrate adds one tick of velocity to every position.
func (w *World) integrate() {
	cells := w.store.current().cells
	for k := range cells {
		c := &cells[k]
		if c.count == 0 {
			continue
		}
		n := 2 * c.count
		blas32.Axpy(1,
			blas32.Vector{N: n, Inc: 1, Data: c.vel[:n]},
			blas32.Vector{N: n, Inc: 1, Data: c.pos[:n]},
		)
	}

	pos, vel := w.store.overflowPos, w.store.overflowVel
	for i := range pos {
		pos[i] += vel[i]
	}
}

// reflect bounces particles off the four walls.
func (w *World) reflect() {
	maxX, maxY := w.grid.Width, w.grid.Height
	cells := w.store.current().cells
	for k := range cells {
		c := &cells[k]
		for i := 0; i < c.count; i++ {
			j := 2 * i
			reflectAxis(&c.pos[j], &c.vel[j], w.radius, maxX)
			reflectAxis(&c.pos[j+1], &c.vel[j+1], w.radius, maxY)
		}
	}

	pos, vel := w.store.overflowPos, w.store.overflowVel
	for j := 0; j < len(pos); j += 2 {
		reflectAxis(&pos[j], &vel[j], w.radius, maxX)
		reflectAxis(&pos[j+1], &vel[j+1], w.radius, maxY)
	}
}

// reflectAxis pulls a coordinate back inside [radius, limit-radius] and
// reverses its velocity component.
func reflectAxis(p, v *float32, radius, limit float32) {
	if *p+radius > limit {
		*p -= *p + radius - limit
		*v = -*v
	}
	if *p < radius {
		*p -= *p - radius
		*v = -*v
	}
}

// reconcile moves overflow particles back into their cell of the current
// buffer when it has room. Pool order is not preserved.
func (w *World) reconcile() error {
	s := w.store
	cells := s.current().cells
	for i := 0; i < s.OverflowLen(); {
		p, v := s.overflowAt(i)
		idx, err := w.grid.Index(p[0], p[1])
		if err != nil {
			return err
		}
		if cells[idx].push(p[0], p[1], v[0], v[1]) {
			s.removeOverflow(i)
			w.stats.Reconciled++
			continue
		}
		i++
	}
	return nil
}

// reassign scatters every particle of the current buffer into the cell of
// the next buffer that matches its position. Full cells divert to overflow.
func (w *World) reassign() error {
	s := w.store
	cur, next := s.current().cells, s.next().cells
	for k := range cur {
		c := &cur[k]
		for i := 0; i < c.count; i++ {
			j := 2 * i
			x, y := c.pos[j], c.pos[j+1]
			idx, err := w.grid.Index(x, y)
			if err != nil {
				return err
			}
			if !next[idx].push(x, y, c.vel[j], c.vel[j+1]) {
				s.pushOverflow(x, y, c.vel[j], c.vel[j+1])
				w.stats.Diverted++
			}
		}
	}
	return nil
}
