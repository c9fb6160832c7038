package systems

import "github.com/pthm-cable/partsim/components"

// Cell is a fixed-capacity bucket of particles.
// Positions and velocities are interleaved x,y pairs so a cell's live
// prefix can be handed to the renderer or to vector kernels as-is.
type Cell struct {
	pos   []float32
	vel   []float32
	count int
}

// Len returns the number of live particles in the cell.
func (c *Cell) Len() int { return c.count }

// Cap returns the fixed number of slots in the cell.
func (c *Cell) Cap() int { return len(c.pos) / 2 }

// Full reports whether every slot is taken.
func (c *Cell) Full() bool { return c.count == len(c.pos)/2 }

// Positions returns the live positions as interleaved x,y pairs.
func (c *Cell) Positions() []float32 { return c.pos[:2*c.count] }

// Velocities returns the live velocities as interleaved x,y pairs.
func (c *Cell) Velocities() []float32 { return c.vel[:2*c.count] }

// Particle returns the i-th live particle.
func (c *Cell) Particle(i int) components.Particle {
	return components.Particle{
		Pos: components.Position{X: c.pos[2*i], Y: c.pos[2*i+1]},
		Vel: components.Velocity{X: c.vel[2*i], Y: c.vel[2*i+1]},
	}
}

// at returns two-element views of slot i.
func (c *Cell) at(i int) (pos, vel []float32) {
	return c.pos[2*i : 2*i+2], c.vel[2*i : 2*i+2]
}

// push appends a particle. Returns false when the cell is full.
func (c *Cell) push(x, y, vx, vy float32) bool {
	if c.Full() {
		return false
	}
	i := 2 * c.count
	c.pos[i], c.pos[i+1] = x, y
	c.vel[i], c.vel[i+1] = vx, vy
	c.count++
	return true
}

// sectorBuffer is one complete grid. Each cell is a capped window into a
// single arena allocated at construction.
type sectorBuffer struct {
	cells    []Cell
	posArena []float32
	velArena []float32
}

func newSectorBuffer(sectors, capacity int) *sectorBuffer {
	stride := 2 * capacity
	b := &sectorBuffer{
		cells:    make([]Cell, sectors),
		posArena: make([]float32, sectors*stride),
		velArena: make([]float32, sectors*stride),
	}
	for i := range b.cells {
		lo, hi := i*stride, (i+1)*stride
		b.cells[i].pos = b.posArena[lo:hi:hi]
		b.cells[i].vel = b.velArena[lo:hi:hi]
	}
	return b
}

func (b *sectorBuffer) clear() {
	for i := range b.cells {
		b.cells[i].count = 0
	}
}

func (b *sectorBuffer) live() int {
	n := 0
	for i := range b.cells {
		n += b.cells[i].count
	}
	return n
}

// Store owns all particle state: two sector buffers used ping-pong style and
// an overflow pool for particles whose cell was full.
type Store struct {
	buffers  [2]*sectorBuffer
	active   int // index of the current buffer
	capacity int
	objects  int
	placed   int // particles added by place since the last reset

	// Interleaved x,y pairs, same layout as a cell.
	overflowPos []float32
	overflowVel []float32
}

// NewStore allocates both buffers for the given population and grid size.
func NewStore(objects, sectors, capacity int) *Store {
	return &Store{
		buffers:     [2]*sectorBuffer{newSectorBuffer(sectors, capacity), newSectorBuffer(sectors, capacity)},
		capacity:    capacity,
		objects:     objects,
		overflowPos: make([]float32, 0, 32),
		overflowVel: make([]float32, 0, 32),
	}
}

func (s *Store) current() *sectorBuffer { return s.buffers[s.active] }
func (s *Store) next() *sectorBuffer    { return s.buffers[s.active^1] }

// Cells returns the cells of the current buffer.
func (s *Store) Cells() []Cell { return s.current().cells }

// Cell returns cell i of the current buffer.
func (s *Store) Cell(i int) *Cell { return &s.current().cells[i] }

// Capacity returns the fixed per-cell capacity.
func (s *Store) Capacity() int { return s.capacity }

// Objects returns the population size the store was built for.
func (s *Store) Objects() int { return s.objects }

// Live returns the number of particles in the current buffer plus overflow.
func (s *Store) Live() int { return s.current().live() + s.OverflowLen() }

// Placed returns how many particles have been placed since the last reset.
// Ticks move particles between buffers and overflow without changing it.
func (s *Store) Placed() int { return s.placed }

// OverflowLen returns the number of particles in the overflow pool.
func (s *Store) OverflowLen() int { return len(s.overflowPos) / 2 }

// Overflow returns the i-th overflow particle.
func (s *Store) Overflow(i int) components.Particle {
	return components.Particle{
		Pos: components.Position{X: s.overflowPos[2*i], Y: s.overflowPos[2*i+1]},
		Vel: components.Velocity{X: s.overflowVel[2*i], Y: s.overflowVel[2*i+1]},
	}
}

func (s *Store) overflowAt(i int) (pos, vel []float32) {
	return s.overflowPos[2*i : 2*i+2], s.overflowVel[2*i : 2*i+2]
}

func (s *Store) pushOverflow(x, y, vx, vy float32) {
	s.overflowPos = append(s.overflowPos, x, y)
	s.overflowVel = append(s.overflowVel, vx, vy)
}

// removeOverflow drops entry i by moving the last entry into its slot.
func (s *Store) removeOverflow(i int) {
	last := len(s.overflowPos) - 2
	j := 2 * i
	s.overflowPos[j], s.overflowPos[j+1] = s.overflowPos[last], s.overflowPos[last+1]
	s.overflowVel[j], s.overflowVel[j+1] = s.overflowVel[last], s.overflowVel[last+1]
	s.overflowPos = s.overflowPos[:last]
	s.overflowVel = s.overflowVel[:last]
}

// place inserts into cell idx of the current buffer, diverting to overflow
// when the cell is full. Returns true if the particle overflowed.
func (s *Store) place(idx int, x, y, vx, vy float32) bool {
	s.placed++
	if s.current().cells[idx].push(x, y, vx, vy) {
		return false
	}
	s.pushOverflow(x, y, vx, vy)
	return true
}

// swap zeroes the buffer that was just read and makes the other one current.
func (s *Store) swap() {
	s.current().clear()
	s.active ^= 1
}

// reset empties both buffers and the overflow pool.
func (s *Store) reset() {
	s.buffers[0].clear()
	s.buffers[1].clear()
	s.active = 0
	s.placed = 0
	s.overflowPos = s.overflowPos[:0]
	s.overflowVel = s.overflowVel[:0]
}

// Each calls fn for every live particle: cells in index order, then overflow.
func (s *Store) Each(fn func(cell int, p components.Particle)) {
	cells := s.current().cells
	for k := range cells {
		c := &cells[k]
		for i := 0; i < c.count; i++ {
			fn(k, c.Particle(i))
		}
	}
	for i := 0; i < s.OverflowLen(); i++ {
		fn(-1, s.Overflow(i))
	}
}

// Occupancy appends the live count of each current cell to dst.
func (s *Store) Occupancy(dst []float64) []float64 {
	for i := range s.current().cells {
		dst = append(dst, float64(s.current().cells[i].count))
	}
	return dst
}

// MaxOccupancy returns the largest live count of any current cell.
func (s *Store) MaxOccupancy() int {
	m := 0
	for i := range s.current().cells {
		if n := s.current().cells[i].count; n > m {
			m = n
		}
	}
	return m
}
