package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/partsim/systems"
)

// PerfCollector keeps wall-clock timings for the last N ticks, split by
// tick phase. It satisfies systems.PhaseTimer so the world reports its own
// phases; the caller brackets each tick with StartTick and EndTick.
//
// Phase names are interned on first use, so steady-state ticks do not
// allocate.
type PerfCollector struct {
	size  int
	next  int // ring slot the next EndTick writes
	count int // filled slots, at most size

	ticks  []time.Duration   // ring of tick durations
	phases [][]time.Duration // per phase slot, a ring parallel to ticks
	names  []string
	slot   map[string]int
	used   []bool // phase has been started at least once

	current    []time.Duration // phase totals for the tick in progress
	active     int             // phase slot being timed, -1 between phases
	tickStart  time.Time
	phaseStart time.Time

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over window ticks.
// window < 1 falls back to 60.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	p := &PerfCollector{
		size:   window,
		ticks:  make([]time.Duration, window),
		slot:   make(map[string]int, len(systems.Phases)),
		active: -1,
	}
	for _, name := range systems.Phases {
		p.intern(name)
	}
	return p
}

func (p *PerfCollector) intern(name string) int {
	if i, ok := p.slot[name]; ok {
		return i
	}
	i := len(p.names)
	p.slot[name] = i
	p.names = append(p.names, name)
	p.phases = append(p.phases, make([]time.Duration, p.size))
	p.current = append(p.current, 0)
	p.used = append(p.used, false)
	return i
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	for i := range p.current {
		p.current[i] = 0
	}
	p.active = -1
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.active = p.intern(phase)
	p.used[p.active] = true
	p.phaseStart = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.active >= 0 {
		p.current[p.active] += now.Sub(p.phaseStart)
	}
}

// EndTick closes the running phase and stores the tick in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.active = -1

	p.ticks[p.next] = now.Sub(p.tickStart)
	for i, d := range p.current {
		p.phases[i][p.next] = d
	}
	p.next = (p.next + 1) % p.size
	if p.count < p.size {
		p.count++
	}
}

// RecordFrame measures the interval since the previous call. The window
// viewer calls it once per drawn frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarizes a PerfCollector window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P99TickDuration time.Duration

	// Keyed by phase name. Phases never started have no entry.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // share of the average tick, 0-100

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats summarizes the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	// Slots past count are still zero until the ring fills
	window := p.ticks[:p.count]
	sorted := make([]float64, len(window))
	var total time.Duration
	for i, d := range window {
		total += d
		sorted[i] = float64(d)
	}
	sort.Float64s(sorted)

	n := time.Duration(p.count)
	s.AvgTickDuration = total / n
	s.MinTickDuration = time.Duration(sorted[0])
	s.MaxTickDuration = time.Duration(sorted[len(sorted)-1])
	s.P99TickDuration = time.Duration(stat.Quantile(0.99, stat.Empirical, sorted, nil))
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}

	for i, name := range p.names {
		if !p.used[i] {
			continue
		}
		var sum time.Duration
		for _, d := range p.phases[i][:p.count] {
			sum += d
		}
		avg := sum / n
		s.PhaseAvg[name] = avg
		if s.AvgTickDuration > 0 {
			s.PhasePct[name] = float64(avg) / float64(s.AvgTickDuration) * 100
		}
	}
	return s
}

// LogStats emits the window summary as a single "perf" record.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer. Phases are listed in tick order.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("p99_tick_us", s.P99TickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, phase := range systems.Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct >= 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	P99TickUS    int64   `csv:"p99_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	IntegratePct float64 `csv:"integrate_pct"`
	ReflectPct   float64 `csv:"reflect_pct"`
	CollidePct   float64 `csv:"collide_pct"`
	ReconcilePct float64 `csv:"reconcile_pct"`
	ReassignPct  float64 `csv:"reassign_pct"`
	SerializePct float64 `csv:"serialize_pct"`
}

// ToCSV flattens s into a perf.csv row for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		P99TickUS:    s.P99TickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		IntegratePct: s.PhasePct[systems.PhaseIntegrate],
		ReflectPct:   s.PhasePct[systems.PhaseReflect],
		CollidePct:   s.PhasePct[systems.PhaseCollide],
		ReconcilePct: s.PhasePct[systems.PhaseReconcile],
		ReassignPct:  s.PhasePct[systems.PhaseReassign],
		SerializePct: s.PhasePct[systems.PhaseSerialize],
	}
}
