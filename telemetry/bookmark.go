package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkOverflowSpike   BookmarkType = "overflow_spike"
	BookmarkOverflowDrained BookmarkType = "overflow_drained"
	BookmarkCollisionBurst  BookmarkType = "collision_burst"
	BookmarkCapacityReached BookmarkType = "capacity_reached"
	BookmarkSteadyOccupancy BookmarkType = "steady_occupancy"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int64        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	sawOverflow        bool // overflow was non-empty at some earlier window end
	capacityHit        bool // capacity_reached already fired
	steadyWindowsCount int  // consecutive windows with steady occupancy spread
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady occupancy detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Overflow spike: peak overflow > 2x rolling average
		if b := bd.checkOverflowSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Collision burst: collisions per tick > 2x rolling average
		if b := bd.checkCollisionBurst(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Steady occupancy: spread across cells stable over 5+ windows
		if b := bd.checkSteadyOccupancy(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Overflow drained: pool empty again after having been used
	if b := bd.checkOverflowDrained(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Capacity reached: some cell filled every slot
	if b := bd.checkCapacityReached(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkOverflowSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += float64(h.OverflowMax)
	}
	avg := total / float64(len(history))

	// An empty history average makes any overflow a spike; require a few particles.
	if float64(stats.OverflowMax) > avg*2.0 && stats.OverflowMax >= 3 {
		return &Bookmark{
			Type:        BookmarkOverflowSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Overflow peaked at %d against a rolling average of %.1f", stats.OverflowMax, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkOverflowDrained(stats WindowStats) *Bookmark {
	if stats.OverflowEnd > 0 {
		bd.sawOverflow = true
		return nil
	}
	if !bd.sawOverflow {
		return nil
	}

	bd.sawOverflow = false
	return &Bookmark{
		Type:        BookmarkOverflowDrained,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Overflow pool empty after peaking at %d this window", stats.OverflowMax),
	}
}

func (bd *BookmarkDetector) checkCollisionBurst(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.CollisionsPerTick
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.CollisionsPerTick > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkCollisionBurst,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Collisions per tick %.2f is %.1fx average (%.2f)", stats.CollisionsPerTick, stats.CollisionsPerTick/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkCapacityReached(stats WindowStats) *Bookmark {
	if bd.capacityHit || stats.Capacity == 0 || stats.OccupancyMax < stats.Capacity {
		return nil
	}

	bd.capacityHit = true
	return &Bookmark{
		Type:        BookmarkCapacityReached,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("A cell filled all %d slots (expected overflow probability %.2g)", stats.Capacity, stats.OverflowProb),
	}
}

func (bd *BookmarkDetector) checkSteadyOccupancy(stats WindowStats) *Bookmark {
	if stats.OccupancyMean == 0 {
		bd.steadyWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	var sum float64
	for _, h := range history[len(history)-4:] {
		sum += h.OccupancyStd
	}
	mean := sum / 4

	var variance float64
	for _, h := range history[len(history)-4:] {
		d := h.OccupancyStd - mean
		variance += d * d
	}
	variance /= 4

	// CV^2 < 0.04 means CV < 0.2
	if mean > 0 && variance/(mean*mean) < 0.04 {
		bd.steadyWindowsCount++
	} else {
		bd.steadyWindowsCount = 0
	}

	if bd.steadyWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSteadyOccupancy,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Occupancy spread steady near %.2f per cell over 5+ windows", mean),
		}
	}

	return nil
}
