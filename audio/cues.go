// Package audio plays short tones when the telemetry detector fires a bookmark.
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"

	"github.com/pthm-cable/partsim/telemetry"
)

// Note is a single sine tone.
type Note struct {
	Freq     float64
	Duration time.Duration
}

// Cue is a sequence of notes played for one bookmark type.
type Cue struct {
	Notes   []Note
	Release time.Duration // fade at the end of each note
	Gain    float64       // relative loudness before the master volume
}

// Overflow cues rise in pitch and the drained cue falls.
var cues = map[telemetry.BookmarkType]Cue{
	telemetry.BookmarkOverflowSpike: {
		Notes:   []Note{{440, 80 * time.Millisecond}, {660, 120 * time.Millisecond}},
		Release: 40 * time.Millisecond,
		Gain:    0.8,
	},
	telemetry.BookmarkOverflowDrained: {
		Notes:   []Note{{660, 80 * time.Millisecond}, {440, 120 * time.Millisecond}},
		Release: 40 * time.Millisecond,
		Gain:    0.6,
	},
	telemetry.BookmarkCollisionBurst: {
		Notes:   []Note{{1320, 30 * time.Millisecond}, {1320, 30 * time.Millisecond}, {1320, 30 * time.Millisecond}},
		Release: 10 * time.Millisecond,
		Gain:    0.5,
	},
	telemetry.BookmarkCapacityReached: {
		Notes:   []Note{{220, 250 * time.Millisecond}},
		Release: 100 * time.Millisecond,
		Gain:    1,
	},
	telemetry.BookmarkSteadyOccupancy: {
		Notes:   []Note{{523.25, 150 * time.Millisecond}, {659.25, 150 * time.Millisecond}, {783.99, 200 * time.Millisecond}},
		Release: 60 * time.Millisecond,
		Gain:    0.5,
	},
}

// CueFor returns the cue for a bookmark type.
func CueFor(t telemetry.BookmarkType) (Cue, bool) {
	c, ok := cues[t]
	return c, ok
}

// Samples returns the total length of the cue at the given rate.
func (c Cue) Samples(sr beep.SampleRate) int {
	n := 0
	for _, note := range c.Notes {
		n += sr.N(note.Duration)
	}
	return n
}

// Streamer renders the cue at the given sample rate and master volume.
func (c Cue) Streamer(sr beep.SampleRate, volume float64) (beep.Streamer, error) {
	if len(c.Notes) == 0 {
		return nil, fmt.Errorf("cue has no notes")
	}
	parts := make([]beep.Streamer, 0, len(c.Notes))
	for _, note := range c.Notes {
		tone, err := generators.SineTone(sr, note.Freq)
		if err != nil {
			return nil, fmt.Errorf("note %gHz: %w", note.Freq, err)
		}
		n := sr.N(note.Duration)
		parts = append(parts, newRelease(beep.Take(n, tone), n, sr.N(c.Release)))
	}
	return newVolume(beep.Seq(parts...), c.Gain*volume), nil
}

// release fades the last samples of a fixed-length stream to silence.
type release struct {
	streamer beep.Streamer
	position int
	total    int
	fade     int
}

func newRelease(s beep.Streamer, total, fade int) beep.Streamer {
	if fade > total {
		fade = total
	}
	return &release{streamer: s, total: total, fade: fade}
}

func (r *release) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = r.streamer.Stream(samples)
	start := r.total - r.fade
	for i := 0; i < n; i++ {
		if r.position >= start && r.fade > 0 {
			vol := float64(r.total-r.position) / float64(r.fade)
			samples[i][0] *= vol
			samples[i][1] *= vol
		}
		r.position++
	}
	return n, ok
}

func (r *release) Err() error { return r.streamer.Err() }

// newVolume applies a linear gain. math.Log2(0) is -Inf, so zero is silent.
func newVolume(s beep.Streamer, gain float64) beep.Streamer {
	if gain <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(gain)}
}
