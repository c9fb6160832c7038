package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/pthm-cable/partsim/telemetry"
)

// Sonifier plays a cue for each bookmark through the system speaker.
// A nil or uninitialized Sonifier ignores bookmarks.
type Sonifier struct {
	mu          sync.Mutex
	sampleRate  beep.SampleRate
	volume      float64
	mixer       *beep.Mixer
	initialized bool
}

// NewSonifier creates a sonifier. Call Initialize to open the speaker.
func NewSonifier(sampleRate int, volume float64) *Sonifier {
	return &Sonifier{
		sampleRate: beep.SampleRate(sampleRate),
		volume:     volume,
		mixer:      &beep.Mixer{},
	}
}

// Initialize opens the speaker with a 100ms buffer and starts the mixer.
func (s *Sonifier) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := speaker.Init(s.sampleRate, s.sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

// Enabled reports whether the speaker is open.
func (s *Sonifier) Enabled() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Bookmark queues the cue for b. Unknown bookmark types are ignored.
func (s *Sonifier) Bookmark(b telemetry.Bookmark) {
	if !s.Enabled() {
		return
	}
	cue, ok := CueFor(b.Type)
	if !ok {
		return
	}
	stream, err := cue.Streamer(s.sampleRate, s.volume)
	if err != nil {
		slog.Warn("audio cue failed", "type", string(b.Type), "error", err)
		return
	}

	speaker.Lock()
	s.mixer.Add(stream)
	speaker.Unlock()
}

// Close stops playback and releases the speaker.
func (s *Sonifier) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	s.initialized = false
}
