package capture

import (
	"sync"

	"github.com/rviscarra/mirror-capture/internal/frame"
	"github.com/rviscarra/mirror-capture/internal/rdisplay"
	"github.com/rviscarra/mirror-capture/internal/region"
)

// Stats is a point-in-time view of a Capturer's activity.
type Stats struct {
	ID          string            `json:"id"`
	Screen      rdisplay.ScreenID `json:"screen"`
	Captures    uint64            `json:"captures"`
	Failures    uint64            `json:"failures"`
	Rebuilds    uint64            `json:"rebuilds"`
	LastError   string            `json:"lastError,omitempty"`
	LastRects   int               `json:"lastRects"`
	LastArea    int               `json:"lastArea"`
	FrameWidth  int               `json:"frameWidth"`
	FrameHeight int               `json:"frameHeight"`
	ExcludeArea int               `json:"excludeArea"`
}

type statsRecorder struct {
	mu sync.Mutex
	s  Stats
}

func (r *statsRecorder) init(id string, screen rdisplay.ScreenID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s = Stats{ID: id, Screen: screen}
}

func (r *statsRecorder) selected(screen rdisplay.ScreenID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Screen = screen
}

func (r *statsRecorder) rebuilt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Rebuilds++
}

func (r *statsRecorder) failed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Failures++
	r.s.LastError = err.Error()
}

func (r *statsRecorder) captured(f *frame.Frame, exclude region.Region) {
	updated := f.UpdatedRegion()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Captures++
	r.s.LastError = ""
	r.s.LastRects = updated.Len()
	r.s.LastArea = updated.Area()
	r.s.FrameWidth = f.Size().X
	r.s.FrameHeight = f.Size().Y
	r.s.ExcludeArea = exclude.Area()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s
}
