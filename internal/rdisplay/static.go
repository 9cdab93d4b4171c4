package rdisplay

import (
	"fmt"
	"image"
	"sync"
)

// Static is an in-memory monitor layout. It is safe for concurrent use and
// lets callers simulate hot-plug, resolution changes and enumeration
// failures.
type Static struct {
	mu      sync.Mutex
	screens []Screen
	keys    map[ScreenID]DeviceKey
	invalid map[ScreenID]bool
	fail    bool
	gen     int
}

// NewStatic returns a layout holding the given monitor rectangles with ids
// 0..n-1.
func NewStatic(bounds ...image.Rectangle) *Static {
	s := &Static{}
	s.SetLayout(bounds...)
	return s
}

// SetLayout replaces every monitor. Each call issues fresh device keys, as
// a real reconfiguration would.
func (s *Static) SetLayout(bounds ...image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.screens = make([]Screen, len(bounds))
	s.keys = make(map[ScreenID]DeviceKey, len(bounds))
	s.invalid = make(map[ScreenID]bool)
	for i, b := range bounds {
		id := ScreenID(i)
		s.screens[i] = Screen{
			ID:      id,
			Title:   fmt.Sprintf("Static %d", i),
			Bounds:  b,
			Primary: b.Min == image.Point{},
		}
		s.keys[id] = DeviceKey(fmt.Sprintf("static%d.%d", i, s.gen))
	}
}

// Resize changes the bounds of one monitor while keeping its device key.
func (s *Static) Resize(id ScreenID, bounds image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.screens {
		if s.screens[i].ID == id {
			s.screens[i].Bounds = bounds
		}
	}
}

// SetValid marks a monitor as resolvable or not without removing it from
// the list, like an output that is enumerated but detached.
func (s *Static) SetValid(id ScreenID, valid bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalid[id] = !valid
}

// SetFailing makes every query behave like a platform error.
func (s *Static) SetFailing(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *Static) FullScreenRect() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return image.Rectangle{}
	}
	return boundingRect(s.screens)
}

func (s *Static) ScreenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0
	}
	return len(s.screens)
}

func (s *Static) Screens() ([]Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail || len(s.screens) == 0 {
		return nil, ErrNoDisplays
	}
	out := make([]Screen, len(s.screens))
	copy(out, s.screens)
	return out, nil
}

func (s *Static) IsScreenValid(id ScreenID) (DeviceKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(id)
}

func (s *Static) ScreenRect(id ScreenID, key DeviceKey) image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return image.Rectangle{}
	}
	if id == EntireDesktop {
		return boundingRect(s.screens)
	}
	current, ok := s.resolve(id)
	if !ok || current != key {
		return image.Rectangle{}
	}
	for _, sc := range s.screens {
		if sc.ID == id {
			return sc.Bounds
		}
	}
	return image.Rectangle{}
}

func (s *Static) resolve(id ScreenID) (DeviceKey, bool) {
	if s.fail {
		return "", false
	}
	if id == EntireDesktop {
		return "", true
	}
	key, ok := s.keys[id]
	if !ok || s.invalid[id] {
		return "", false
	}
	return key, true
}
