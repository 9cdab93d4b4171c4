package capture

import (
	"image"

	"github.com/rviscarra/mirror-capture/internal/rdisplay"
)

// Selection is what the caller asked to capture.
type Selection struct {
	ID  rdisplay.ScreenID
	Key rdisplay.DeviceKey
}

// IsEntireDesktop reports whether the selection spans every monitor.
func (s Selection) IsEntireDesktop() bool {
	return s.ID == rdisplay.EntireDesktop
}

// geometryTracker answers geometry questions by asking the platform every
// time; it caches nothing.
type geometryTracker struct {
	display rdisplay.Service
}

func (g geometryTracker) desktopRect() image.Rectangle {
	return g.display.FullScreenRect()
}

func (g geometryTracker) screenRect(sel Selection) image.Rectangle {
	return g.display.ScreenRect(sel.ID, sel.Key)
}

func (g geometryTracker) validate(id rdisplay.ScreenID) (rdisplay.DeviceKey, bool) {
	return g.display.IsScreenValid(id)
}
