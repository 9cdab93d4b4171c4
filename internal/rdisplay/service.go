package rdisplay

import (
	"fmt"
	"image"
)

// ScreenID identifies a monitor in the current enumeration.
type ScreenID int64

// EntireDesktop selects the virtual desktop spanning every monitor.
const EntireDesktop ScreenID = -1

func (id ScreenID) String() string {
	if id == EntireDesktop {
		return "desktop"
	}
	return fmt.Sprintf("screen-%d", int64(id))
}

// DeviceKey binds a ScreenID to the physical output it resolved to. A key
// stops resolving when that output goes away, even if the id is reused.
type DeviceKey string

// Screen describes one active monitor.
type Screen struct {
	ID      ScreenID        `json:"id"`
	Title   string          `json:"title"`
	Bounds  image.Rectangle `json:"-"`
	Primary bool            `json:"primary"`
}

// Service enumerates the monitors of the host. Implementations keep no
// state between calls: every method re-queries the platform.
type Service interface {
	// FullScreenRect returns the bounding rectangle of all active monitors,
	// or an empty rectangle if it cannot be determined.
	FullScreenRect() image.Rectangle
	ScreenCount() int
	Screens() ([]Screen, error)
	// IsScreenValid resolves id to its current device key. EntireDesktop is
	// always valid.
	IsScreenValid(id ScreenID) (DeviceKey, bool)
	// ScreenRect returns the rectangle of id, or of the whole desktop for
	// EntireDesktop. It is empty when id no longer resolves to key.
	ScreenRect(id ScreenID, key DeviceKey) image.Rectangle
}

// boundingRect is the union of the given screens' bounds.
func boundingRect(screens []Screen) image.Rectangle {
	var r image.Rectangle
	for _, s := range screens {
		r = r.Union(s.Bounds)
	}
	return r
}
