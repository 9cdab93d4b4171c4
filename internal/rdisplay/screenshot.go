package rdisplay

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ErrNoDisplays is returned when the platform reports no active monitor.
var ErrNoDisplays = errors.New("no active displays")

// ScreenshotProvider implements the rdisplay.Service interface on top of
// the display enumeration in github.com/kbinani/screenshot.
type ScreenshotProvider struct {
	numDisplays func() int
	bounds      func(int) image.Rectangle
}

// NewScreenshotProvider returns a provider backed by the host's displays.
func NewScreenshotProvider() *ScreenshotProvider {
	return &ScreenshotProvider{
		numDisplays: screenshot.NumActiveDisplays,
		bounds:      screenshot.GetDisplayBounds,
	}
}

// Screens returns the available screens to capture
func (p *ScreenshotProvider) Screens() ([]Screen, error) {
	n := p.numDisplays()
	if n <= 0 {
		return nil, ErrNoDisplays
	}
	screens := make([]Screen, 0, n)
	for i := 0; i < n; i++ {
		b := p.bounds(i)
		if b.Empty() {
			continue
		}
		screens = append(screens, Screen{
			ID:      ScreenID(i),
			Title:   fmt.Sprintf("Display %d (%dx%d)", i+1, b.Dx(), b.Dy()),
			Bounds:  b,
			Primary: b.Min == image.Point{},
		})
	}
	if len(screens) == 0 {
		return nil, ErrNoDisplays
	}
	return screens, nil
}

func (p *ScreenshotProvider) ScreenCount() int {
	return p.numDisplays()
}

func (p *ScreenshotProvider) FullScreenRect() image.Rectangle {
	screens, err := p.Screens()
	if err != nil {
		return image.Rectangle{}
	}
	return boundingRect(screens)
}

// IsScreenValid derives the device key from the display index and origin.
// The origin survives resolution changes but not re-arrangement or unplug.
func (p *ScreenshotProvider) IsScreenValid(id ScreenID) (DeviceKey, bool) {
	if id == EntireDesktop {
		return "", true
	}
	if id < 0 || int(id) >= p.numDisplays() {
		return "", false
	}
	b := p.bounds(int(id))
	if b.Empty() {
		return "", false
	}
	return deviceKey(id, b), true
}

func (p *ScreenshotProvider) ScreenRect(id ScreenID, key DeviceKey) image.Rectangle {
	if id == EntireDesktop {
		return p.FullScreenRect()
	}
	current, ok := p.IsScreenValid(id)
	if !ok || current != key {
		return image.Rectangle{}
	}
	return p.bounds(int(id))
}

func deviceKey(id ScreenID, b image.Rectangle) DeviceKey {
	return DeviceKey(fmt.Sprintf("display%d@%d,%d", int64(id), b.Min.X, b.Min.Y))
}
