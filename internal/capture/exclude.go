package capture

import (
	"image"

	"github.com/rviscarra/mirror-capture/internal/region"
)

// excludeRegion returns the part of the desktop, in desktop-local
// coordinates, that no currently valid monitor covers. Changes reported
// there are driver noise. It is empty unless sel is the entire desktop.
//
// Monitor offsets use the absolute distance from the desktop origin. For a
// desktop whose Min is the top-left of its leftmost/topmost monitor this is
// the plain difference, since no monitor can sit above or left of it.
func (g geometryTracker) excludeRegion(desktop image.Rectangle, sel Selection) region.Region {
	if !sel.IsEntireDesktop() {
		return region.Region{}
	}

	exclude := region.New(desktop.Sub(desktop.Min))

	screens, err := g.display.Screens()
	if err != nil {
		return exclude
	}

	for _, s := range screens {
		key, ok := g.validate(s.ID)
		if !ok {
			continue
		}
		r := g.display.ScreenRect(s.ID, key)
		if r.Empty() {
			continue
		}
		x := abs(r.Min.X - desktop.Min.X)
		y := abs(r.Min.Y - desktop.Min.Y)
		exclude = exclude.SubtractRect(image.Rect(x, y, x+r.Dx(), y+r.Dy()))
	}
	return exclude
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
