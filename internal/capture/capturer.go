// Package capture turns a mirror driver session into a sequence of frames
// for one selected screen, carrying only the rectangles that changed.
//
// A Capturer is not safe for concurrent use. Calls are expected from a single
// scheduling goroutine; only Stats may be read from elsewhere.
package capture

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rviscarra/mirror-capture/internal/frame"
	"github.com/rviscarra/mirror-capture/internal/logging"
	"github.com/rviscarra/mirror-capture/internal/mirror"
	"github.com/rviscarra/mirror-capture/internal/rdisplay"
	"github.com/rviscarra/mirror-capture/internal/region"
)

// resources are owned by the Capturer and discarded together.
type resources struct {
	session mirror.Session
	frame   *frame.Frame
}

// Capturer sequences geometry checks, driver session and frame buffer
// (re)allocation, dirty region retrieval and pixel copy.
type Capturer struct {
	id     string
	geo    geometryTracker
	driver mirror.Driver
	alloc  frame.Allocator
	log    *slog.Logger

	selection Selection
	desktop   image.Rectangle
	screen    image.Rectangle
	res       resources
	exclude   region.Region

	stats statsRecorder
}

// New returns a Capturer targeting the entire desktop. A nil alloc uses
// frame.NewAllocator with no pixel cap.
func New(display rdisplay.Service, driver mirror.Driver, alloc frame.Allocator) *Capturer {
	if alloc == nil {
		alloc = frame.NewAllocator(0)
	}
	id := uuid.NewString()
	c := &Capturer{
		id:        id,
		geo:       geometryTracker{display: display},
		driver:    driver,
		alloc:     alloc,
		log:       logging.L("capture").With(slog.String(logging.KeyCapturer, id)),
		selection: Selection{ID: rdisplay.EntireDesktop},
	}
	c.stats.init(id, c.selection.ID)
	return c
}

// ID identifies this capturer in logs and stats.
func (c *Capturer) ID() string {
	return c.id
}

// Selection returns the current capture target.
func (c *Capturer) Selection() Selection {
	return c.selection
}

// ProbeAvailability binds a session to the current desktop, if none exists,
// to find out whether the driver is usable. It allocates no frame and keeps
// the selection.
func (c *Capturer) ProbeAvailability() bool {
	if c.res.session != nil {
		return true
	}

	desktop := c.geo.desktopRect()
	s, err := c.driver.Create(desktop)
	if err != nil {
		c.log.Debug("driver probe failed", logging.KeyError, err)
		return false
	}
	c.res.session = s
	c.exclude = c.geo.excludeRegion(desktop, c.selection)
	return true
}

func (c *Capturer) ScreenCount() int {
	return c.geo.display.ScreenCount()
}

func (c *Capturer) ScreenList() ([]rdisplay.Screen, error) {
	return c.geo.display.Screens()
}

// SelectScreen switches the capture target. Unknown ids leave every piece
// of state untouched.
func (c *Capturer) SelectScreen(id rdisplay.ScreenID) error {
	key, ok := c.geo.validate(id)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownScreen, id)
	}

	c.teardown("screen selected")
	c.selection = Selection{ID: id, Key: key}
	c.stats.selected(id)
	c.log.Info("screen selected", logging.KeyScreen, id.String())
	return nil
}

// CaptureFrame returns a frame whose UpdatedRegion lists the rectangles that
// changed since the previous call. The frame stays owned by the Capturer and
// is only valid until the next CaptureFrame or Reset.
func (c *Capturer) CaptureFrame() (*frame.Frame, error) {
	if err := c.prepare(); err != nil {
		c.stats.failed(err)
		c.log.Warn("capture failed", logging.KeyError, err)
		return nil, err
	}

	s, f := c.res.session, c.res.frame

	updated := s.UpdatedRegion().Subtract(c.exclude)
	f.SetUpdatedRegion(updated)
	s.CopyRegion(f, updated)
	f.SetTopLeft(s.ScreenRect().Min)

	c.stats.captured(f, c.exclude)
	return f, nil
}

// Reset discards the driver session and frame buffer.
func (c *Capturer) Reset() {
	c.teardown("reset")
}

// Stats returns a snapshot of the capture counters. It may be called from
// any goroutine.
func (c *Capturer) Stats() Stats {
	return c.stats.snapshot()
}

// prepare runs the resource guards in order and stops at the first failure.
func (c *Capturer) prepare() error {
	for _, step := range []func() error{
		c.checkDesktop,
		c.checkScreen,
		c.checkSession,
		c.checkFrame,
		c.ensureSession,
		c.ensureFrame,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Capturer) checkDesktop() error {
	desktop := c.geo.desktopRect()
	if desktop.Empty() {
		return fmt.Errorf("%w: desktop", ErrGeometryUnavailable)
	}
	if desktop != c.desktop {
		if !c.desktop.Empty() {
			c.log.Info("desktop geometry changed", "from", c.desktop.String(), "to", desktop.String())
		}
		c.teardown("desktop changed")
		c.desktop = desktop
	}
	return nil
}

func (c *Capturer) checkScreen() error {
	screen := c.geo.screenRect(c.selection)
	if screen.Empty() {
		return fmt.Errorf("%w: %v", ErrGeometryUnavailable, c.selection.ID)
	}
	c.screen = screen
	return nil
}

func (c *Capturer) checkSession() error {
	if c.res.session != nil && c.res.session.ScreenRect() != c.screen {
		c.teardown("session rect stale")
	}
	return nil
}

func (c *Capturer) checkFrame() error {
	if c.res.frame != nil && c.res.frame.Size() != c.screen.Size() {
		c.teardown("frame size stale")
	}
	return nil
}

func (c *Capturer) ensureSession() error {
	if c.res.session != nil {
		return nil
	}
	s, err := c.driver.Create(c.screen)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDriverUnavailable, err)
	}
	c.res.session = s
	c.exclude = c.geo.excludeRegion(c.desktop, c.selection)
	c.stats.rebuilt()
	c.log.Info("driver session created",
		logging.KeyRect, c.screen.String(),
		"exclude", c.exclude,
	)
	return nil
}

func (c *Capturer) ensureFrame() error {
	if c.res.frame != nil {
		return nil
	}
	f, err := c.alloc.Allocate(c.screen.Size())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAllocationFailure, err)
	}
	c.res.frame = f
	return nil
}

// teardown is the only place resources are released. The exclude mask goes
// with them; it is recomputed whenever a new session is bound.
func (c *Capturer) teardown(reason string) {
	if c.res.session == nil && c.res.frame == nil {
		return
	}
	if c.res.session != nil {
		if err := c.res.session.Close(); err != nil {
			c.log.Warn("driver session close failed", logging.KeyError, err)
		}
	}
	c.res = resources{}
	c.exclude = region.Region{}
	c.log.Debug("capture resources released", "reason", reason)
}
