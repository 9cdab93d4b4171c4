// Package mirror defines the contract of a mirror display driver: a
// session bound to a desktop rectangle that reports which parts of its
// shared framebuffer changed and copies them out on request.
package mirror

import (
	"errors"
	"image"

	"github.com/rviscarra/mirror-capture/internal/frame"
	"github.com/rviscarra/mirror-capture/internal/region"
)

var (
	// ErrDriverAbsent is returned when no driver can be reached.
	ErrDriverAbsent = errors.New("mirror driver not available")
	// ErrRectRejected is returned when the driver refuses to bind to a
	// rectangle.
	ErrRectRejected = errors.New("mirror driver rejected rectangle")
)

// Driver creates sessions.
type Driver interface {
	Create(rect image.Rectangle) (Session, error)
}

// Session is a binding between the driver and one desktop rectangle.
type Session interface {
	// ScreenRect is the absolute desktop rectangle the session is bound to.
	ScreenRect() image.Rectangle
	// UpdatedRegion returns the rectangles changed since the previous call,
	// relative to ScreenRect().Min. It never blocks waiting for changes.
	UpdatedRegion() region.Region
	// CopyRegion copies the pixels of r (relative to ScreenRect().Min) into
	// dst. Rectangles outside the session bounds are ignored.
	CopyRegion(dst *frame.Frame, r region.Region)
	Close() error
}
