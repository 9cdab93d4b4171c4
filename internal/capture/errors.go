package capture

import "errors"

var (
	// ErrGeometryUnavailable means the platform could not report a usable
	// rectangle for the desktop or the selected screen.
	ErrGeometryUnavailable = errors.New("screen geometry unavailable")
	// ErrDriverUnavailable means no driver session could be bound.
	ErrDriverUnavailable = errors.New("mirror driver unavailable")
	// ErrAllocationFailure means the frame buffer could not be allocated.
	ErrAllocationFailure = errors.New("frame allocation failed")
	// ErrUnknownScreen is returned by SelectScreen for ids that do not
	// resolve to a current monitor.
	ErrUnknownScreen = errors.New("unknown screen")
)
