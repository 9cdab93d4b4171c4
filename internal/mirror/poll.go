package mirror

import (
	"fmt"
	"hash/crc32"
	"image"
	"log/slog"

	"github.com/kbinani/screenshot"

	"github.com/rviscarra/mirror-capture/internal/frame"
	"github.com/rviscarra/mirror-capture/internal/logging"
	"github.com/rviscarra/mirror-capture/internal/region"
)

// DefaultTileSize is the edge length of the squares compared between grabs.
const DefaultTileSize = 32

// GrabFunc reads the pixels of an absolute desktop rectangle.
type GrabFunc func(rect image.Rectangle) (*image.RGBA, error)

// PollDriver emulates a mirror driver by grabbing the bound rectangle on
// every UpdatedRegion call and diffing it tile by tile against the previous
// grab.
type PollDriver struct {
	grab     GrabFunc
	tileSize int
	log      *slog.Logger
}

// NewPollDriver returns a driver that grabs with grab, or with
// screenshot.CaptureRect when grab is nil.
func NewPollDriver(tileSize int, grab GrabFunc) *PollDriver {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	if grab == nil {
		grab = screenshot.CaptureRect
	}
	return &PollDriver{
		grab:     grab,
		tileSize: tileSize,
		log:      logging.L("mirror"),
	}
}

// Create binds a session to rect. One grab is made up front so a missing
// or unusable display backend is reported here rather than on first use.
func (d *PollDriver) Create(rect image.Rectangle) (Session, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("%w: %v", ErrRectRejected, rect)
	}
	img, err := d.grab(rect)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDriverAbsent, err)
	}
	if img.Rect.Size() != rect.Size() {
		return nil, fmt.Errorf("%w: grabbed %v for %v", ErrRectRejected, img.Rect.Size(), rect)
	}

	cols := (rect.Dx() + d.tileSize - 1) / d.tileSize
	rows := (rect.Dy() + d.tileSize - 1) / d.tileSize
	d.log.Debug("session bound", "rect", rect.String(), "tiles", cols*rows)

	return &pollSession{
		driver: d,
		rect:   rect,
		cols:   cols,
		rows:   rows,
	}, nil
}

type pollSession struct {
	driver *PollDriver
	rect   image.Rectangle
	cols   int
	rows   int
	shadow *image.RGBA
	hashes []uint32
	closed bool
}

func (s *pollSession) ScreenRect() image.Rectangle {
	return s.rect
}

func (s *pollSession) UpdatedRegion() region.Region {
	if s.closed {
		return region.Region{}
	}

	img, err := s.driver.grab(s.rect)
	if err != nil {
		s.driver.log.Warn("grab failed", "rect", s.rect.String(), logging.KeyError, err)
		return region.Region{}
	}
	if img.Rect.Size() != s.rect.Size() {
		s.driver.log.Warn("grab size mismatch", "rect", s.rect.String(), "got", img.Rect.Size().String())
		return region.Region{}
	}

	hashes := s.tileHashes(img)
	first := s.hashes == nil
	s.shadow = img

	ts := s.driver.tileSize
	bounds := image.Rectangle{Max: s.rect.Size()}
	var changed region.Region
	for row := 0; row < s.rows; row++ {
		// Runs of dirty tiles on one row become a single rectangle.
		start := -1
		for col := 0; col <= s.cols; col++ {
			dirty := col < s.cols && (first || hashes[row*s.cols+col] != s.hashes[row*s.cols+col])
			if dirty && start < 0 {
				start = col
			}
			if !dirty && start >= 0 {
				run := image.Rect(start*ts, row*ts, col*ts, (row+1)*ts).Intersect(bounds)
				changed = changed.Add(run)
				start = -1
			}
		}
	}
	s.hashes = hashes
	return changed
}

func (s *pollSession) tileHashes(img *image.RGBA) []uint32 {
	ts := s.driver.tileSize
	size := s.rect.Size()
	hashes := make([]uint32, s.cols*s.rows)
	for y := 0; y < size.Y; y++ {
		row := y / ts
		for col := 0; col < s.cols; col++ {
			x0 := col * ts
			x1 := min(x0+ts, size.X)
			i := img.PixOffset(img.Rect.Min.X+x0, img.Rect.Min.Y+y)
			n := (x1 - x0) * 4
			h := &hashes[row*s.cols+col]
			*h = crc32.Update(*h, crc32.IEEETable, img.Pix[i:i+n])
		}
	}
	return hashes
}

func (s *pollSession) CopyRegion(dst *frame.Frame, r region.Region) {
	if s.shadow == nil {
		return
	}
	for _, rc := range r.Intersect(image.Rectangle{Max: s.rect.Size()}).Rects() {
		dst.CopyRGBA(s.shadow, rc)
	}
}

func (s *pollSession) Close() error {
	s.closed = true
	s.shadow = nil
	s.hashes = nil
	return nil
}
