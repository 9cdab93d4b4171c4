package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/rviscarra/mirror-capture/internal/frame"
	"github.com/rviscarra/mirror-capture/internal/mirror"
	"github.com/rviscarra/mirror-capture/internal/rdisplay"
	"github.com/rviscarra/mirror-capture/internal/region"
)

// fakeDriver hands out sessions that report whatever the test queued.
type fakeDriver struct {
	err      error
	sessions []*fakeSession
	queued   []image.Rectangle
}

func (d *fakeDriver) Create(rect image.Rectangle) (mirror.Session, error) {
	if d.err != nil {
		return nil, d.err
	}
	if rect.Empty() {
		return nil, mirror.ErrRectRejected
	}
	s := &fakeSession{driver: d, rect: rect}
	d.sessions = append(d.sessions, s)
	return s, nil
}

func (d *fakeDriver) report(rects ...image.Rectangle) {
	d.queued = append(d.queued, rects...)
}

func (d *fakeDriver) last() *fakeSession {
	if len(d.sessions) == 0 {
		return nil
	}
	return d.sessions[len(d.sessions)-1]
}

type fakeSession struct {
	driver *fakeDriver
	rect   image.Rectangle
	closed bool
	copied []region.Region
}

func (s *fakeSession) ScreenRect() image.Rectangle { return s.rect }

func (s *fakeSession) UpdatedRegion() region.Region {
	r := region.New(s.driver.queued...)
	s.driver.queued = nil
	return r
}

func (s *fakeSession) CopyRegion(_ *frame.Frame, r region.Region) {
	s.copied = append(s.copied, r)
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func newTestCapturer(display rdisplay.Service) (*Capturer, *fakeDriver) {
	d := &fakeDriver{}
	return New(display, d, nil), d
}

func mustCapture(t *testing.T, c *Capturer) *frame.Frame {
	t.Helper()
	f, err := c.CaptureFrame()
	if err != nil {
		t.Fatalf("CaptureFrame() error: %v", err)
	}
	return f
}

func TestSingleMonitorDesktopPassesChangesThrough(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080))
	c, d := newTestCapturer(display)

	d.report(image.Rect(100, 100, 150, 150))
	f := mustCapture(t, c)

	if !c.exclude.IsEmpty() {
		t.Fatalf("exclude = %v, want empty", c.exclude)
	}
	want := region.New(image.Rect(100, 100, 150, 150))
	if !f.UpdatedRegion().Equal(want) {
		t.Fatalf("UpdatedRegion() = %v, want %v", f.UpdatedRegion(), want)
	}
	if f.Size() != image.Pt(1920, 1080) {
		t.Fatalf("Size() = %v", f.Size())
	}
	if f.TopLeft() != image.Pt(0, 0) {
		t.Fatalf("TopLeft() = %v", f.TopLeft())
	}
	if copied := d.last().copied; len(copied) != 1 || !copied[0].Equal(want) {
		t.Fatalf("copied = %v, want exactly %v", copied, want)
	}
}

func TestUncoveredDesktopAreaIsFiltered(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 900), image.Rect(0, 900, 1920, 1080))
	display.SetValid(1, false)
	c, d := newTestCapturer(display)

	d.report(image.Rect(10, 950, 30, 970), image.Rect(100, 100, 150, 150))
	f := mustCapture(t, c)

	wantExclude := region.New(image.Rect(0, 900, 1920, 1080))
	if !c.exclude.Equal(wantExclude) {
		t.Fatalf("exclude = %v, want %v", c.exclude, wantExclude)
	}
	if f.UpdatedRegion().Contains(image.Pt(10, 950)) {
		t.Fatalf("UpdatedRegion() = %v still contains excluded change", f.UpdatedRegion())
	}
	if !f.UpdatedRegion().Equal(region.New(image.Rect(100, 100, 150, 150))) {
		t.Fatalf("UpdatedRegion() = %v", f.UpdatedRegion())
	}
}

func TestExcludeRegionTilingMonitorsIsEmpty(t *testing.T) {
	display := rdisplay.NewStatic(
		image.Rect(0, 0, 1920, 1080),
		image.Rect(1920, 0, 3840, 1080),
	)
	g := geometryTracker{display: display}
	got := g.excludeRegion(display.FullScreenRect(), Selection{ID: rdisplay.EntireDesktop})
	if !got.IsEmpty() {
		t.Fatalf("excludeRegion() = %v, want empty", got)
	}
}

func TestExcludeRegionCoversGapsBetweenMonitors(t *testing.T) {
	display := rdisplay.NewStatic(
		image.Rect(0, 0, 1920, 1080),
		image.Rect(1920, 0, 3200, 1024),
	)
	g := geometryTracker{display: display}
	got := g.excludeRegion(display.FullScreenRect(), Selection{ID: rdisplay.EntireDesktop})

	want := region.New(image.Rect(1920, 1024, 3200, 1080))
	if !got.Equal(want) {
		t.Fatalf("excludeRegion() = %v, want %v", got, want)
	}
}

func TestExcludeRegionNegativeOrigin(t *testing.T) {
	display := rdisplay.NewStatic(
		image.Rect(0, 0, 1920, 1080),
		image.Rect(-1280, -200, 0, 824),
	)
	desktop := display.FullScreenRect()
	if desktop != image.Rect(-1280, -200, 1920, 1080) {
		t.Fatalf("FullScreenRect() = %v", desktop)
	}

	g := geometryTracker{display: display}
	got := g.excludeRegion(desktop, Selection{ID: rdisplay.EntireDesktop})

	// Desktop-local: left monitor at (0,0)-(1280,1024), primary at
	// (1280,200)-(3200,1280).
	want := region.New(desktop.Sub(desktop.Min)).
		SubtractRect(image.Rect(0, 0, 1280, 1024)).
		SubtractRect(image.Rect(1280, 200, 3200, 1280))
	if !got.Equal(want) {
		t.Fatalf("excludeRegion() = %v, want %v", got, want)
	}
	if got.Area() != 1920*200+1280*256 {
		t.Fatalf("Area() = %d", got.Area())
	}
}

func TestExcludeRegionEmptyForSingleScreen(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 900), image.Rect(0, 900, 1920, 1080))
	display.SetValid(1, false)
	g := geometryTracker{display: display}
	key, _ := display.IsScreenValid(0)

	got := g.excludeRegion(display.FullScreenRect(), Selection{ID: 0, Key: key})
	if !got.IsEmpty() {
		t.Fatalf("excludeRegion() = %v, want empty for a single-screen selection", got)
	}
}

func TestRepeatedCaptureWithoutChangesIsEmpty(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 64, 64))
	still := image.NewRGBA(image.Rect(0, 0, 64, 64))
	driver := mirror.NewPollDriver(16, func(image.Rectangle) (*image.RGBA, error) {
		return still, nil
	})
	c := New(display, driver, nil)

	first := mustCapture(t, c)
	if first.UpdatedRegion().Area() != 64*64 {
		t.Fatalf("first capture area = %d, want full frame", first.UpdatedRegion().Area())
	}
	for i := 0; i < 3; i++ {
		f := mustCapture(t, c)
		if !f.UpdatedRegion().IsEmpty() {
			t.Fatalf("capture %d: UpdatedRegion() = %v, want empty", i, f.UpdatedRegion())
		}
	}
}

func TestPixelsAndTopLeftFromPollDriver(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 64, 64), image.Rect(-32, 0, 0, 32))
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	img.SetRGBA(5, 6, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	var grabbed []image.Rectangle
	driver := mirror.NewPollDriver(8, func(r image.Rectangle) (*image.RGBA, error) {
		grabbed = append(grabbed, r)
		return img, nil
	})
	c := New(display, driver, nil)
	if err := c.SelectScreen(1); err != nil {
		t.Fatalf("SelectScreen(1): %v", err)
	}

	f := mustCapture(t, c)
	if f.TopLeft() != image.Pt(-32, 0) {
		t.Fatalf("TopLeft() = %v, want (-32,0)", f.TopLeft())
	}
	i := f.PixOffset(5, 6)
	if got := f.Pix()[i : i+4]; got[0] != 3 || got[1] != 2 || got[2] != 1 || got[3] != 255 {
		t.Fatalf("pixel = %v, want BGRA [3 2 1 255]", got)
	}
	for _, r := range grabbed {
		if r != image.Rect(-32, 0, 0, 32) {
			t.Fatalf("grabbed %v, want the selected monitor only", r)
		}
	}
}

func TestDesktopChangeRebuildsEverything(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080))
	c, d := newTestCapturer(display)

	f1 := mustCapture(t, c)
	s1 := d.last()

	display.SetLayout(image.Rect(0, 0, 1920, 1080), image.Rect(1920, 0, 3200, 1024))
	f2 := mustCapture(t, c)
	s2 := d.last()

	if s1 == s2 || !s1.closed {
		t.Fatal("desktop change should close the old session and bind a new one")
	}
	if f1 == f2 {
		t.Fatal("desktop change should allocate a new frame")
	}
	if f2.Size() != image.Pt(3200, 1080) {
		t.Fatalf("Size() = %v, want 3200x1080", f2.Size())
	}
	want := region.New(image.Rect(1920, 1024, 3200, 1080))
	if !c.exclude.Equal(want) {
		t.Fatalf("exclude = %v, want %v", c.exclude, want)
	}
}

func TestSelectionChangeRebuildsEverything(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080), image.Rect(1920, 0, 3200, 1024))
	c, d := newTestCapturer(display)

	f1 := mustCapture(t, c)
	s1 := d.last()

	if err := c.SelectScreen(1); err != nil {
		t.Fatalf("SelectScreen(1): %v", err)
	}
	if !s1.closed || c.res.session != nil || c.res.frame != nil {
		t.Fatal("SelectScreen should discard session and frame")
	}

	f2 := mustCapture(t, c)
	if d.last() == s1 || f1 == f2 {
		t.Fatal("capture after SelectScreen should rebuild session and frame")
	}
	if f2.Size() != image.Pt(1280, 1024) {
		t.Fatalf("Size() = %v, want 1280x1024", f2.Size())
	}
	if f2.TopLeft() != image.Pt(1920, 0) {
		t.Fatalf("TopLeft() = %v, want (1920,0)", f2.TopLeft())
	}
	if !c.exclude.IsEmpty() {
		t.Fatalf("exclude = %v, want empty for a single screen", c.exclude)
	}
}

func TestReselectingSameScreenStillRebuilds(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 800, 600))
	c, d := newTestCapturer(display)

	mustCapture(t, c)
	if err := c.SelectScreen(rdisplay.EntireDesktop); err != nil {
		t.Fatal(err)
	}
	mustCapture(t, c)
	if len(d.sessions) != 2 {
		t.Fatalf("sessions created = %d, want 2", len(d.sessions))
	}
}

func TestMonitorResizeRebuildsSessionAndFrame(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080), image.Rect(1920, 0, 3200, 1024))
	c, d := newTestCapturer(display)
	if err := c.SelectScreen(1); err != nil {
		t.Fatal(err)
	}
	mustCapture(t, c)
	s1 := d.last()

	display.Resize(1, image.Rect(1920, 0, 3840, 1080))
	f := mustCapture(t, c)
	if d.last() == s1 || !s1.closed {
		t.Fatal("resized monitor should get a new session")
	}
	if f.Size() != image.Pt(1920, 1080) {
		t.Fatalf("Size() = %v, want 1920x1080", f.Size())
	}
}

func TestEmptyGeometryLeavesResourcesUntouched(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080))
	c, d := newTestCapturer(display)

	f1 := mustCapture(t, c)
	s1 := d.last()

	display.SetFailing(true)
	f, err := c.CaptureFrame()
	if !errors.Is(err, ErrGeometryUnavailable) {
		t.Fatalf("CaptureFrame() err = %v, want ErrGeometryUnavailable", err)
	}
	if f != nil {
		t.Fatal("expected nil frame on failure")
	}
	if c.res.session != mirror.Session(s1) || s1.closed || c.res.frame != f1 {
		t.Fatal("geometry failure must not touch the session or frame")
	}

	display.SetFailing(false)
	if f2 := mustCapture(t, c); f2 != f1 || d.last() != s1 {
		t.Fatal("recovered capture should reuse the existing resources")
	}
}

func TestSelectedMonitorUnpluggedFailsCapture(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080), image.Rect(1920, 0, 3200, 1024))
	c, _ := newTestCapturer(display)
	if err := c.SelectScreen(1); err != nil {
		t.Fatal(err)
	}
	mustCapture(t, c)

	display.SetLayout(image.Rect(0, 0, 1920, 1080))
	if _, err := c.CaptureFrame(); !errors.Is(err, ErrGeometryUnavailable) {
		t.Fatalf("CaptureFrame() err = %v, want ErrGeometryUnavailable", err)
	}
}

func TestSelectUnknownScreenHasNoSideEffects(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080))
	c, d := newTestCapturer(display)
	f1 := mustCapture(t, c)
	s1 := d.last()

	err := c.SelectScreen(7)
	if !errors.Is(err, ErrUnknownScreen) {
		t.Fatalf("SelectScreen(7) err = %v, want ErrUnknownScreen", err)
	}
	if c.Selection().ID != rdisplay.EntireDesktop {
		t.Fatalf("selection changed to %v", c.Selection())
	}
	if s1.closed || c.res.frame != f1 {
		t.Fatal("failed SelectScreen must not release resources")
	}
}

func TestDriverFailure(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080))
	c, d := newTestCapturer(display)
	d.err = mirror.ErrDriverAbsent

	_, err := c.CaptureFrame()
	if !errors.Is(err, ErrDriverUnavailable) {
		t.Fatalf("CaptureFrame() err = %v, want ErrDriverUnavailable", err)
	}
	if !errors.Is(err, mirror.ErrDriverAbsent) {
		t.Fatalf("CaptureFrame() err = %v, should wrap the driver error", err)
	}
	if c.res.session != nil || c.res.frame != nil {
		t.Fatal("no resources should exist after a driver failure")
	}
	if st := c.Stats(); st.Failures != 1 || st.LastError == "" {
		t.Fatalf("Stats() = %+v", st)
	}
}

func TestAllocationFailure(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080))
	c := New(display, &fakeDriver{}, frame.NewAllocator(1000))

	_, err := c.CaptureFrame()
	if !errors.Is(err, ErrAllocationFailure) {
		t.Fatalf("CaptureFrame() err = %v, want ErrAllocationFailure", err)
	}
	if !errors.Is(err, frame.ErrTooLarge) {
		t.Fatalf("CaptureFrame() err = %v, should wrap frame.ErrTooLarge", err)
	}
}

func TestProbeAvailability(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080))
	c, d := newTestCapturer(display)

	if !c.ProbeAvailability() {
		t.Fatal("ProbeAvailability() = false, want true")
	}
	if !c.ProbeAvailability() {
		t.Fatal("second ProbeAvailability() = false, want true")
	}
	if len(d.sessions) != 1 {
		t.Fatalf("sessions created = %d, want 1", len(d.sessions))
	}
	if c.res.frame != nil {
		t.Fatal("ProbeAvailability must not allocate a frame")
	}
	if c.Selection().ID != rdisplay.EntireDesktop {
		t.Fatalf("selection changed to %v", c.Selection())
	}

	failing, fd := newTestCapturer(display)
	fd.err = mirror.ErrDriverAbsent
	if failing.ProbeAvailability() {
		t.Fatal("ProbeAvailability() = true with an absent driver")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080))
	c, d := newTestCapturer(display)
	mustCapture(t, c)

	c.Reset()
	c.Reset()
	if !d.last().closed {
		t.Fatal("Reset should close the session")
	}
	if c.res.session != nil || c.res.frame != nil {
		t.Fatal("Reset should release both resources")
	}

	mustCapture(t, c)
	if len(d.sessions) != 2 {
		t.Fatalf("sessions created = %d, want 2", len(d.sessions))
	}
}

func TestScreenListPassThrough(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 1080), image.Rect(1920, 0, 3200, 1024))
	c, _ := newTestCapturer(display)
	if c.ScreenCount() != 2 {
		t.Fatalf("ScreenCount() = %d, want 2", c.ScreenCount())
	}
	screens, err := c.ScreenList()
	if err != nil || len(screens) != 2 {
		t.Fatalf("ScreenList() = %v, %v", screens, err)
	}
}

func TestStatsTrackCaptures(t *testing.T) {
	display := rdisplay.NewStatic(image.Rect(0, 0, 1920, 900), image.Rect(0, 900, 1920, 1080))
	display.SetValid(1, false)
	c, d := newTestCapturer(display)

	d.report(image.Rect(0, 0, 10, 10))
	mustCapture(t, c)

	st := c.Stats()
	if st.ID != c.ID() || st.ID == "" {
		t.Fatalf("Stats().ID = %q, want %q", st.ID, c.ID())
	}
	if st.Captures != 1 || st.Rebuilds != 1 || st.LastArea != 100 || st.LastRects != 1 {
		t.Fatalf("Stats() = %+v", st)
	}
	if st.FrameWidth != 1920 || st.FrameHeight != 1080 || st.ExcludeArea != 1920*180 {
		t.Fatalf("Stats() = %+v", st)
	}
}
