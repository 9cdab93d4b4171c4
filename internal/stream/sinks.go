package stream

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"

	"github.com/rviscarra/mirror-capture/internal/frame"
	"github.com/rviscarra/mirror-capture/internal/logging"
)

// LogSink logs the dirty region of every frame at debug level.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{log: logging.L("frames")}
}

func (s *LogSink) Consume(ctx context.Context, f *frame.Frame) error {
	s.log.DebugContext(ctx, "frame",
		"topLeft", f.TopLeft().String(),
		"size", f.Size().String(),
		"updated", f.UpdatedRegion(),
	)
	return nil
}

// SnapshotSink writes every Nth frame to dir as a PNG, downscaled to
// at most Width pixels wide.
type SnapshotSink struct {
	dir   string
	every int
	width int
	seen  int
	saved int
}

func NewSnapshotSink(dir string, every, width int) (*SnapshotSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	if every <= 0 {
		every = 1
	}
	return &SnapshotSink{dir: dir, every: every, width: width}, nil
}

func (s *SnapshotSink) Consume(_ context.Context, f *frame.Frame) error {
	s.seen++
	if (s.seen-1)%s.every != 0 {
		return nil
	}

	img := scaleToWidth(f.RGBA(), s.width)
	path := filepath.Join(s.dir, fmt.Sprintf("frame-%06d.png", s.seen))
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	s.saved++
	return out.Close()
}

// Saved returns how many snapshots were written.
func (s *SnapshotSink) Saved() int {
	return s.saved
}

func scaleToWidth(src *image.RGBA, width int) image.Image {
	if width <= 0 || src.Bounds().Dx() <= width {
		return src
	}
	return resize.Resize(uint(width), 0, src, resize.Lanczos3)
}
