// Package stream drives a capture source at a fixed frame rate and hands
// each captured frame to a set of sinks.
package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/rviscarra/mirror-capture/internal/frame"
	"github.com/rviscarra/mirror-capture/internal/logging"
)

// Source produces frames. *capture.Capturer implements it.
type Source interface {
	CaptureFrame() (*frame.Frame, error)
}

// Sink consumes frames. The frame is only valid during the call.
type Sink interface {
	Consume(ctx context.Context, f *frame.Frame) error
}

// Streamer polls a Source once per tick. Capture failures are not retried
// within a tick; the next tick simply tries again.
type Streamer struct {
	source Source
	sinks  []Sink
	fps    int
	limit  int
	log    *slog.Logger
}

// New returns a streamer capturing at fps frames per second.
func New(source Source, fps int, sinks ...Sink) *Streamer {
	if fps <= 0 {
		fps = 1
	}
	return &Streamer{
		source: source,
		sinks:  sinks,
		fps:    fps,
		log:    logging.L("stream"),
	}
}

// SetFrameLimit stops Run after n successful captures. Zero means no limit.
func (s *Streamer) SetFrameLimit(n int) {
	s.limit = n
}

// Fps returns the frames per sec. we're capturing
func (s *Streamer) Fps() int {
	return s.fps
}

// Run captures until ctx is done or the frame limit is reached. It returns
// nil in both cases.
func (s *Streamer) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	captured, failed := 0, 0
	defer func() {
		s.log.Info("capture loop stopped", "captured", captured, "failed", failed)
	}()

	for {
		startedAt := time.Now()
		f, err := s.source.CaptureFrame()
		if err != nil {
			failed++
		} else {
			captured++
			s.deliver(ctx, f)
			s.log.Debug("tick", logging.KeyDurationMs, time.Since(startedAt).Milliseconds())
		}

		if s.limit > 0 && captured >= s.limit {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Streamer) deliver(ctx context.Context, f *frame.Frame) {
	for _, sink := range s.sinks {
		if err := sink.Consume(ctx, f); err != nil {
			s.log.Warn("sink failed", logging.KeyError, err)
		}
	}
}
