package config

import (
	"fmt"
	"net"
	"strings"
)

const (
	minFps      = 1
	maxFps      = 60
	minTileSize = 8
	maxTileSize = 256
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config and returns every problem found. Out-of-range
// numbers are clamped in place so the returned errors are warnings; only an
// unparsable http_listen leaves a value the agent cannot use.
func (c *Config) Validate() []error {
	var errs []error

	if c.Screen < -1 {
		errs = append(errs, fmt.Errorf("screen %d is invalid, using the entire desktop", c.Screen))
		c.Screen = -1
	}

	if c.Fps < minFps {
		errs = append(errs, fmt.Errorf("fps %d is below minimum %d, clamping", c.Fps, minFps))
		c.Fps = minFps
	} else if c.Fps > maxFps {
		errs = append(errs, fmt.Errorf("fps %d exceeds maximum %d, clamping", c.Fps, maxFps))
		c.Fps = maxFps
	}

	if c.Frames < 0 {
		errs = append(errs, fmt.Errorf("frames %d is negative, capturing without limit", c.Frames))
		c.Frames = 0
	}

	if c.TileSize < minTileSize {
		errs = append(errs, fmt.Errorf("tile_size %d is below minimum %d, clamping", c.TileSize, minTileSize))
		c.TileSize = minTileSize
	} else if c.TileSize > maxTileSize {
		errs = append(errs, fmt.Errorf("tile_size %d exceeds maximum %d, clamping", c.TileSize, maxTileSize))
		c.TileSize = maxTileSize
	}

	if c.MaxFramePixels < 0 {
		errs = append(errs, fmt.Errorf("max_frame_pixels %d is negative, disabling the cap", c.MaxFramePixels))
		c.MaxFramePixels = 0
	}

	if c.SnapshotEvery < 1 {
		errs = append(errs, fmt.Errorf("snapshot_every %d is below minimum 1, clamping", c.SnapshotEvery))
		c.SnapshotEvery = 1
	}
	if c.SnapshotWidth < 0 {
		errs = append(errs, fmt.Errorf("snapshot_width %d is negative, keeping full size", c.SnapshotWidth))
		c.SnapshotWidth = 0
	}

	if c.HTTPListen != "" {
		if _, _, err := net.SplitHostPort(c.HTTPListen); err != nil {
			errs = append(errs, fmt.Errorf("http_listen %q is not host:port: %w", c.HTTPListen, err))
		}
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is unknown, using info", c.LogLevel))
		c.LogLevel = "info"
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is unknown, using text", c.LogFormat))
		c.LogFormat = "text"
	}

	return errs
}
