package api

import (
	"image"

	"github.com/rviscarra/mirror-capture/internal/capture"
	"github.com/rviscarra/mirror-capture/internal/rdisplay"
)

type rectPayload struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func newRectPayload(r image.Rectangle) rectPayload {
	return rectPayload{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

type screenPayload struct {
	ID      rdisplay.ScreenID `json:"id"`
	Title   string            `json:"title"`
	Primary bool              `json:"primary"`
	Valid   bool              `json:"valid"`
	Bounds  rectPayload       `json:"bounds"`
}

type screensResponse struct {
	Desktop rectPayload     `json:"desktop"`
	Screens []screenPayload `json:"screens"`
}

type statsResponse struct {
	Capturers []capture.Stats `json:"capturers"`
}

type errorResponse struct {
	Error string `json:"error"`
}
