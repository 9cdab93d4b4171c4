package api

import (
	"encoding/json"
	"net/http"

	"github.com/rviscarra/mirror-capture/internal/capture"
	"github.com/rviscarra/mirror-capture/internal/logging"
	"github.com/rviscarra/mirror-capture/internal/rdisplay"
)

var log = logging.L("api")

// StatsSource reports capture counters. *capture.Capturer implements it.
type StatsSource interface {
	Stats() capture.Stats
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error("encode response", logging.KeyError, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

func handleError(w http.ResponseWriter, status int, err error) {
	log.Warn("request failed", logging.KeyError, err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// MakeHandler returns a read-only diagnostics handler. It never touches a
// Capturer directly, only its Stats, so it is safe to serve while capture
// runs on another goroutine.
func MakeHandler(display rdisplay.Service, sources ...StatsSource) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/screens", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		screens, err := display.Screens()
		if err != nil {
			handleError(w, http.StatusServiceUnavailable, err)
			return
		}

		resp := screensResponse{
			Desktop: newRectPayload(display.FullScreenRect()),
			Screens: make([]screenPayload, len(screens)),
		}
		for i, s := range screens {
			_, valid := display.IsScreenValid(s.ID)
			resp.Screens[i] = screenPayload{
				ID:      s.ID,
				Title:   s.Title,
				Primary: s.Primary,
				Valid:   valid,
				Bounds:  newRectPayload(s.Bounds),
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		resp := statsResponse{Capturers: make([]capture.Stats, len(sources))}
		for i, src := range sources {
			resp.Capturers[i] = src.Stats()
		}
		writeJSON(w, http.StatusOK, resp)
	})
	return mux
}
