package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/retailgrid/gridscope/grid"
)

// maxUploadBytes bounds uploaded sources; uploads are fully buffered.
const maxUploadBytes = 64 << 20

// viewParams holds the per-request dataset view selection.
type viewParams struct {
	dataset     string
	fullDetail  bool
	mode        grid.ColorMode
	retailClass string
	floodClass  string
	landuse     string
	noDefaults  bool
}

func parseViewParams(r *http.Request) viewParams {
	q := r.URL.Query()
	return viewParams{
		dataset:     q.Get("dataset"),
		fullDetail:  q.Get("detail") == "full",
		mode:        parseColorMode(q.Get("mode")),
		retailClass: q.Get("retail_class"),
		floodClass:  q.Get("flood_class"),
		landuse:     q.Get("landuse"),
		noDefaults:  q.Get("filters") == "none",
	}
}

// newHTTPServer creates an HTTP server with all endpoints.
func newHTTPServer(app *App) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Datasets  int       `json:"datasets"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Datasets:  len(app.Config.Datasets),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Configured dataset catalog
	mux.HandleFunc("/api/datasets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, app.Config.Datasets)
	})

	// Render-ready feature collection for the selected view
	mux.HandleFunc("/api/features", func(w http.ResponseWriter, r *http.Request) {
		p := parseViewParams(r)
		rc, _, err := app.buildView(p.dataset, p.fullDetail, p.mode, p.retailClass, p.floodClass, p.landuse, p.noDefaults)
		if err != nil {
			writeError(w, "/api/features", err)
			return
		}
		writeJSON(w, rc)
	})

	// Headline metrics for the selected view
	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		p := parseViewParams(r)
		ds, err := app.loadDataset(p.dataset, p.fullDetail)
		if err != nil {
			writeError(w, "/api/summary", err)
			return
		}
		filtered := grid.Filter(ds, app.filterSelection(ds, p.retailClass, p.floodClass, p.landuse, p.noDefaults))
		writeJSON(w, grid.Summarize(filtered, app.Config))
	})

	// Upload a dataset for the session; it becomes selectable by name.
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "name query parameter required", http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
		if err != nil {
			http.Error(w, fmt.Sprintf("reading upload: %v", err), http.StatusBadRequest)
			return
		}

		// Parse eagerly so a bad upload fails the request, not a later view.
		ds, err := app.Store.LoadBytes(name, data, app.Config.ToleranceFor(false))
		if err != nil {
			writeError(w, "/api/upload", err)
			return
		}
		app.addUpload(name, data)

		log.Printf("[HTTP] upload %s: %d features", name, ds.Len())
		writeJSON(w, grid.Summarize(ds, app.Config))
	})

	// Raster map preview
	mux.HandleFunc("/map.png", func(w http.ResponseWriter, r *http.Request) {
		p := parseViewParams(r)
		rc, _, err := app.buildView(p.dataset, p.fullDetail, p.mode, p.retailClass, p.floodClass, p.landuse, p.noDefaults)
		if err != nil {
			writeError(w, "/map.png", err)
			return
		}
		if len(rc.Features) == 0 {
			http.Error(w, "No features match the selected filters", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := grid.NewVectorRenderer(rc).RenderToPNG(w); err != nil {
			log.Printf("Error encoding map PNG: %v", err)
		}
	})

	// Vector map preview
	mux.HandleFunc("/map.svg", func(w http.ResponseWriter, r *http.Request) {
		p := parseViewParams(r)
		rc, _, err := app.buildView(p.dataset, p.fullDetail, p.mode, p.retailClass, p.floodClass, p.landuse, p.noDefaults)
		if err != nil {
			writeError(w, "/map.svg", err)
			return
		}
		if len(rc.Features) == 0 {
			http.Error(w, "No features match the selected filters", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := grid.NewVectorRenderer(rc).RenderToSVG(w); err != nil {
			log.Printf("Error encoding map SVG: %v", err)
		}
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// writeError maps grid errors onto HTTP statuses: data and schema problems
// are unprocessable, the rest is internal.
func writeError(w http.ResponseWriter, endpoint string, err error) {
	log.Printf("[HTTP] %s error: %v", endpoint, err)

	var formatErr *grid.FormatError
	var projErr *grid.ProjectionError
	var schemaErr *grid.SchemaMismatchError
	switch {
	case errors.As(err, &formatErr), errors.As(err, &projErr), errors.As(err, &schemaErr):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
