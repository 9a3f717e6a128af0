package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/retailgrid/gridscope/grid"
)

// App encapsulates the application state and dependencies.
type App struct {
	Config *grid.Config
	Store  *grid.Store

	// Uploaded sources kept for the session so filter and tolerance changes
	// can rebuild them. Session state lives here, not in the grid package.
	mu      sync.RWMutex
	uploads map[string][]byte

	// CLI flags (effectively dependencies)
	Dataset     string
	FullDetail  bool
	Mode        grid.ColorMode
	NoDefaults  bool
	RetailClass string
	FloodClass  string
	Landuse     string
	OutputFile  string
	Format      string
	HTTPPort    int
}

// AppOptions carries the CLI options into the App instance.
type AppOptions struct {
	Dataset     string
	FullDetail  bool
	Mode        grid.ColorMode
	NoDefaults  bool
	RetailClass string
	FloodClass  string
	Landuse     string
	OutputFile  string
	Format      string
	HTTPPort    int
}

// NewApp creates a new App instance.
func NewApp(config *grid.Config) *App {
	return &App{
		Config:  config,
		Store:   grid.NewStore(),
		uploads: make(map[string][]byte),
	}
}

// ApplyOptions applies CLI options to the App instance.
func (a *App) ApplyOptions(opts AppOptions) {
	a.Dataset = opts.Dataset
	a.FullDetail = opts.FullDetail
	a.Mode = opts.Mode
	a.NoDefaults = opts.NoDefaults
	a.RetailClass = opts.RetailClass
	a.FloodClass = opts.FloodClass
	a.Landuse = opts.Landuse
	a.OutputFile = opts.OutputFile
	a.Format = opts.Format
	if opts.HTTPPort != 0 {
		a.HTTPPort = opts.HTTPPort
	} else {
		a.HTTPPort = a.Config.HTTPPort
	}
}

// loadDataset loads a named dataset at the requested detail level, from the
// configured file or from a session upload.
func (a *App) loadDataset(name string, fullDetail bool) (*grid.Dataset, error) {
	if name == "" && len(a.Config.Datasets) > 0 {
		name = a.Config.Datasets[0].Name
	}
	tolerance := a.Config.ToleranceFor(fullDetail)

	a.mu.RLock()
	data, uploaded := a.uploads[name]
	a.mu.RUnlock()
	if uploaded {
		return a.Store.LoadBytes(name, data, tolerance)
	}

	path := a.Config.DatasetPath(name)
	if path == "" {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	return a.Store.Load(path, tolerance)
}

// addUpload registers an uploaded source for the session.
func (a *App) addUpload(name string, data []byte) {
	a.mu.Lock()
	a.uploads[name] = data
	a.mu.Unlock()
}

// filterSelection resolves the effective predicates for a dataset from
// explicit label selections, falling back to the configured defaults
// (high potential, low risk) for attributes with no explicit choice.
// "All" disables the filter for that attribute.
func (a *App) filterSelection(ds *grid.Dataset, retailClass, floodClass, landuse string, noDefaults bool) []grid.Predicate {
	defaults := make(map[string]string)
	if !noDefaults {
		for _, p := range grid.DefaultPredicates(ds, a.Config.Defaults) {
			if label, ok := p.Value.(string); ok {
				defaults[p.Attr] = label
			}
		}
	}

	pick := func(attr, explicit string) {
		if explicit == "" {
			explicit = defaults[attr]
		}
		if explicit == "" || strings.EqualFold(explicit, "All") {
			delete(defaults, attr)
			return
		}
		defaults[attr] = explicit
	}
	pick(a.Config.Defaults.ClassAttr, retailClass)
	pick(a.Config.Defaults.RiskAttr, floodClass)

	var preds []grid.Predicate
	for _, attr := range []string{a.Config.Defaults.ClassAttr, a.Config.Defaults.RiskAttr} {
		if label, ok := defaults[attr]; ok {
			preds = append(preds, grid.Predicate{Attr: attr, Value: label})
		}
	}

	if landuse != "" && !strings.EqualFold(landuse, "All") {
		if col := ds.Schema.FirstPresent(a.Config.LanduseColumns...); col != "" {
			preds = append(preds, grid.Predicate{Attr: col, Value: landuse})
		}
	}
	return preds
}

// buildView loads, filters and colors the requested dataset view.
func (a *App) buildView(name string, fullDetail bool, mode grid.ColorMode, retailClass, floodClass, landuse string, noDefaults bool) (*grid.RenderCollection, *grid.Dataset, error) {
	ds, err := a.loadDataset(name, fullDetail)
	if err != nil {
		return nil, nil, err
	}

	filtered := grid.Filter(ds, a.filterSelection(ds, retailClass, floodClass, landuse, noDefaults))
	rc, err := grid.BuildFeatureCollection(filtered, a.Config, mode)
	if err != nil {
		return nil, nil, err
	}
	return rc, filtered, nil
}

// RunInspect loads every configured dataset and prints its shape.
func (a *App) RunInspect() {
	for _, dc := range a.Config.Datasets {
		fmt.Printf("=== %s ===\n", dc.Name)
		fmt.Printf("File: %s\n", dc.Path)

		ds, err := a.loadDataset(dc.Name, a.FullDetail)
		if err != nil {
			fmt.Printf("ERROR: %v\n\n", err)
			continue
		}

		summary := grid.Summarize(ds, a.Config)
		fmt.Printf("Features: %d (tolerance %g)\n", ds.Len(), ds.Tolerance)
		fmt.Printf("Schema: %s\n", strings.Join(ds.Schema.Names(), ", "))
		fmt.Printf("Center: (%.5f, %.5f)\n", summary.Center[0], summary.Center[1])
		if summary.ClassCounts != nil {
			fmt.Printf("Retail High: %d (%.1f%%)\n", summary.HighCount, summary.HighShare*100)
		}
		if summary.HasPopulation {
			fmt.Printf("Total Population: %.0f\n", summary.TotalPopulation)
		}
		if summary.HasScore {
			fmt.Printf("Score Range: %.3f .. %.3f\n", summary.ScoreMin, summary.ScoreMax)
		}
		for _, w := range ds.Warnings {
			fmt.Printf("WARNING feature %s: %s\n", w.FeatureID, w.Message)
		}
		fmt.Println()
	}
}

// RunRender renders the filtered grid map to the output file.
func (a *App) RunRender() {
	rc, filtered, err := a.buildView(a.Dataset, a.FullDetail, a.Mode, a.RetailClass, a.FloodClass, a.Landuse, a.NoDefaults)
	if err != nil {
		log.Fatalf("Error building view: %v", err)
	}
	log.Printf("Rendering %d features (%d after filters) to %s", len(rc.Features), filtered.Len(), a.OutputFile)

	switch a.Format {
	case "svg":
		file, err := os.Create(a.OutputFile)
		if err != nil {
			log.Fatalf("Error creating output file: %v", err)
		}
		defer file.Close()
		if err := grid.NewVectorRenderer(rc).RenderToSVG(file); err != nil {
			log.Fatalf("Error rendering SVG: %v", err)
		}
	case "vector-png":
		file, err := os.Create(a.OutputFile)
		if err != nil {
			log.Fatalf("Error creating output file: %v", err)
		}
		defer file.Close()
		if err := grid.NewVectorRenderer(rc).RenderToPNG(file); err != nil {
			log.Fatalf("Error rendering PNG: %v", err)
		}
	default:
		if err := grid.NewRasterRenderer(rc).SavePNG(a.OutputFile); err != nil {
			log.Fatalf("Error rendering PNG: %v", err)
		}
	}
	log.Printf("Wrote %s", a.OutputFile)
}

// RunServe starts the HTTP server and blocks until interrupted.
func (a *App) RunServe() {
	addr := fmt.Sprintf(":%d", a.HTTPPort)
	server := &http.Server{
		Addr:    addr,
		Handler: newHTTPServer(a),
	}

	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	shutdownDone := make(chan struct{})
	go func() {
		_ = server.Close()
		close(shutdownDone)
	}()
	select {
	case <-shutdownDone:
	case <-time.After(5 * time.Second):
	}
}
