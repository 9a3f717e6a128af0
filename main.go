package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/retailgrid/gridscope/grid"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile  = flag.String("config", "config.yaml", "Path to configuration file")
	inspectOnly = flag.Bool("inspect", false, "Load configured datasets, print schema and warnings, and exit")
	renderOnly  = flag.Bool("render", false, "Render the filtered grid map and exit")
	httpMode    = flag.Bool("serve", false, "Run the HTTP server serving render-ready features")
	httpPort    = flag.Int("http-port", 0, "HTTP server port (overrides config)")

	datasetName = flag.String("dataset", "", "Dataset name from config (default: first configured)")
	fullDetail  = flag.Bool("full-detail", false, "Use the full-detail simplification tolerance (slower)")
	colorMode   = flag.String("mode", "class", "Color mode: class or value")
	noDefaults  = flag.Bool("no-default-filters", false, "Start from the unfiltered dataset instead of the high-potential/low-risk default view")

	retailClass = flag.String("retail-class", "", "Filter by retail class label (\"All\" disables)")
	floodClass  = flag.String("flood-class", "", "Filter by flood class label (\"All\" disables)")
	landuse     = flag.String("landuse", "", "Filter by land-use label (\"All\" disables)")

	outputFile   = flag.String("output", "grid-map.png", "Output file for --render mode")
	renderFormat = flag.String("format", "raster", "Render format: raster, svg, or vector-png")
)

func main() {
	flag.Parse()
	fmt.Printf("gridscope version: %s\n", Version)

	config, err := grid.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	app := NewApp(config)
	app.ApplyOptions(AppOptions{
		Dataset:     *datasetName,
		FullDetail:  *fullDetail,
		Mode:        parseColorMode(*colorMode),
		NoDefaults:  *noDefaults,
		RetailClass: *retailClass,
		FloodClass:  *floodClass,
		Landuse:     *landuse,
		OutputFile:  *outputFile,
		Format:      *renderFormat,
		HTTPPort:    *httpPort,
	})

	switch {
	case *inspectOnly:
		app.RunInspect()
	case *renderOnly:
		app.RunRender()
	case *httpMode:
		app.RunServe()
	default:
		fmt.Println("gridscope: retail expansion grid dashboard core")
		fmt.Println("Use --inspect to load datasets and print their schemas")
		fmt.Println("Use --render to write the filtered grid map to a file")
		fmt.Println("Use --serve to run the HTTP server")
		fmt.Println("\nConfiguration:")
		fmt.Println("  config.yaml - datasets, tolerance presets, default filters, tooltip columns")
	}
}

func parseColorMode(s string) grid.ColorMode {
	if s == "value" || s == "score" {
		return grid.ColorByValue
	}
	return grid.ColorByClass
}
