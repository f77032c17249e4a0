package main

import (
	"flag"
	"os"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/export"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	var eventID = flag.Int64("event", 0, "Event ID to export (defaults to the only active event)")
	var outPath = flag.String("out", "", "Output file (defaults to stdout)")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	id := *eventID
	if id == 0 {
		ev, err := export.PickEvent(service.Store)
		if err != nil {
			logger.Error.Fatalf("Failed to pick event: %v", err)
		}
		id = ev.ID
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Error.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	exporter := export.NewStandingsExporter(service.Store, service.Engine)
	if err := exporter.WriteEvent(out, id); err != nil {
		logger.Error.Fatalf("Export failed: %v", err)
	}

	logger.Info.Printf("Exported standings for event %d", id)
}
