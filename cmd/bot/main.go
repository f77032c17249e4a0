package main

import (
	"flag"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/bot"
	"github.com/shrimpsizemoose/lussekatt/internal/scoring"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	cfg, err := bot.ReadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	markStore, err := app.NewStore(cfg.Database.DSN)
	if err != nil {
		logger.Error.Fatalf("Failed to connect to database: %v", err)
	}
	defer markStore.Close()

	engine := scoring.NewEngine(scoring.TieBreak(cfg.Scoring.TieBreak), cfg.Scoring.DefaultCategory)

	b, err := bot.New(cfg, markStore, engine)
	if err != nil {
		logger.Error.Fatalf("Failed to create bot: %v", err)
	}

	logger.Info.Println("Starting standings bot...")
	if err := b.Start(); err != nil {
		logger.Error.Fatalf("Bot stopped with error: %v", err)
	}
}
