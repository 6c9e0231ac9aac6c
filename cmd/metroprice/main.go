package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/dxblabs/metroprice/internal/api"
	"github.com/dxblabs/metroprice/internal/ensemble"
	"github.com/dxblabs/metroprice/internal/geo"
	"github.com/dxblabs/metroprice/internal/projection"
	"github.com/dxblabs/metroprice/internal/store"
)

var cli struct {
	DB        string `help:"Path to the SQLite database." default:"data/metroprice.db" env:"METROPRICE_DB"`
	Port      string `help:"HTTP server port." default:"8080" env:"PORT"`
	Stations  string `help:"Path to the metro stations CSV." default:"data/metro_locations.csv" env:"METROPRICE_STATIONS"`
	ModelDir  string `help:"Directory holding the model artifacts." default:"model" env:"METROPRICE_MODEL_DIR"`
	NoHistory bool   `help:"Disable the projection history store (server keeps no state)."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("metroprice"),
		kong.Description("Projects residential prices near Dubai metro stations."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	stations, err := geo.LoadStations(cli.Stations)
	if err != nil {
		log.Fatalf("load stations: %v", err)
	}
	log.Printf("loaded %d metro stations from %s", stations.Len(), cli.Stations)

	var history *store.Store
	if cli.NoHistory {
		log.Println("history store disabled (--no-history)")
	} else {
		db, err := sql.Open("sqlite", cli.DB)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()

		db.Exec("PRAGMA journal_mode=WAL")
		db.Exec("PRAGMA busy_timeout=5000")

		history = store.New(db)
		if err := history.Migrate(); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Println("database migrated")
	}

	pipeline := ensemble.Open(cli.ModelDir)
	if err := pipeline.Ready(); err != nil {
		// Artifacts are static for the process lifetime, so a broken
		// deployment should fail here rather than on the first request.
		log.Fatalf("load model artifacts: %v", err)
	}
	log.Println("model artifacts loaded")

	projector := projection.New(stations, pipeline)
	server := api.NewServer(projector, pipeline, stations, history, cli.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
