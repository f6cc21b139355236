package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/JayJamieson/tabload/pkg/api"
)

func main() {

	port := flag.Int("port", 8001, "Server port")
	dbURL := flag.String("db-url", "file:data.db", "Catalog database URL (file: for a local SQLite file, libsql:// for Turso)")
	dataDir := flag.String("data-dir", "./data", "Directory for staged DuckDB imports")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if p, err := fmt.Sscanf(envPort, "%d", port); err != nil || p != 1 {
			log.Printf("Invalid PORT environment variable: %s, using default: %d", envPort, *port)
		}
	}

	if envDBURL := os.Getenv("DATABASE_URL"); envDBURL != "" {
		*dbURL = envDBURL
	}

	if envDataDir := os.Getenv("DATA_DIR"); envDataDir != "" {
		*dataDir = envDataDir
	}

	config := api.Config{
		Port:        *port,
		DatabaseURL: *dbURL,
		DataDir:     *dataDir,
	}

	server, err := api.New(config)

	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
