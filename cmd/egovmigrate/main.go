package main

import (
	"flag"
	"fmt"
	"log"

	"egovportal/config"
	"egovportal/internal/pkg/storage"
)

// egovmigrate gerencia a tabela de sessão usada quando EGOV_STORAGE=postgres.
// Uso: egovmigrate [up|down|status|version|reset]
func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("EGOV_DATABASE_URL must be set")
	}

	db, err := storage.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("goose: failed to connect to DB: %v\n", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("goose: failed to close DB: %v\n", err)
		}
	}()

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command := arguments[0]

	if err := storage.RunMigrations(db, command, arguments[1:]...); err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("goose %s success\n", command)
}
