package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/config"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "overall migration timeout")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if cfg.StoreProvider != config.StorePostgres {
		log.Fatalf("Migrations need the postgres store, ECOMAKER_STORE=%s", cfg.StoreProvider)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := repository.RunMigrations(ctx, cfg.DSN(), args[0], args[1:]...); err != nil {
		log.Fatalf("Migration error: %v", err)
	}

	files, _ := repository.MigrationFiles()
	log.Printf("Migration %q finished (%d embedded migrations)", args[0], len(files))
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-timeout 10m] <command> [version]")
	fmt.Fprintln(os.Stderr, "Commands:", strings.Join(repository.MigrationCommands, ", "))
}
