package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"sharekindness/internal/infra"
	"sharekindness/internal/migrations"
)

func main() {
	_ = godotenv.Load()

	var (
		dbURL  string
		list   bool
		appEnv string
	)
	flag.StringVar(&dbURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	flag.BoolVar(&list, "list", false, "print embedded migrations and exit")
	flag.StringVar(&appEnv, "env", "cli", "logger environment")
	flag.Parse()

	logger := infra.NewLogger(appEnv).With().Str("cmd", "migrate").Logger()

	if list {
		all, err := migrations.Load()
		if err != nil {
			exitWithError(err)
		}
		for _, m := range all {
			fmt.Println(m.Version)
		}
		return
	}

	dbURL = strings.TrimSpace(dbURL)
	if dbURL == "" {
		exitWithError(fmt.Errorf("DATABASE_URL is required"))
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("open database: %w", err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		exitWithError(fmt.Errorf("ping database: %w", err))
	}

	applied, err := migrations.Apply(ctx, db, logger)
	if err != nil {
		exitWithError(err)
	}
	if len(applied) == 0 {
		fmt.Println("schema is up to date")
		return
	}
	for _, v := range applied {
		fmt.Printf("applied %s\n", v)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
