package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"campusbites/internal/database/migrations"
	"campusbites/internal/logger"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	dir := flag.String("dir", "./migrations", "directory with migration files")
	seed := flag.Bool("seed", false, "also apply seed-data migrations")
	down := flag.Bool("down", false, "roll every migration back")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("failed to open PostgreSQL: %v", err))
	}
	defer sqldb.Close()
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("failed to connect to PostgreSQL: %v", err))
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.Options{Dir: *dir, SeedData: *seed}, log)
	defer runner.Close()

	if *down {
		if err := runner.Down(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("migrate down failed: %v", err))
		}
		log.Info("DATABASE", "rolled back all migrations")
		return
	}

	if err := runner.Run(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("migrate up failed: %v", err))
	}
	log.Info("DATABASE", "migrations applied")
}
