// fix-db is an operator tool for recovering a dirty migration state: it
// forces the schema_migrations version back to a known-good one so the app
// can run migrations normally again.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func main() {
	version := flag.Int("version", 0, "migration version to force (the last known-good one)")
	flag.Parse()

	if *version <= 0 {
		log.Fatal("-version is required and must be positive")
	}

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		connStr = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			envOr("DATABASE_HOST", "localhost"),
			envOr("DATABASE_PORT", "5432"),
			envOr("DATABASE_USER", "postgres"),
			os.Getenv("DATABASE_PASSWORD"),
			envOr("DATABASE_DBNAME", "assessment_db"),
			envOr("DATABASE_SSLMODE", "disable"),
		)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Forcing migration version to %d to clean dirty state...\n", *version)

	if err := m.Force(*version); err != nil {
		log.Fatalf("Failed to force version: %v", err)
	}

	fmt.Println("Success! Dirty state cleaned. You can now run the app normally.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
