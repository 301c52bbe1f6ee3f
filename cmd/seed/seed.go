package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Lutefd/logpulse/internal/commons"
	"github.com/Lutefd/logpulse/internal/database"
	"github.com/Lutefd/logpulse/internal/repository"
	"github.com/Lutefd/logpulse/internal/service"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type dependencies struct {
	loadConn func() (string, error)
	openDB   func(driverName, dataSourceName string) (*sql.DB, error)
	migrate  func(db *sql.DB) error
	newKey   func() string
	loadEnv  func(...string) error
	out      io.Writer
}

var defaultDeps = dependencies{
	loadConn: commons.LoadPostgresConn,
	openDB:   sql.Open,
	migrate:  database.Migrate,
	newKey:   uuid.NewString,
	loadEnv:  godotenv.Load,
	out:      os.Stdout,
}

func main() {
	if err := run(context.Background(), defaultDeps); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, deps dependencies) error {
	if err := deps.loadEnv(); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	conn, err := deps.loadConn()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	db, err := deps.openDB("postgres", conn)
	if err != nil {
		return fmt.Errorf("error opening database connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("error connecting to the database: %w", err)
	}

	if err := deps.migrate(db); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	if err := seedSystemProject(ctx, db); err != nil {
		return fmt.Errorf("error creating system project: %w", err)
	}

	if err := createAdminKey(deps); err != nil {
		return fmt.Errorf("error creating admin key: %w", err)
	}
	return nil
}

func seedSystemProject(ctx context.Context, db *sql.DB) error {
	store, err := repository.NewPostgresStore("", db)
	if err != nil {
		return err
	}
	project, err := service.NewProjectService(store, nil).EnsureSystemProject(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("System project %s (%s) is ready\n", project.Name, project.ID)
	return nil
}

// createAdminKey prints a fresh admin API key and the hash to configure as
// ADMIN_API_KEY_HASH. Only the hash is ever stored.
func createAdminKey(deps dependencies) error {
	key := deps.newKey()
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing admin key: %w", err)
	}
	_, err = fmt.Fprintf(deps.out, "ADMIN_API_KEY=%s\nADMIN_API_KEY_HASH=%s\n", key, hash)
	return err
}
