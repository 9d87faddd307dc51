package registry

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore resolves participants from the participants table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens a database handle for dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("registry: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations to db.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("registry: migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("registry: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("registry: migrate init: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("registry: migrate up: %w", err)
	}
	return nil
}

// NewPostgresStore creates a store backed by the given database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindParticipant selects the participant row for id.
func (s *PostgresStore) FindParticipant(ctx context.Context, id string) (Participant, error) {
	const query = `SELECT id, name, rating FROM participants WHERE id = $1`

	var p Participant
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Rating)
	if errors.Is(err, sql.ErrNoRows) {
		return Participant{}, notFound(id)
	}
	if err != nil {
		return Participant{}, fmt.Errorf("registry: postgres lookup %s: %w", id, err)
	}
	return p, nil
}

// Upsert inserts or updates a participant row.
func (s *PostgresStore) Upsert(ctx context.Context, p Participant) error {
	const query = `
		INSERT INTO participants (id, name, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, rating = EXCLUDED.rating`

	if _, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Rating); err != nil {
		return fmt.Errorf("registry: postgres upsert %s: %w", p.ID, err)
	}
	return nil
}
