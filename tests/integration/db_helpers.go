package integration

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tuanvn/tourbook/internal/database"
	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/pkg/auth"
)

// TestDB manages PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("tourbook"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// runMigrations executes all goose migrations
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	goose.SetLogger(log.New(io.Discard, "", 0))

	// Goose needs a stdlib DB connection
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"orders",
		"favorites",
		"bookings",
		"tours",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedUser inserts a user with a hashed password and returns it
func SeedUser(ctx context.Context, pool *pgxpool.Pool, fullName, email, password, role string) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (full_name, email, phone, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, '', $3, $4, NOW(), NOW())
		RETURNING id, full_name, email, password_hash, role, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, fullName, email, hashedPassword, role).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

// SeedTour inserts an active tour with the given price and capacity
func SeedTour(ctx context.Context, pool *pgxpool.Pool, name string, price int64, maxParticipants, currentParticipants int) (*models.Tour, error) {
	query := `
		INSERT INTO tours (name, description, destination, departure_date, duration_days, price, max_participants, current_participants, status, created_at, updated_at)
		VALUES ($1, 'A test tour', 'Da Nang', NOW() + INTERVAL '30 days', 3, $2, $3, $4, 'ACTIVE', NOW(), NOW())
		RETURNING id, name, destination, price, max_participants, current_participants, status
	`

	var tour models.Tour
	err := pool.QueryRow(ctx, query, name, price, maxParticipants, currentParticipants).Scan(
		&tour.ID,
		&tour.Name,
		&tour.Destination,
		&tour.Price,
		&tour.MaxParticipants,
		&tour.CurrentParticipants,
		&tour.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tour: %w", err)
	}

	return &tour, nil
}

// CurrentParticipants reads the live participant counter for a tour
func CurrentParticipants(ctx context.Context, pool *pgxpool.Pool, tourID int64) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `SELECT current_participants FROM tours WHERE id = $1`, tourID).Scan(&count)
	return count, err
}

// BookingStatus reads the stored status for a booking
func BookingStatus(ctx context.Context, pool *pgxpool.Pool, bookingID int64) (string, error) {
	var status string
	err := pool.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, bookingID).Scan(&status)
	return status, err
}

// CountOrders counts orders recorded for a booking
func CountOrders(ctx context.Context, pool *pgxpool.Pool, bookingID int64) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE booking_id = $1`, bookingID).Scan(&count)
	return count, err
}
