package utils

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is one Discord account's pond economy record.
type User struct {
	UserID    int64
	Chips     int64
	TotalXP   int64
	Wins      int
	Losses    int
	CreatedAt time.Time
}

// UserUpdateData describes increment-style updates applied atomically
// in a single UPDATE.
type UserUpdateData struct {
	ChipsIncrement   int64
	TotalXPIncrement int64
	WinsIncrement    int
	LossesIncrement  int
}

var (
	DB            *pgxpool.Pool
	dbInitialized = false
	dbMutex       sync.RWMutex
)

// SetupDatabase initializes the connection pool. A missing DATABASE_URL
// is not an error: the bot runs with in-memory fallback balances so
// local development doesn't need Postgres.
func SetupDatabase() error {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if dbInitialized {
		return nil
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil
	}

	ctx := context.Background()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "tadpole-derby",
		"timezone":          "UTC",
		"statement_timeout": "30s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	conn.Release()

	DB = pool
	dbInitialized = true

	if err := createUsersTable(); err != nil {
		return fmt.Errorf("failed to ensure users table: %w", err)
	}
	return nil
}

// CloseDatabase closes the connection pool.
func CloseDatabase() {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if DB != nil {
		DB.Close()
		DB = nil
		dbInitialized = false
	}
}

// PingDatabase checks pool health for the /healthz endpoint. Reports
// healthy when no database is configured at all.
func PingDatabase(ctx context.Context) error {
	dbMutex.RLock()
	pool := DB
	dbMutex.RUnlock()
	if pool == nil {
		return nil
	}
	return pool.Ping(ctx)
}

func createUsersTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			chips BIGINT NOT NULL DEFAULT 0,
			total_xp BIGINT NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	_, err := DB.Exec(context.Background(), query)
	return err
}

// GetUser retrieves a user, creating one with starting chips if it
// doesn't exist. Without a database a throwaway record is returned so
// games remain playable.
func GetUser(userID int64) (*User, error) {
	if DB == nil {
		return &User{
			UserID:    userID,
			Chips:     StartingChips,
			CreatedAt: time.Now(),
		}, nil
	}

	ctx := context.Background()
	user := &User{}

	query := `
		SELECT user_id, chips, total_xp, wins, losses, created_at
		FROM users WHERE user_id = $1`

	err := DB.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.Chips,
		&user.TotalXP,
		&user.Wins,
		&user.Losses,
		&user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return CreateUser(userID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// CreateUser inserts a new user with the starting balance.
func CreateUser(userID int64) (*User, error) {
	if DB == nil {
		return &User{
			UserID:    userID,
			Chips:     StartingChips,
			CreatedAt: time.Now(),
		}, nil
	}

	ctx := context.Background()
	user := &User{
		UserID:    userID,
		Chips:     StartingChips,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO users (user_id, chips, total_xp, wins, losses, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := DB.Exec(ctx, query,
		user.UserID, user.Chips, user.TotalXP, user.Wins, user.Losses, user.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// UpdateUser applies increment updates and returns the updated row.
func UpdateUser(userID int64, updates UserUpdateData) (*User, error) {
	if DB == nil {
		return &User{
			UserID:    userID,
			Chips:     StartingChips + updates.ChipsIncrement,
			TotalXP:   updates.TotalXPIncrement,
			Wins:      updates.WinsIncrement,
			Losses:    updates.LossesIncrement,
			CreatedAt: time.Now(),
		}, nil
	}

	ctx := context.Background()

	setParts := []string{}
	args := []interface{}{userID} // $1 is always userID
	argIndex := 2

	if updates.ChipsIncrement != 0 {
		setParts = append(setParts, fmt.Sprintf("chips = chips + $%d", argIndex))
		args = append(args, updates.ChipsIncrement)
		argIndex++
	}
	if updates.TotalXPIncrement != 0 {
		setParts = append(setParts, fmt.Sprintf("total_xp = total_xp + $%d", argIndex))
		args = append(args, updates.TotalXPIncrement)
		argIndex++
	}
	if updates.WinsIncrement != 0 {
		setParts = append(setParts, fmt.Sprintf("wins = wins + $%d", argIndex))
		args = append(args, updates.WinsIncrement)
		argIndex++
	}
	if updates.LossesIncrement != 0 {
		setParts = append(setParts, fmt.Sprintf("losses = losses + $%d", argIndex))
		args = append(args, updates.LossesIncrement)
		argIndex++
	}

	if len(setParts) == 0 {
		return GetUser(userID)
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE user_id = $1
		RETURNING user_id, chips, total_xp, wins, losses, created_at`,
		strings.Join(setParts, ", "))

	user := &User{}
	err := DB.QueryRow(ctx, query, args...).Scan(
		&user.UserID,
		&user.Chips,
		&user.TotalXP,
		&user.Wins,
		&user.Losses,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
