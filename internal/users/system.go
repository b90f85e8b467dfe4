package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/larder/pkg/repository"
)

// System is the read-only user store used by the workflow.
type System interface {
	// GetUser returns the user with username or ErrNotFound.
	GetUser(ctx context.Context, username string) (*User, error)
	// DailyBurn returns the most recent daily calorie burn for userID,
	// or 0 when none has been recorded.
	DailyBurn(ctx context.Context, userID int64) (float64, error)
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a PostgreSQL-backed user store.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "users"),
	}
}

func (r *repo) GetUser(ctx context.Context, username string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := repository.QueryOne(ctx, r.db, q, []any{username}, scanUser)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &u, nil
}

func (r *repo) DailyBurn(ctx context.Context, userID int64) (float64, error) {
	q := `
		SELECT daily_burn
		FROM calories
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1`

	burn, err := repository.QueryOne(ctx, r.db, q, []any{userID}, scanBurn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("query daily burn: %w", err)
	}
	return burn, nil
}
