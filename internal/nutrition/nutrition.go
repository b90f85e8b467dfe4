// Package nutrition appends saved recipe nutrition facts to a user's history.
package nutrition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/larder/pkg/pagination"
	"github.com/JaimeStill/larder/pkg/query"
	"github.com/JaimeStill/larder/pkg/repository"
)

var (
	ErrUnknownUser = errors.New("nutrition entry references an unknown user")
	ErrDuplicate   = errors.New("nutrition entry already exists")
	ErrNotFound    = errors.New("nutrition entry not found")
)

// MapHTTPStatus maps nutrition errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownUser):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Facts are the per-recipe values written to the history. Nil fields are
// stored as NULL.
type Facts struct {
	Calories      *float64 `json:"calories"`
	TotalFat      *float64 `json:"total_fat_PDV"`
	Sugar         *float64 `json:"sugar_PDV"`
	Sodium        *float64 `json:"sodium_PDV"`
	Protein       *float64 `json:"protein_PDV"`
	SaturatedFat  *float64 `json:"saturated_fat_PDV"`
	Carbohydrates *float64 `json:"carbohydrates_PDV"`
}

// Entry is a persisted history row.
type Entry struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	LoggedAt time.Time `json:"logged_at"`
	Facts
}

// Recorder appends entries to the history.
type Recorder interface {
	// AddPDV appends one entry. Every call appends, even for identical facts.
	AddPDV(ctx context.Context, userID int64, facts Facts) (*Entry, error)
}

// System is the append-only nutrition history.
type System interface {
	Recorder
	// History returns one page of a user's entries, newest first unless the
	// request sorts otherwise.
	History(ctx context.Context, userID int64, page pagination.PageRequest) (*pagination.PageResult[Entry], error)
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

func New(db *sql.DB, logger *slog.Logger, pageCfg pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "nutrition"),
		pagination: pageCfg,
	}
}

var projection = query.NewProjectionMap("nutrition_log", "n").
	Project("id", "id").
	Project("user_id", "user_id").
	Project("logged_at", "logged_at").
	Project("calories", "calories").
	Project("total_fat_pdv", "total_fat_PDV").
	Project("sugar_pdv", "sugar_PDV").
	Project("sodium_pdv", "sodium_PDV").
	Project("protein_pdv", "protein_PDV").
	Project("saturated_fat_pdv", "saturated_fat_PDV").
	Project("carbohydrates_pdv", "carbohydrates_PDV")

var defaultSort = query.SortField{Field: "logged_at", Descending: true}

const insertEntry = `
	INSERT INTO nutrition_log (
		user_id, calories, total_fat_pdv, sugar_pdv, sodium_pdv,
		protein_pdv, saturated_fat_pdv, carbohydrates_pdv
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, logged_at`

func (r *repo) AddPDV(ctx context.Context, userID int64, facts Facts) (*Entry, error) {
	args := insertArgs(userID, facts)

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Entry, error) {
		return repository.QueryOne(ctx, tx, insertEntry, args, func(s repository.Scanner) (Entry, error) {
			e := Entry{UserID: userID, Facts: facts}
			err := s.Scan(&e.ID, &e.LoggedAt)
			return e, err
		})
	})

	if err != nil {
		return nil, classify(err, userID)
	}

	r.logger.Info("nutrition entry added", "id", e.ID, "user_id", userID)
	return &e, nil
}

func (r *repo) History(ctx context.Context, userID int64, page pagination.PageRequest) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort).
		WhereEquals("user_id", userID).
		OrderByFields(page.Sort)

	countSQL, countArgs, err := qb.BuildCount()
	if err != nil {
		return nil, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count nutrition entries: %w", err)
	}

	pageSQL, pageArgs, err := qb.BuildPage(page.Page, page.PageSize)
	if err != nil {
		return nil, err
	}
	entries, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query nutrition entries: %w", err)
	}

	result := pagination.NewPageResult(entries, total, page.Page, page.PageSize)
	return &result, nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var (
		e      Entry
		values [7]sql.NullFloat64
	)
	err := s.Scan(
		&e.ID, &e.UserID, &e.LoggedAt,
		&values[0], &values[1], &values[2], &values[3], &values[4], &values[5], &values[6],
	)
	if err != nil {
		return Entry{}, err
	}

	fields := []**float64{
		&e.Calories, &e.TotalFat, &e.Sugar, &e.Sodium,
		&e.Protein, &e.SaturatedFat, &e.Carbohydrates,
	}
	for i, v := range values {
		if v.Valid {
			*fields[i] = &v.Float64
		}
	}
	return e, nil
}

func classify(err error, userID int64) error {
	if repository.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func insertArgs(userID int64, f Facts) []any {
	return []any{
		userID,
		nullable(f.Calories),
		nullable(f.TotalFat),
		nullable(f.Sugar),
		nullable(f.Sodium),
		nullable(f.Protein),
		nullable(f.SaturatedFat),
		nullable(f.Carbohydrates),
	}
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
