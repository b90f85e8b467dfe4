package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (System, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func TestGetUser(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE username = \$1`).
		WithArgs("ana").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "birth_date", "weight_kg", "height_cm", "gender", "created_at"}).
			AddRow(int64(7), "ana", "1990-05-20", 62.5, nil, "F", created))

	u, err := store.GetUser(context.Background(), "ana")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if u.ID != 7 || u.BirthDate != "1990-05-20" || u.Gender != "F" {
		t.Errorf("user: %+v", u)
	}
	if u.Weight == nil || *u.Weight != 62.5 || u.Height != nil {
		t.Errorf("biometrics: weight %v height %v", u.Weight, u.Height)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM users`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetUser(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser() error = %v, want ErrNotFound", err)
	}
}

func TestDailyBurn(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
		want float64
	}{
		{"latest record", sqlmock.NewRows([]string{"daily_burn"}).AddRow(450.0), 450},
		{"no record", sqlmock.NewRows([]string{"daily_burn"}), 0},
		{"null burn", sqlmock.NewRows([]string{"daily_burn"}).AddRow(nil), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectQuery(`SELECT daily_burn\s+FROM calories`).
				WithArgs(int64(7)).
				WillReturnRows(tt.rows)

			got, err := store.DailyBurn(context.Background(), 7)
			if err != nil {
				t.Fatalf("DailyBurn() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DailyBurn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDailyBurnQueryFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM calories`).WillReturnError(errors.New("connection reset"))

	if _, err := store.DailyBurn(context.Background(), 7); err == nil {
		t.Fatal("expected error")
	}
}
