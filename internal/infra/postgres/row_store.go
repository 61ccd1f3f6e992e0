package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"arena-quiz-service/internal/domain"
)

// RowStore is the Postgres implementation of app.RowStore: the user_rows
// table plays the role of the original row-per-user sheet, user_key as the
// first column and one JSONB document as the cell.
type RowStore struct {
	pool *pgxpool.Pool
}

func NewRowStore(pool *pgxpool.Pool) *RowStore {
	return &RowStore{pool: pool}
}

func (s *RowStore) Find(ctx context.Context, userKey string) (domain.RowHandle, error) {
	var key string
	err := s.pool.QueryRow(ctx, `SELECT user_key FROM user_rows WHERE user_key=$1`, userKey).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RowHandle{}, domain.ErrRowNotFound
	}
	if err != nil {
		return domain.RowHandle{}, fmt.Errorf("find user row: %w", err)
	}
	return domain.RowHandle{UserKey: key}, nil
}

func (s *RowStore) ReadCell(ctx context.Context, row domain.RowHandle) (string, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM user_rows WHERE user_key=$1`, row.UserKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrRowNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read user row: %w", err)
	}
	return string(raw), nil
}

func (s *RowStore) WriteCell(ctx context.Context, row domain.RowHandle, value string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE user_rows SET data=$2::jsonb, updated_at=now() WHERE user_key=$1`, row.UserKey, value)
	if err != nil {
		return fmt.Errorf("write user row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRowNotFound
	}
	return nil
}

func (s *RowStore) AppendRow(ctx context.Context, userKey, value string) (domain.RowHandle, error) {
	// A concurrent first login keeps whichever row landed first.
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_rows (user_key, data) VALUES ($1, $2::jsonb) ON CONFLICT (user_key) DO NOTHING`,
		userKey, value)
	if err != nil {
		return domain.RowHandle{}, fmt.Errorf("append user row: %w", err)
	}
	return domain.RowHandle{UserKey: userKey}, nil
}
