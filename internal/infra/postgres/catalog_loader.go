package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"arena-quiz-service/internal/domain"
)

// CatalogLoader loads the static catalogs from JSONB rows in the catalogs
// table, one row per catalog name ("stages", "mentors").
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadStages(ctx context.Context) ([]domain.Stage, error) {
	raw, err := l.load(ctx, "stages")
	if err != nil {
		return nil, err
	}
	var stages []domain.Stage
	if err := json.Unmarshal(raw, &stages); err != nil {
		return nil, fmt.Errorf("unmarshal stages catalog: %w", err)
	}
	return stages, nil
}

func (l *CatalogLoader) LoadQuestionBank(ctx context.Context) (domain.QuestionBank, error) {
	raw, err := l.load(ctx, "mentors")
	if err != nil {
		return nil, err
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("unmarshal mentors catalog: %w", err)
	}
	return bank, nil
}

func (l *CatalogLoader) load(ctx context.Context, name string) ([]byte, error) {
	var raw []byte
	if err := l.pool.QueryRow(ctx, `SELECT data FROM catalogs WHERE name=$1`, name).Scan(&raw); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", name, err)
	}
	return raw, nil
}
