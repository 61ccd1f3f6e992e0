package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"arena-quiz-service/internal/domain"
)

// RowStore keeps one row document per user under arena:row:{userKey}.
// Documents have no TTL; they are the durable copy of the user's progress.
type RowStore struct {
	client *redis.Client
}

func NewRowStore(client *redis.Client) *RowStore {
	return &RowStore{client: client}
}

func (s *RowStore) Find(ctx context.Context, userKey string) (domain.RowHandle, error) {
	n, err := s.client.Exists(ctx, s.key(userKey)).Result()
	if err != nil {
		return domain.RowHandle{}, err
	}
	if n == 0 {
		return domain.RowHandle{}, domain.ErrRowNotFound
	}
	return domain.RowHandle{UserKey: userKey}, nil
}

func (s *RowStore) ReadCell(ctx context.Context, row domain.RowHandle) (string, error) {
	value, err := s.client.Get(ctx, s.key(row.UserKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrRowNotFound
	}
	return value, err
}

func (s *RowStore) WriteCell(ctx context.Context, row domain.RowHandle, value string) error {
	return s.client.Set(ctx, s.key(row.UserKey), value, 0).Err()
}

func (s *RowStore) AppendRow(ctx context.Context, userKey, value string) (domain.RowHandle, error) {
	// SETNX keeps an existing row intact if two devices race on first login.
	if err := s.client.SetNX(ctx, s.key(userKey), value, 0).Err(); err != nil {
		return domain.RowHandle{}, err
	}
	return domain.RowHandle{UserKey: userKey}, nil
}

func (s *RowStore) key(userKey string) string {
	return "arena:row:" + userKey
}
