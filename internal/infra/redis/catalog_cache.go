package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"arena-quiz-service/internal/domain"
)

// CatalogLoader fetches the static catalogs from a backing store.
type CatalogLoader interface {
	LoadStages(ctx context.Context) ([]domain.Stage, error)
	LoadQuestionBank(ctx context.Context) (domain.QuestionBank, error)
}

// CatalogRepository caches the marshaled catalogs in Redis and falls back
// to the loader on a miss:
//
//	SET arena:catalog:stages  <stages JSON>  EX ttl
//	SET arena:catalog:mentors <bank JSON>    EX ttl
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const (
	stagesKey  = "arena:catalog:stages"
	mentorsKey = "arena:catalog:mentors"
)

func (r *CatalogRepository) Stages(ctx context.Context) ([]domain.Stage, error) {
	var stages []domain.Stage
	if raw, err := r.client.Get(ctx, stagesKey).Result(); err == nil {
		if err := json.Unmarshal([]byte(raw), &stages); err == nil {
			return stages, nil
		}
	}

	result, err, _ := r.sf.Do(stagesKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, stagesKey).Result(); err == nil {
			var cached []domain.Stage
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
		stages, err := r.loader.LoadStages(ctx)
		if err != nil {
			return nil, err
		}
		r.fill(ctx, stagesKey, stages)
		return stages, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Stage), nil
}

func (r *CatalogRepository) QuestionBank(ctx context.Context) (domain.QuestionBank, error) {
	if raw, err := r.client.Get(ctx, mentorsKey).Result(); err == nil {
		var bank domain.QuestionBank
		if err := json.Unmarshal([]byte(raw), &bank); err == nil {
			return bank, nil
		}
	}

	result, err, _ := r.sf.Do(mentorsKey, func() (interface{}, error) {
		if raw, err := r.client.Get(ctx, mentorsKey).Result(); err == nil {
			var cached domain.QuestionBank
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
		bank, err := r.loader.LoadQuestionBank(ctx)
		if err != nil {
			return nil, err
		}
		r.fill(ctx, mentorsKey, bank)
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.QuestionBank), nil
}

// fill is best-effort: a cache write failure only costs the next caller a
// loader round trip.
func (r *CatalogRepository) fill(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
