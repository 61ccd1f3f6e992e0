package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"arena-quiz-service/internal/domain"
)

// CatalogLoader fetches the static catalogs from a backing store.
type CatalogLoader interface {
	LoadStages(ctx context.Context) ([]domain.Stage, error)
	LoadQuestionBank(ctx context.Context) (domain.QuestionBank, error)
}

// CatalogRepository caches the catalogs with TTL to avoid repeated backend
// hits; the catalogs are immutable for the process lifetime so a generous
// TTL is fine.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	stages    []domain.Stage
	bank      domain.QuestionBank
	expiresAt time.Time
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) Stages(ctx context.Context) ([]domain.Stage, error) {
	if err := r.refresh(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stages, nil
}

func (r *CatalogRepository) QuestionBank(ctx context.Context) (domain.QuestionBank, error) {
	if err := r.refresh(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bank, nil
}

func (r *CatalogRepository) refresh(ctx context.Context) error {
	now := r.clock()

	r.mu.RLock()
	fresh := r.stages != nil && r.expiresAt.After(now)
	r.mu.RUnlock()
	if fresh {
		return nil
	}

	_, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.stages != nil && r.expiresAt.After(now) {
			r.mu.RUnlock()
			return nil, nil
		}
		r.mu.RUnlock()

		stages, err := r.loader.LoadStages(ctx)
		if err != nil {
			return nil, err
		}
		bank, err := r.loader.LoadQuestionBank(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.stages = stages
		r.bank = bank
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return nil, nil
	})
	return err
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader serves catalogs from memory (useful for tests/demos).
type StaticCatalogLoader struct {
	stages []domain.Stage
	bank   domain.QuestionBank
}

func NewStaticCatalogLoader(stages []domain.Stage, bank domain.QuestionBank) *StaticCatalogLoader {
	return &StaticCatalogLoader{stages: stages, bank: bank}
}

func (l *StaticCatalogLoader) LoadStages(_ context.Context) ([]domain.Stage, error) {
	return l.stages, nil
}

func (l *StaticCatalogLoader) LoadQuestionBank(_ context.Context) (domain.QuestionBank, error) {
	return l.bank, nil
}
