package memory

import (
	"context"
	"testing"
	"time"

	"arena-quiz-service/internal/domain"
)

func TestCatalogRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		CatalogLoader: NewStaticCatalogLoader(sampleStages(), sampleBank()),
	}
	repo := NewCatalogRepository(loader, time.Minute)

	if _, err := repo.Stages(context.Background()); err != nil {
		t.Fatalf("stages: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	// Both catalogs load together; neither call should hit the loader again.
	if _, err := repo.QuestionBank(context.Background()); err != nil {
		t.Fatalf("bank: %v", err)
	}
	if _, err := repo.Stages(context.Background()); err != nil {
		t.Fatalf("stages 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hits, loader calls %d", loader.calls)
	}
}

type countingLoader struct {
	CatalogLoader
	calls int
}

func (l *countingLoader) LoadStages(ctx context.Context) ([]domain.Stage, error) {
	l.calls++
	return l.CatalogLoader.LoadStages(ctx)
}

func sampleStages() []domain.Stage {
	return []domain.Stage{
		{ID: 1, Name: "Crixus", Policy: domain.TimeAndErrorBudget{MaxDurationMinutes: 60, MaxErrors: 7}},
	}
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		"doctore": {
			Name: "Doctore",
			Subjects: map[string]map[string][]domain.QuestionItem{
				"Constitucional": {
					"Princípios": {
						{ID: "q1", Prompt: "one", Answer: domain.AnswerRight},
					},
				},
			},
		},
	}
}
