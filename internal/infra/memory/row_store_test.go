package memory

import (
	"context"
	"errors"
	"testing"

	"arena-quiz-service/internal/domain"
)

func TestRowStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewRowStore()

	if _, err := store.Find(ctx, "u1"); !errors.Is(err, domain.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}

	row, err := store.AppendRow(ctx, "u1", `{"arena":{}}`)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.Find(ctx, "u1"); err != nil {
		t.Fatalf("find after append: %v", err)
	}

	if err := store.WriteCell(ctx, row, `{"arena":{"stats":{}}}`); err != nil {
		t.Fatalf("write: %v", err)
	}
	cell, err := store.ReadCell(ctx, row)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if cell != `{"arena":{"stats":{}}}` {
		t.Fatalf("unexpected cell: %s", cell)
	}
}

func TestAppendRowKeepsExistingDocument(t *testing.T) {
	ctx := context.Background()
	store := NewRowStore()

	row, _ := store.AppendRow(ctx, "u1", `{"first":true}`)
	if _, err := store.AppendRow(ctx, "u1", `{"second":true}`); err != nil {
		t.Fatalf("second append: %v", err)
	}
	cell, _ := store.ReadCell(ctx, row)
	if cell != `{"first":true}` {
		t.Fatalf("append overwrote existing row: %s", cell)
	}
}
