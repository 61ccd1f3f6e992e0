package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"arena-quiz-service/internal/domain"
)

// SegmentKey names this service's slice of the per-user row document. Other
// subsystems store sibling segments in the same document.
const SegmentKey = "arena"

// RowStore abstracts the row-per-user table (in-memory, Redis, Postgres).
// Column one is the user key, the remaining cell holds one JSON document.
type RowStore interface {
	Find(ctx context.Context, userKey string) (domain.RowHandle, error)
	ReadCell(ctx context.Context, row domain.RowHandle) (string, error)
	WriteCell(ctx context.Context, row domain.RowHandle, value string) error
	AppendRow(ctx context.Context, userKey, value string) (domain.RowHandle, error)
}

// Persistence loads and saves one user's progress segment without ever
// clobbering sibling segments stored in the same row document.
type Persistence struct {
	store RowStore
}

func NewPersistence(store RowStore) *Persistence {
	return &Persistence{store: store}
}

// Load fetches the user's progress. It never fails: any remote or parse
// problem degrades to zero-valued progress plus an offline status, so the
// caller always gets a usable aggregate. A user never seen before gets a
// fresh row appended.
func (p *Persistence) Load(ctx context.Context, userKey string) (*domain.UserProgress, domain.RowHandle, domain.SyncStatus) {
	progress := domain.NewUserProgress()

	row, err := p.store.Find(ctx, userKey)
	if errors.Is(err, domain.ErrRowNotFound) {
		doc := map[string]json.RawMessage{}
		spliceSegment(doc, progress)
		encoded, _ := json.Marshal(doc)
		row, err = p.store.AppendRow(ctx, userKey, string(encoded))
		if err != nil {
			log.Printf("append row for %s: %v", userKey, err)
			return progress, domain.RowHandle{UserKey: userKey}, offline(err)
		}
		return progress, row, domain.SyncStatus{State: domain.SyncOnlineNew}
	}
	if err != nil {
		log.Printf("find row for %s: %v", userKey, err)
		return progress, domain.RowHandle{UserKey: userKey}, offline(err)
	}

	cell, err := p.store.ReadCell(ctx, row)
	if err != nil {
		log.Printf("read row for %s: %v", userKey, err)
		return progress, row, offline(err)
	}

	doc := parseDocument(cell)
	if raw, ok := doc[SegmentKey]; ok {
		if err := json.Unmarshal(raw, progress); err != nil {
			// Corrupt segment counts as absent data, not a load failure.
			log.Printf("corrupt %s segment for %s, starting fresh: %v", SegmentKey, userKey, err)
			progress = domain.NewUserProgress()
		}
	}
	progress.EnsureDefaults()
	return progress, row, domain.SyncStatus{State: domain.SyncOnline}
}

// Save writes the progress back into its segment via read-modify-write, so
// sibling segments survive byte-for-byte. Failures are logged and swallowed:
// the user keeps playing on in-memory state and the next successful save
// captures the accumulated changes.
func (p *Persistence) Save(ctx context.Context, row domain.RowHandle, progress *domain.UserProgress) {
	doc := map[string]json.RawMessage{}
	cell, err := p.store.ReadCell(ctx, row)
	switch {
	case err == nil:
		doc = parseDocument(cell)
	case errors.Is(err, domain.ErrRowNotFound):
		// The row is gone; a document holding only our segment is correct.
	default:
		// The current document is unreadable, so writing would clobber any
		// sibling segments it holds. Skip this save; the next successful one
		// captures the accumulated changes.
		log.Printf("read row before save for %s, skipping save: %v", row.UserKey, err)
		return
	}
	if err := spliceSegment(doc, progress); err != nil {
		log.Printf("encode %s segment for %s: %v", SegmentKey, row.UserKey, err)
		return
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		log.Printf("encode row document for %s: %v", row.UserKey, err)
		return
	}
	if err := p.store.WriteCell(ctx, row, string(encoded)); err != nil {
		log.Printf("save row for %s: %v", row.UserKey, err)
	}
}

// parseDocument treats an unreadable document as empty rather than failing
// the operation that needed it.
func parseDocument(cell string) map[string]json.RawMessage {
	doc := map[string]json.RawMessage{}
	if cell == "" {
		return doc
	}
	if err := json.Unmarshal([]byte(cell), &doc); err != nil {
		return map[string]json.RawMessage{}
	}
	return doc
}

func spliceSegment(doc map[string]json.RawMessage, progress *domain.UserProgress) error {
	raw, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	doc[SegmentKey] = raw
	return nil
}

func offline(err error) domain.SyncStatus {
	return domain.SyncStatus{State: domain.SyncOffline, Reason: err.Error()}
}
