package jobs

import (
	"context"
	"log"
	"time"

	"taxdesk/internal/repositories"
	"taxdesk/internal/services"
)

// OrphanSweeper reconciles the object store against document metadata.
// A failed upload can leave a binary with no record; deletion failures can
// leave a record with no binary. The sweeper removes the former and reports
// the latter, so both sides converge without manual cleanup.
type OrphanSweeper struct {
	store       services.ObjectStore
	documents   repositories.DocumentRepository
	gracePeriod time.Duration
}

func NewOrphanSweeper(store services.ObjectStore, documents repositories.DocumentRepository, gracePeriod time.Duration) *OrphanSweeper {
	return &OrphanSweeper{
		store:       store,
		documents:   documents,
		gracePeriod: gracePeriod,
	}
}

// Sweep deletes stored objects that no document record references and are
// older than the grace period. The grace period keeps the sweeper from
// racing an upload whose metadata write has not landed yet.
func (s *OrphanSweeper) Sweep(ctx context.Context) error {
	objects, err := s.store.List(ctx)
	if err != nil {
		log.Printf("WARN: orphan sweep: listing object store failed: %v", err)
		return err
	}

	keys, err := s.documents.ListStorageKeys(ctx)
	if err != nil {
		log.Printf("WARN: orphan sweep: listing document storage keys failed: %v", err)
		return err
	}

	referenced := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		referenced[k] = struct{}{}
	}

	stored := make(map[string]struct{}, len(objects))
	cutoff := time.Now().Add(-s.gracePeriod)
	removed := 0
	for _, obj := range objects {
		stored[obj.Key] = struct{}{}
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			log.Printf("WARN: orphan sweep: could not delete orphaned object %s: %v", obj.Key, err)
			continue
		}
		removed++
	}

	// Records pointing at missing binaries are not deleted here; they need
	// a human decision. Surface them instead.
	for _, k := range keys {
		if _, ok := stored[k]; !ok {
			log.Printf("WARN: orphan sweep: document record references missing object %s", k)
		}
	}

	log.Printf("Orphan sweep completed: %d objects checked, %d orphans removed", len(objects), removed)
	return nil
}
