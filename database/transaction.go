package database

import (
	"context"
	"errors"
	"fmt"

	"botshop/metrics"
	"botshop/models"

	log "github.com/sirupsen/logrus"
)

// ErrPersist marks a failure to write the document to disk
var ErrPersist = errors.New("failed to persist store document")

// WithTransaction executes fn as one exclusive task against a private copy of
// the current document. If fn returns an error nothing is persisted and the
// copy is discarded. Otherwise the copy is saved atomically and becomes the
// current document. A save failure leaves the current document untouched.
//
// fn must not call back into the store: the queue is not reentrant.
func (db *DB) WithTransaction(ctx context.Context, fn func(doc *models.Document) error) error {
	return db.queue.RunExclusive(ctx, func() error {
		working := db.doc.Clone()

		if err := fn(working); err != nil {
			return err
		}

		n, err := save(db.path, working)
		db.metrics.ObserveSave(err, n)
		if err != nil {
			log.WithFields(log.Fields{
				"path":  db.path,
				"error": err,
			}).Error("Failed to save store document")
			return fmt.Errorf("%w: %w", ErrPersist, err)
		}

		db.doc = working
		return nil
	})
}

// WithSnapshot runs fn on the committed document. Reads are routed through the
// queue, so fn observes every write submitted before it. Committed documents
// are never mutated again, but fn must still treat doc as read-only.
func (db *DB) WithSnapshot(ctx context.Context, fn func(doc *models.Document) error) error {
	return db.queue.submit(ctx, metrics.KindRead, func() error {
		return fn(db.doc)
	})
}
