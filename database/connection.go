package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"botshop/metrics"
	"botshop/models"

	log "github.com/sirupsen/logrus"
)

// DB is the single-file document store. The in-memory document is owned by
// the queue worker: it is only read or replaced from inside a queued task.
type DB struct {
	path    string
	queue   *TaskQueue
	doc     *models.Document
	state   LoadState
	metrics *metrics.StoreMetrics
}

// Option configures a DB
type Option func(*DB)

// WithMetrics records queue and save metrics on m
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(db *DB) {
		db.metrics = m
	}
}

// Open loads the document at path and starts the write queue. A missing,
// unparsable or structurally incomplete file is replaced by its repaired
// form before Open returns; an unparsable file is first moved aside.
func Open(ctx context.Context, path string, opts ...Option) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db := &DB{path: path}
	for _, opt := range opts {
		opt(db)
	}

	doc, state := Load(path)
	switch state {
	case LoadStateCorrupt:
		if err := quarantine(path); err != nil {
			return nil, err
		}
		fallthrough
	case LoadStateMissing, LoadStateRepaired:
		n, err := save(path, doc)
		db.metrics.ObserveSave(err, n)
		if err != nil {
			return nil, fmt.Errorf("failed to write initial document: %w", err)
		}
		log.WithFields(log.Fields{
			"path":  path,
			"state": state,
		}).Info("Store document initialized")
	}

	db.doc = doc
	db.state = state
	db.queue = NewTaskQueue(db.metrics)

	log.WithFields(log.Fields{
		"path":        path,
		"users":       len(doc.Users),
		"instances":   len(doc.Instances),
		"withdrawals": len(doc.Withdrawals),
	}).Info("Store opened")
	return db, nil
}

// quarantine moves an unreadable document aside so it can be inspected
func quarantine(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	dest := fmt.Sprintf("%s.corrupt-%s", path, time.Now().UTC().Format("20060102T150405.000000000"))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to move corrupt document aside: %w", err)
	}
	log.WithFields(log.Fields{
		"path":       path,
		"quarantine": dest,
	}).Warn("Moved corrupt store document aside")
	return nil
}

// Path returns the file backing the store
func (db *DB) Path() string {
	return db.path
}

// LoadState reports what Open found on disk
func (db *DB) LoadState() LoadState {
	return db.state
}

// Metrics returns the metrics sink, possibly nil
func (db *DB) Metrics() *metrics.StoreMetrics {
	return db.metrics
}

// QueueLen returns the number of tasks waiting to run
func (db *DB) QueueLen() int {
	return db.queue.Len()
}

// Close drains queued work and rejects anything submitted afterwards
func (db *DB) Close() {
	db.queue.Close()
	log.WithField("path", db.path).Info("Store closed")
}
