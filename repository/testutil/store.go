package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"botshop/database"
	"botshop/events"
	"botshop/models"
	"botshop/repository"
	"botshop/service"

	"github.com/stretchr/testify/require"
)

// TestStore is a file-backed store living in a test's temp dir
type TestStore struct {
	DB         *database.DB
	Path       string
	EventBus   *events.Bus
	UowFactory service.UnitOfWorkFactory
}

// SetupTestStore opens an empty store that is closed when the test ends
func SetupTestStore(t *testing.T, opts ...repository.FactoryOption) *TestStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "store.json")
	db, err := database.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	bus := events.NewBus()
	return &TestStore{
		DB:         db,
		Path:       path,
		EventBus:   bus,
		UowFactory: repository.NewUnitOfWorkFactory(db, bus, opts...),
	}
}

// Seed writes fixtures straight into the document
func (s *TestStore) Seed(t *testing.T, fn func(doc *models.Document)) {
	t.Helper()
	err := s.DB.WithTransaction(context.Background(), func(doc *models.Document) error {
		fn(doc)
		return nil
	})
	require.NoError(t, err)
}

// Snapshot returns a copy of the committed document
func (s *TestStore) Snapshot(t *testing.T) *models.Document {
	t.Helper()
	var out *models.Document
	err := s.DB.WithSnapshot(context.Background(), func(doc *models.Document) error {
		out = doc.Clone()
		return nil
	})
	require.NoError(t, err)
	return out
}

// Reload reads the persisted file from disk, bypassing the in-memory document
func (s *TestStore) Reload(t *testing.T) *models.Document {
	t.Helper()
	doc, state := database.Load(s.Path)
	require.Equal(t, database.LoadStateOK, state)
	return doc
}

// FixedClock returns a clock frozen at the given instant
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time {
		return at
	}
}
