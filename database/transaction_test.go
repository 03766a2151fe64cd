package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"botshop/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeller = "290926444748734465"

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "store.json")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db, path
}

func seedUser(t *testing.T, db *DB, wallet int64) {
	t.Helper()
	err := db.WithTransaction(context.Background(), func(doc *models.Document) error {
		doc.Users = append(doc.Users, &models.User{DiscordUserID: testSeller, WalletCents: wallet})
		return nil
	})
	require.NoError(t, err)
}

func walletOf(t *testing.T, db *DB) int64 {
	t.Helper()
	var wallet int64
	err := db.WithSnapshot(context.Background(), func(doc *models.Document) error {
		wallet = doc.Users[0].WalletCents
		return nil
	})
	require.NoError(t, err)
	return wallet
}

func TestOpen_MissingFileWritesEmptyDocument(t *testing.T) {
	db, path := openTestDB(t)

	assert.Equal(t, LoadStateMissing, db.LoadState())
	assert.Equal(t, path, db.Path())

	doc, state := Load(path)
	assert.Equal(t, LoadStateOK, state)
	assert.Equal(t, models.NewDocument(), doc)
}

func TestOpen_QuarantinesCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"users":[{"discordUserId":`), 0o600))

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, LoadStateCorrupt, db.LoadState())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var quarantined []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "store.json.corrupt-") {
			quarantined = append(quarantined, e.Name())
		}
	}
	require.Len(t, quarantined, 1)

	original, err := os.ReadFile(filepath.Join(dir, quarantined[0]))
	require.NoError(t, err)
	assert.Equal(t, `{"users":[{"discordUserId":`, string(original))

	doc, state := Load(path)
	assert.Equal(t, LoadStateOK, state)
	assert.Empty(t, doc.Users)
}

func TestOpen_RejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestWithTransaction_CommitPersists(t *testing.T) {
	db, path := openTestDB(t)
	seedUser(t, db, 10000)

	err := db.WithTransaction(context.Background(), func(doc *models.Document) error {
		doc.Users[0].WalletCents -= 2500
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7500), walletOf(t, db))

	onDisk, state := Load(path)
	assert.Equal(t, LoadStateOK, state)
	assert.Equal(t, int64(7500), onDisk.Users[0].WalletCents)
}

func TestWithTransaction_ErrorRollsBack(t *testing.T) {
	db, path := openTestDB(t)
	seedUser(t, db, 10000)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	rejected := errors.New("rejected")
	err = db.WithTransaction(context.Background(), func(doc *models.Document) error {
		doc.Users[0].WalletCents = 0
		doc.Withdrawals = append(doc.Withdrawals, &models.Withdrawal{ID: "w-1", AmountCents: 10000})
		return rejected
	})
	assert.ErrorIs(t, err, rejected)

	assert.Equal(t, int64(10000), walletOf(t, db))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestWithTransaction_PanicRollsBack(t *testing.T) {
	db, _ := openTestDB(t)
	seedUser(t, db, 10000)

	err := db.WithTransaction(context.Background(), func(doc *models.Document) error {
		doc.Users[0].WalletCents = 0
		panic("halfway")
	})
	assert.ErrorIs(t, err, ErrTaskPanicked)

	assert.Equal(t, int64(10000), walletOf(t, db))
}

func TestWithTransaction_SaveFailureKeepsCommittedDocument(t *testing.T) {
	db, path := openTestDB(t)
	seedUser(t, db, 10000)

	// Replace the data directory by a regular file so the next save cannot
	// create its temp file
	dir := filepath.Dir(path)
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a directory"), 0o600))

	err := db.WithTransaction(context.Background(), func(doc *models.Document) error {
		doc.Users[0].WalletCents = 1
		return nil
	})
	assert.ErrorIs(t, err, ErrPersist)

	assert.Equal(t, int64(10000), walletOf(t, db))
}

func TestWithTransaction_ConcurrentWritesAreSerialized(t *testing.T) {
	db, path := openTestDB(t)
	seedUser(t, db, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.WithTransaction(context.Background(), func(doc *models.Document) error {
				doc.Users[0].WalletCents += 100
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5000), walletOf(t, db))

	onDisk, _ := Load(path)
	assert.Equal(t, int64(5000), onDisk.Users[0].WalletCents)
}

func TestWithSnapshot_SeesPrecedingWrites(t *testing.T) {
	db, _ := openTestDB(t)
	seedUser(t, db, 0)

	done := make(chan error, 1)
	go func() {
		done <- db.WithTransaction(context.Background(), func(doc *models.Document) error {
			doc.Users[0].WalletCents = 4200
			return nil
		})
	}()
	require.NoError(t, <-done)

	assert.Equal(t, int64(4200), walletOf(t, db))
}

func TestWithTransaction_AfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	db.Close()

	err = db.WithTransaction(context.Background(), func(doc *models.Document) error { return nil })
	assert.ErrorIs(t, err, ErrStoreClosed)

	err = db.WithSnapshot(context.Background(), func(doc *models.Document) error { return nil })
	assert.ErrorIs(t, err, ErrStoreClosed)
}
