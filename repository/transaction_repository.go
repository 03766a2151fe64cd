package repository

import (
	"context"
	"fmt"

	"botshop/models"
	"botshop/service"

	"github.com/google/uuid"
)

// TransactionRepository implements the TransactionRepository interface over
// the append-only ledger log
type TransactionRepository struct {
	s *scope
}

func newTransactionRepository(s *scope) *TransactionRepository {
	return &TransactionRepository{s: s}
}

// Record appends a ledger entry
func (r *TransactionRepository) Record(ctx context.Context, tx *models.Transaction) error {
	if err := r.s.checkWritable("record transaction"); err != nil {
		return err
	}
	if tx.OwnerDiscordUserID == "" {
		return fmt.Errorf("failed to record transaction: owner is required")
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = r.s.now
	}
	if tx.Status == "" {
		tx.Status = models.TransactionStatusCompleted
	}

	r.s.doc.Transactions = append(r.s.doc.Transactions, tx.Clone())
	return nil
}

func (r *TransactionRepository) find(id string) *models.Transaction {
	for _, t := range r.s.doc.Transactions {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// GetByID retrieves a ledger entry
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	return r.find(id).Clone(), nil
}

// GetByUser returns a user's entries, newest first
func (r *TransactionRepository) GetByUser(ctx context.Context, discordUserID string, limit int) ([]*models.Transaction, error) {
	var result []*models.Transaction
	for i := len(r.s.doc.Transactions) - 1; i >= 0; i-- {
		t := r.s.doc.Transactions[i]
		if t.OwnerDiscordUserID != discordUserID {
			continue
		}
		result = append(result, t.Clone())
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// UpdateStatus moves a pending entry to a new status. Settled entries are immutable.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	if err := r.s.checkWritable("update transaction status"); err != nil {
		return err
	}
	t := r.find(id)
	if t == nil {
		return service.ErrTransactionNotFound
	}
	if !t.IsPending() {
		return fmt.Errorf("transaction %s is %s: %w", id, t.Status, service.ErrTransactionNotPending)
	}

	t.Status = status
	now := r.s.now
	t.UpdatedAt = &now
	return nil
}

// GetAll returns every ledger entry, oldest first
func (r *TransactionRepository) GetAll(ctx context.Context) ([]*models.Transaction, error) {
	result := make([]*models.Transaction, len(r.s.doc.Transactions))
	for i, t := range r.s.doc.Transactions {
		result[i] = t.Clone()
	}
	return result, nil
}
