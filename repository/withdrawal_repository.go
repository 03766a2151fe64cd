package repository

import (
	"context"
	"fmt"

	"botshop/models"
	"botshop/service"

	"github.com/google/uuid"
)

// WithdrawalRepository implements the WithdrawalRepository interface
type WithdrawalRepository struct {
	s *scope
}

func newWithdrawalRepository(s *scope) *WithdrawalRepository {
	return &WithdrawalRepository{s: s}
}

// Create appends a new withdrawal in the requested state
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	if err := r.s.checkWritable("create withdrawal"); err != nil {
		return err
	}
	if withdrawal.ID == "" {
		withdrawal.ID = uuid.NewString()
	}
	if withdrawal.Status == "" {
		withdrawal.Status = models.WithdrawalStatusRequested
	}
	if withdrawal.CreatedAt.IsZero() {
		withdrawal.CreatedAt = r.s.now
	}

	r.s.doc.Withdrawals = append(r.s.doc.Withdrawals, withdrawal.Clone())
	return nil
}

func (r *WithdrawalRepository) find(id string) *models.Withdrawal {
	for _, w := range r.s.doc.Withdrawals {
		if w.ID == id {
			return w
		}
	}
	return nil
}

// GetByID retrieves a withdrawal
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	return r.find(id).Clone(), nil
}

// GetByUser returns a user's withdrawals, newest first
func (r *WithdrawalRepository) GetByUser(ctx context.Context, discordUserID string) ([]*models.Withdrawal, error) {
	var result []*models.Withdrawal
	for i := len(r.s.doc.Withdrawals) - 1; i >= 0; i-- {
		w := r.s.doc.Withdrawals[i]
		if w.OwnerDiscordUserID == discordUserID {
			result = append(result, w.Clone())
		}
	}
	return result, nil
}

// GetAll returns withdrawals in request order, optionally filtered by status
func (r *WithdrawalRepository) GetAll(ctx context.Context, status *models.WithdrawalStatus) ([]*models.Withdrawal, error) {
	var result []*models.Withdrawal
	for _, w := range r.s.doc.Withdrawals {
		if status != nil && w.Status != *status {
			continue
		}
		result = append(result, w.Clone())
	}
	return result, nil
}

// UpdateStatus resolves a pending withdrawal
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id string, status models.WithdrawalStatus, reason string) error {
	if err := r.s.checkWritable("update withdrawal status"); err != nil {
		return err
	}
	w := r.find(id)
	if w == nil {
		return service.ErrWithdrawalNotFound
	}
	if !w.CanTransitionTo(status) {
		return fmt.Errorf("withdrawal %s is %s: %w", id, w.Status, service.ErrWithdrawalNotPending)
	}

	w.Status = status
	w.Reason = reason
	now := r.s.now
	w.ResolvedAt = &now
	return nil
}
