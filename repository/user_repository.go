package repository

import (
	"context"
	"fmt"
	"math"

	"botshop/models"
	"botshop/service"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	s *scope
}

func newUserRepository(s *scope) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) find(discordUserID string) *models.User {
	for _, u := range r.s.doc.Users {
		if u.DiscordUserID == discordUserID {
			return u
		}
	}
	return nil
}

// GetByDiscordID retrieves a user by their Discord ID
func (r *UserRepository) GetByDiscordID(ctx context.Context, discordUserID string) (*models.User, error) {
	return r.find(discordUserID).Clone(), nil
}

// Create stores a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.s.checkWritable("create user"); err != nil {
		return err
	}
	if user.DiscordUserID == "" {
		return fmt.Errorf("failed to create user: discord id is required")
	}
	if r.find(user.DiscordUserID) != nil {
		return fmt.Errorf("failed to create user: %s already exists", user.DiscordUserID)
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.s.now
	}
	user.UpdatedAt = r.s.now
	if user.Plan.Status == "" {
		user.Plan.Status = models.PlanStatusNone
	}

	r.s.doc.Users = append(r.s.doc.Users, user.Clone())
	return nil
}

// Update replaces the stored user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.s.checkWritable("update user"); err != nil {
		return err
	}
	for i, u := range r.s.doc.Users {
		if u.DiscordUserID == user.DiscordUserID {
			user.UpdatedAt = r.s.now
			r.s.doc.Users[i] = user.Clone()
			return nil
		}
	}
	return fmt.Errorf("failed to update user %s: %w", user.DiscordUserID, service.ErrUserNotFound)
}

// AddBalance credits a user's wallet
func (r *UserRepository) AddBalance(ctx context.Context, discordUserID string, amount int64) (*models.User, error) {
	if err := r.s.checkWritable("add balance"); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, service.ErrInvalidAmount
	}
	user := r.find(discordUserID)
	if user == nil {
		return nil, fmt.Errorf("failed to add balance for %s: %w", discordUserID, service.ErrUserNotFound)
	}
	if !fitsInt64(user.WalletCents, amount) {
		return nil, fmt.Errorf("wallet of %s can not hold %d more cents: %w", discordUserID, amount, service.ErrInvalidAmount)
	}

	user.WalletCents += amount
	user.UpdatedAt = r.s.now
	return user.Clone(), nil
}

// DeductBalance debits a user's wallet. The wallet never goes negative.
func (r *UserRepository) DeductBalance(ctx context.Context, discordUserID string, amount int64) (*models.User, error) {
	if err := r.s.checkWritable("deduct balance"); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, service.ErrInvalidAmount
	}
	user := r.find(discordUserID)
	if user == nil {
		return nil, fmt.Errorf("failed to deduct balance for %s: %w", discordUserID, service.ErrUserNotFound)
	}
	if !user.CanAfford(amount) {
		return nil, service.ErrInsufficientBalance
	}

	user.WalletCents -= amount
	user.UpdatedAt = r.s.now
	return user.Clone(), nil
}

// RecordSale credits the wallet and the lifetime sales total together
func (r *UserRepository) RecordSale(ctx context.Context, discordUserID string, amount int64) (*models.User, error) {
	if err := r.s.checkWritable("record sale"); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, service.ErrInvalidAmount
	}
	user := r.find(discordUserID)
	if user == nil {
		return nil, fmt.Errorf("failed to record sale for %s: %w", discordUserID, service.ErrUserNotFound)
	}
	if !fitsInt64(user.WalletCents, amount) || !fitsInt64(user.SalesCentsTotal, amount) {
		return nil, fmt.Errorf("wallet of %s can not hold %d more cents: %w", discordUserID, amount, service.ErrInvalidAmount)
	}

	user.WalletCents += amount
	user.SalesCentsTotal += amount
	user.UpdatedAt = r.s.now
	return user.Clone(), nil
}

// GetAll returns all users in creation order
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, len(r.s.doc.Users))
	for i, u := range r.s.doc.Users {
		users[i] = u.Clone()
	}
	return users, nil
}

// fitsInt64 reports whether total+amount stays within int64 for a positive amount
func fitsInt64(total, amount int64) bool {
	return amount <= math.MaxInt64-total
}
