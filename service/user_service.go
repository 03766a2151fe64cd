package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"botshop/config"
	"botshop/events"
	"botshop/models"

	log "github.com/sirupsen/logrus"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, cfg *config.Config) UserService {
	return &userService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// EnsureUser creates the user on first sign-in and refreshes identity fields afterwards
func (s *userService) EnsureUser(ctx context.Context, profile UserProfile) (*models.User, error) {
	if err := validateInput(profile); err != nil {
		return nil, err
	}

	var result *models.User
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		now := uow.Now()
		user, err := uow.UserRepository().GetByDiscordID(ctx, profile.DiscordUserID)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}

		if user == nil {
			user = &models.User{
				DiscordUserID: profile.DiscordUserID,
				Plan:          models.Plan{Status: models.PlanStatusNone},
				CreatedAt:     now,
			}
			applyProfile(user, profile, now)
			if err := uow.UserRepository().Create(ctx, user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			uow.EventBus().Publish(events.UserCreatedEvent{
				UserID:   user.DiscordUserID,
				Username: user.Username,
			})
			result = user
			return nil
		}

		applyProfile(user, profile, now)
		expirePlan(user, now)
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func applyProfile(user *models.User, profile UserProfile, now time.Time) {
	user.Username = profile.Username
	user.GlobalName = profile.GlobalName
	user.Avatar = profile.Avatar
	if profile.Email != "" {
		user.Email = profile.Email
	}
	if profile.Auth != nil {
		auth := *profile.Auth
		user.Auth = &auth
	}
	user.LastLoginAt = timePtr(now)
}

// expirePlan moves a lapsed active plan to expired
func expirePlan(user *models.User, now time.Time) bool {
	if user.Plan.Status == models.PlanStatusActive && !user.Plan.IsActive(now) {
		user.Plan.Status = models.PlanStatusExpired
		return true
	}
	return false
}

// GetUser returns a user or ErrUserNotFound
func (s *userService) GetUser(ctx context.Context, discordUserID string) (*models.User, error) {
	var result *models.User
	err := s.uowFactory.View(ctx, func(uow UnitOfWork) error {
		user, err := uow.UserRepository().GetByDiscordID(ctx, discordUserID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return ErrUserNotFound
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetAllUsers returns every user
func (s *userService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	var result []*models.User
	err := s.uowFactory.View(ctx, func(uow UnitOfWork) error {
		users, err := uow.UserRepository().GetAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to get users: %w", err)
		}
		result = users
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdatePayout stores the PIX destination used for withdrawals
func (s *userService) UpdatePayout(ctx context.Context, discordUserID, pixKey, pixKeyType string) (*models.User, error) {
	pixKey, pixKeyType, err := normalizePixKey(pixKey, pixKeyType)
	if err != nil {
		return nil, err
	}

	var result *models.User
	err = s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		user, err := getExistingUser(ctx, uow, discordUserID)
		if err != nil {
			return err
		}
		user.Payout = models.Payout{PixKey: pixKey, PixKeyType: pixKeyType}
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update payout: %w", err)
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClaimTrial activates the one-time free trial. Both eligibility checks run
// inside the same task as the activation.
func (s *userService) ClaimTrial(ctx context.Context, discordUserID string) (*models.User, error) {
	var result *models.User
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		now := uow.Now()
		user, err := getExistingUser(ctx, uow, discordUserID)
		if err != nil {
			return err
		}

		if user.HasClaimedTrial() {
			return ErrTrialAlreadyUsed
		}
		expirePlan(user, now)
		if user.Plan.IsActive(now) {
			return ErrPlanAlreadyActive
		}

		user.TrialClaimedAt = timePtr(now)
		user.Plan = models.Plan{
			Tier:      models.PlanTierTrial,
			Status:    models.PlanStatusActive,
			ExpiresAt: timePtr(now.Add(s.config.TrialDuration)),
		}
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return fmt.Errorf("failed to activate trial: %w", err)
		}

		if err := uow.TransactionRepository().Record(ctx, &models.Transaction{
			Type:               models.TransactionTypeTrial,
			OwnerDiscordUserID: user.DiscordUserID,
			BalanceBefore:      user.WalletCents,
			BalanceAfter:       user.WalletCents,
			Status:             models.TransactionStatusCompleted,
			Metadata: map[string]any{
				"tier": models.PlanTierTrial,
			},
		}); err != nil {
			return fmt.Errorf("failed to record trial: %w", err)
		}

		uow.EventBus().Publish(events.PlanActivatedEvent{
			UserID: user.DiscordUserID,
			Plan:   user.Plan,
		})
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"discordUserId": discordUserID,
		"expiresAt":     result.Plan.ExpiresAt,
	}).Info("Trial claimed")
	return result, nil
}

// StartPlanPurchase records a pending plan payment awaiting provider confirmation
func (s *userService) StartPlanPurchase(ctx context.Context, discordUserID, tier string, amountCents int64, providerRef string) (*models.Transaction, error) {
	tier = strings.TrimSpace(tier)
	if tier == "" || tier == models.PlanTierTrial {
		return nil, fmt.Errorf("%w: plan tier %q can not be purchased", ErrInvalidInput, tier)
	}
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	var result *models.Transaction
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		now := uow.Now()
		user, err := getExistingUser(ctx, uow, discordUserID)
		if err != nil {
			return err
		}
		if user.Plan.IsActive(now) {
			return ErrPlanAlreadyActive
		}

		tx := &models.Transaction{
			Type:               models.TransactionTypePlanPurchase,
			OwnerDiscordUserID: user.DiscordUserID,
			AmountCents:        amountCents,
			BalanceBefore:      user.WalletCents,
			BalanceAfter:       user.WalletCents,
			Status:             models.TransactionStatusPending,
			RelatedID:          providerRef,
			Metadata: map[string]any{
				"tier": tier,
			},
		}
		if err := uow.TransactionRepository().Record(ctx, tx); err != nil {
			return fmt.Errorf("failed to record plan purchase: %w", err)
		}
		result = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ConfirmPayment marks a pending plan payment paid and activates the plan.
// The active-plan check is repeated here because another purchase or a
// trial may have been activated since the payment started.
func (s *userService) ConfirmPayment(ctx context.Context, transactionID string) (*models.User, error) {
	var result *models.User
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		now := uow.Now()
		tx, err := getPendingPlanPayment(ctx, uow, transactionID)
		if err != nil {
			return err
		}
		user, err := getExistingUser(ctx, uow, tx.OwnerDiscordUserID)
		if err != nil {
			return err
		}
		expirePlan(user, now)
		if user.Plan.IsActive(now) {
			return ErrPlanAlreadyActive
		}

		if err := uow.TransactionRepository().UpdateStatus(ctx, tx.ID, models.TransactionStatusPaid); err != nil {
			return fmt.Errorf("failed to confirm payment: %w", err)
		}

		tier, _ := tx.Metadata["tier"].(string)
		user.Plan = models.Plan{
			Tier:      tier,
			Status:    models.PlanStatusActive,
			ExpiresAt: timePtr(now.Add(s.config.PlanDuration)),
		}
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return fmt.Errorf("failed to activate plan: %w", err)
		}

		uow.EventBus().Publish(events.PaymentStatusChangeEvent{
			TransactionID: tx.ID,
			UserID:        user.DiscordUserID,
			OldStatus:     models.TransactionStatusPending,
			NewStatus:     models.TransactionStatusPaid,
		})
		uow.EventBus().Publish(events.PlanActivatedEvent{
			UserID: user.DiscordUserID,
			Plan:   user.Plan,
		})
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FailPayment marks a pending plan payment failed
func (s *userService) FailPayment(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		tx, err := getPendingPlanPayment(ctx, uow, transactionID)
		if err != nil {
			return err
		}
		if err := uow.TransactionRepository().UpdateStatus(ctx, tx.ID, models.TransactionStatusFailed); err != nil {
			return fmt.Errorf("failed to fail payment: %w", err)
		}

		uow.EventBus().Publish(events.PaymentStatusChangeEvent{
			TransactionID: tx.ID,
			UserID:        tx.OwnerDiscordUserID,
			OldStatus:     models.TransactionStatusPending,
			NewStatus:     models.TransactionStatusFailed,
		})

		updated, err := uow.TransactionRepository().GetByID(ctx, tx.ID)
		if err != nil {
			return fmt.Errorf("failed to reload transaction: %w", err)
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func getExistingUser(ctx context.Context, uow UnitOfWork, discordUserID string) (*models.User, error) {
	user, err := uow.UserRepository().GetByDiscordID(ctx, discordUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func getPendingPlanPayment(ctx context.Context, uow UnitOfWork, transactionID string) (*models.Transaction, error) {
	tx, err := uow.TransactionRepository().GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil || tx.Type != models.TransactionTypePlanPurchase {
		return nil, ErrTransactionNotFound
	}
	if !tx.IsPending() {
		return nil, ErrTransactionNotPending
	}
	return tx, nil
}

// ExpirePlans marks every lapsed active plan expired
func (s *userService) ExpirePlans(ctx context.Context) (int, error) {
	expired := 0
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		expired = 0
		users, err := uow.UserRepository().GetAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to get users: %w", err)
		}
		for _, user := range users {
			if !expirePlan(user, uow.Now()) {
				continue
			}
			if err := uow.UserRepository().Update(ctx, user); err != nil {
				return fmt.Errorf("failed to expire plan: %w", err)
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}
