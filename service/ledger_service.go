package service

import (
	"context"
	"fmt"

	"botshop/config"
	"botshop/events"
	"botshop/models"

	log "github.com/sirupsen/logrus"
)

// ledgerService implements the LedgerService interface
type ledgerService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, cfg *config.Config) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// CreditSale adds a sale's proceeds to the seller's wallet. A sale carrying an
// order reference is credited at most once; a retry returns the original entry.
func (s *ledgerService) CreditSale(ctx context.Context, sale SaleCredit) (*models.Transaction, error) {
	if sale.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if sale.DiscordUserID == "" {
		return nil, ErrInvalidDiscordID
	}

	var result *models.Transaction
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		if sale.OrderRef != "" {
			existing, err := findSale(ctx, uow, sale.DiscordUserID, sale.OrderRef)
			if err != nil {
				return err
			}
			if existing != nil {
				result = existing
				return nil
			}
		}

		before, err := getExistingUser(ctx, uow, sale.DiscordUserID)
		if err != nil {
			return err
		}
		after, err := uow.UserRepository().RecordSale(ctx, sale.DiscordUserID, sale.AmountCents)
		if err != nil {
			return fmt.Errorf("failed to credit sale: %w", err)
		}

		tx := &models.Transaction{
			Type:               models.TransactionTypeSale,
			OwnerDiscordUserID: sale.DiscordUserID,
			AmountCents:        sale.AmountCents,
			BalanceBefore:      before.WalletCents,
			BalanceAfter:       after.WalletCents,
			Status:             models.TransactionStatusCompleted,
			RelatedID:          sale.OrderRef,
			Metadata:           saleMetadata(sale),
		}
		if err := RecordBalanceChange(ctx, uow, tx); err != nil {
			return err
		}
		result = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func findSale(ctx context.Context, uow UnitOfWork, discordUserID, orderRef string) (*models.Transaction, error) {
	txs, err := uow.TransactionRepository().GetByUser(ctx, discordUserID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	for _, tx := range txs {
		if tx.Type == models.TransactionTypeSale && tx.RelatedID == orderRef {
			return tx, nil
		}
	}
	return nil, nil
}

func saleMetadata(sale SaleCredit) map[string]any {
	metadata := map[string]any{}
	if sale.InstanceID != "" {
		metadata["instanceId"] = sale.InstanceID
	}
	if sale.ProductID != "" {
		metadata["productId"] = sale.ProductID
	}
	if sale.VariantID != "" {
		metadata["variantId"] = sale.VariantID
	}
	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

// RequestWithdrawal debits the wallet and opens a withdrawal. Both effects
// commit together or not at all.
func (s *ledgerService) RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (*models.Withdrawal, error) {
	pixKey, pixKeyType, err := normalizePixKey(req.PixKey, req.PixKeyType)
	if err != nil {
		return nil, err
	}
	if req.AmountCents <= 0 {
		return nil, ErrMinimumAmount
	}

	var result *models.Withdrawal
	err = s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		user, err := getExistingUser(ctx, uow, req.DiscordUserID)
		if err != nil {
			return err
		}

		// Balance is checked before the floor so an empty wallet reports
		// insufficient_balance whatever the amount
		if !user.CanAfford(req.AmountCents) {
			return ErrInsufficientBalance
		}
		if req.AmountCents < s.config.MinWithdrawalCents {
			return ErrMinimumAmount
		}

		after, err := uow.UserRepository().DeductBalance(ctx, user.DiscordUserID, req.AmountCents)
		if err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}

		withdrawal := &models.Withdrawal{
			OwnerDiscordUserID: user.DiscordUserID,
			AmountCents:        req.AmountCents,
			PixKey:             pixKey,
			PixKeyType:         pixKeyType,
			Status:             models.WithdrawalStatusRequested,
			CreatedAt:          uow.Now(),
		}
		if err := uow.WithdrawalRepository().Create(ctx, withdrawal); err != nil {
			return fmt.Errorf("failed to create withdrawal: %w", err)
		}

		if err := RecordBalanceChange(ctx, uow, &models.Transaction{
			Type:               models.TransactionTypeWithdrawal,
			OwnerDiscordUserID: user.DiscordUserID,
			AmountCents:        req.AmountCents,
			BalanceBefore:      user.WalletCents,
			BalanceAfter:       after.WalletCents,
			Status:             models.TransactionStatusCompleted,
			RelatedID:          withdrawal.ID,
		}); err != nil {
			return err
		}

		uow.EventBus().Publish(events.WithdrawalStateChangeEvent{
			WithdrawalID: withdrawal.ID,
			UserID:       user.DiscordUserID,
			AmountCents:  withdrawal.AmountCents,
			NewStatus:    models.WithdrawalStatusRequested,
		})
		result = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelWithdrawal refunds a pending withdrawal at the seller's request
func (s *ledgerService) CancelWithdrawal(ctx context.Context, withdrawalID string) (*models.Withdrawal, error) {
	return s.resolveWithdrawal(ctx, withdrawalID, models.WithdrawalStatusCancelled, "")
}

// CompleteWithdrawal marks a pending withdrawal as paid out. The wallet was
// already debited when the withdrawal was requested.
func (s *ledgerService) CompleteWithdrawal(ctx context.Context, withdrawalID string) (*models.Withdrawal, error) {
	return s.resolveWithdrawal(ctx, withdrawalID, models.WithdrawalStatusCompleted, "")
}

// RejectWithdrawal refunds a pending withdrawal refused by an operator
func (s *ledgerService) RejectWithdrawal(ctx context.Context, withdrawalID, reason string) (*models.Withdrawal, error) {
	return s.resolveWithdrawal(ctx, withdrawalID, models.WithdrawalStatusRejected, reason)
}

func (s *ledgerService) resolveWithdrawal(ctx context.Context, withdrawalID string, status models.WithdrawalStatus, reason string) (*models.Withdrawal, error) {
	var result *models.Withdrawal
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		withdrawal, err := uow.WithdrawalRepository().GetByID(ctx, withdrawalID)
		if err != nil {
			return fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if withdrawal == nil {
			return ErrWithdrawalNotFound
		}
		if !withdrawal.CanTransitionTo(status) {
			return ErrWithdrawalNotPending
		}

		if status.RefundsWallet() {
			if err := s.refund(ctx, uow, withdrawal, status); err != nil {
				return err
			}
		}

		if err := uow.WithdrawalRepository().UpdateStatus(ctx, withdrawal.ID, status, reason); err != nil {
			return fmt.Errorf("failed to update withdrawal: %w", err)
		}

		uow.EventBus().Publish(events.WithdrawalStateChangeEvent{
			WithdrawalID: withdrawal.ID,
			UserID:       withdrawal.OwnerDiscordUserID,
			AmountCents:  withdrawal.AmountCents,
			OldStatus:    withdrawal.Status,
			NewStatus:    status,
		})

		updated, err := uow.WithdrawalRepository().GetByID(ctx, withdrawal.ID)
		if err != nil {
			return fmt.Errorf("failed to reload withdrawal: %w", err)
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"withdrawalId":  result.ID,
		"discordUserId": result.OwnerDiscordUserID,
		"amountCents":   result.AmountCents,
		"status":        result.Status,
	}).Info("Withdrawal resolved")
	return result, nil
}

// refund returns a withdrawal's funds to its owner's wallet
func (s *ledgerService) refund(ctx context.Context, uow UnitOfWork, withdrawal *models.Withdrawal, status models.WithdrawalStatus) error {
	before, err := getExistingUser(ctx, uow, withdrawal.OwnerDiscordUserID)
	if err != nil {
		return err
	}
	after, err := uow.UserRepository().AddBalance(ctx, withdrawal.OwnerDiscordUserID, withdrawal.AmountCents)
	if err != nil {
		return fmt.Errorf("failed to refund withdrawal: %w", err)
	}

	return RecordBalanceChange(ctx, uow, &models.Transaction{
		Type:               models.TransactionTypeWithdrawalRefund,
		OwnerDiscordUserID: withdrawal.OwnerDiscordUserID,
		AmountCents:        withdrawal.AmountCents,
		BalanceBefore:      before.WalletCents,
		BalanceAfter:       after.WalletCents,
		Status:             models.TransactionStatusCompleted,
		RelatedID:          withdrawal.ID,
		Metadata: map[string]any{
			"reason": string(status),
		},
	})
}

// GetWithdrawal returns a withdrawal or ErrWithdrawalNotFound
func (s *ledgerService) GetWithdrawal(ctx context.Context, withdrawalID string) (*models.Withdrawal, error) {
	var result *models.Withdrawal
	err := s.uowFactory.View(ctx, func(uow UnitOfWork) error {
		withdrawal, err := uow.WithdrawalRepository().GetByID(ctx, withdrawalID)
		if err != nil {
			return fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if withdrawal == nil {
			return ErrWithdrawalNotFound
		}
		result = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListWithdrawals returns a seller's withdrawals, newest first
func (s *ledgerService) ListWithdrawals(ctx context.Context, discordUserID string) ([]*models.Withdrawal, error) {
	var result []*models.Withdrawal
	err := s.uowFactory.View(ctx, func(uow UnitOfWork) error {
		withdrawals, err := uow.WithdrawalRepository().GetByUser(ctx, discordUserID)
		if err != nil {
			return fmt.Errorf("failed to get withdrawals: %w", err)
		}
		result = withdrawals
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PendingWithdrawals returns every withdrawal awaiting resolution, oldest first
func (s *ledgerService) PendingWithdrawals(ctx context.Context) ([]*models.Withdrawal, error) {
	status := models.WithdrawalStatusRequested
	var result []*models.Withdrawal
	err := s.uowFactory.View(ctx, func(uow UnitOfWork) error {
		withdrawals, err := uow.WithdrawalRepository().GetAll(ctx, &status)
		if err != nil {
			return fmt.Errorf("failed to get pending withdrawals: %w", err)
		}
		result = withdrawals
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListTransactions returns a seller's ledger entries, newest first
func (s *ledgerService) ListTransactions(ctx context.Context, discordUserID string, limit int) ([]*models.Transaction, error) {
	var result []*models.Transaction
	err := s.uowFactory.View(ctx, func(uow UnitOfWork) error {
		txs, err := uow.TransactionRepository().GetByUser(ctx, discordUserID, limit)
		if err != nil {
			return fmt.Errorf("failed to get transactions: %w", err)
		}
		result = txs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetBalance summarizes a seller's wallet and the funds held by pending withdrawals
func (s *ledgerService) GetBalance(ctx context.Context, discordUserID string) (*Balance, error) {
	var result *Balance
	err := s.uowFactory.View(ctx, func(uow UnitOfWork) error {
		user, err := getExistingUser(ctx, uow, discordUserID)
		if err != nil {
			return err
		}
		withdrawals, err := uow.WithdrawalRepository().GetByUser(ctx, discordUserID)
		if err != nil {
			return fmt.Errorf("failed to get withdrawals: %w", err)
		}

		balance := &Balance{
			WalletCents:     user.WalletCents,
			SalesCentsTotal: user.SalesCentsTotal,
		}
		for _, w := range withdrawals {
			if w.IsPending() {
				balance.PendingWithdrawal += w.AmountCents
				balance.PendingCount++
			}
		}
		result = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
