package service

import (
	"context"
	"fmt"

	"botshop/events"
	"botshop/models"
)

// RecordBalanceChange appends a ledger entry and emits the matching event.
// This is the single entry point for recording wallet changes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, tx *models.Transaction) error {
	if err := uow.TransactionRepository().Record(ctx, tx); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	// Emitted after the task's document has been saved
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          tx.OwnerDiscordUserID,
		TransactionID:   tx.ID,
		OldBalance:      tx.BalanceBefore,
		NewBalance:      tx.BalanceAfter,
		TransactionType: tx.Type,
		ChangeAmount:    tx.BalanceAfter - tx.BalanceBefore,
	})
	return nil
}
