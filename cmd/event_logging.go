package cmd

import (
	"context"

	"botshop/events"

	log "github.com/sirupsen/logrus"
)

// registerEventLogging writes every committed domain event to the log
func registerEventLogging(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.BalanceChangeEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"discordUserId": e.UserID,
			"transactionId": e.TransactionID,
			"type":          e.TransactionType,
			"oldBalance":    e.OldBalance,
			"newBalance":    e.NewBalance,
		}).Info("Wallet changed")
	})

	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.UserCreatedEvent); ok {
			log.WithFields(log.Fields{
				"discordUserId": e.UserID,
				"username":      e.Username,
			}).Info("User created")
		}
	})

	bus.Subscribe(events.EventTypeWithdrawalStateChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.WithdrawalStateChangeEvent); ok {
			log.WithFields(log.Fields{
				"withdrawalId":  e.WithdrawalID,
				"discordUserId": e.UserID,
				"amountCents":   e.AmountCents,
				"from":          e.OldStatus,
				"to":            e.NewStatus,
			}).Info("Withdrawal state changed")
		}
	})

	bus.Subscribe(events.EventTypePlanActivated, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.PlanActivatedEvent); ok {
			log.WithFields(log.Fields{
				"discordUserId": e.UserID,
				"tier":          e.Plan.Tier,
				"expiresAt":     e.Plan.ExpiresAt,
			}).Info("Plan activated")
		}
	})

	bus.Subscribe(events.EventTypePaymentStatusChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.PaymentStatusChangeEvent); ok {
			log.WithFields(log.Fields{
				"transactionId": e.TransactionID,
				"discordUserId": e.UserID,
				"status":        e.NewStatus,
			}).Info("Payment status changed")
		}
	})

	bus.Subscribe(events.EventTypeStockChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.StockChangeEvent); ok {
			log.WithFields(log.Fields{
				"instanceId": e.InstanceID,
				"productId":  e.ProductID,
				"bucket":     e.Bucket,
				"added":      e.Added,
				"removed":    e.Removed,
			}).Debug("Stock changed")
		}
	})

	bus.Subscribe(events.EventTypeInstanceDeleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.InstanceDeletedEvent); ok {
			log.WithFields(log.Fields{
				"instanceId":    e.InstanceID,
				"discordUserId": e.OwnerID,
			}).Info("Instance deleted")
		}
	})

	bus.Subscribe(events.EventTypeRuntimeStatusChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.RuntimeStatusChangeEvent); ok {
			entry := log.WithFields(log.Fields{
				"instanceId": e.InstanceID,
				"from":       e.OldStatus,
				"to":         e.NewStatus,
				"code":       e.Code,
			})
			if e.Code != "" {
				entry.Warn("Bot runtime status changed")
				return
			}
			entry.Info("Bot runtime status changed")
		}
	})
}
