package models

import (
	"time"
)

// TransactionType represents the type of ledger entry
type TransactionType string

const (
	TransactionTypeSale             TransactionType = "sale"
	TransactionTypeWithdrawal       TransactionType = "withdrawal"
	TransactionTypeWithdrawalRefund TransactionType = "withdrawal_refund"
	TransactionTypeTrial            TransactionType = "trial"
	TransactionTypePlanPurchase     TransactionType = "plan_purchase"
)

// IsWalletCredit returns true if the entry increases the wallet
func (tt TransactionType) IsWalletCredit() bool {
	return tt == TransactionTypeSale || tt == TransactionTypeWithdrawalRefund
}

// IsWalletDebit returns true if the entry decreases the wallet
func (tt TransactionType) IsWalletDebit() bool {
	return tt == TransactionTypeWithdrawal
}

// TransactionStatus represents payment confirmation state
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusPaid      TransactionStatus = "paid"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// Transaction is an append-only ledger entry. Only Status may change after
// creation, and only from pending.
type Transaction struct {
	ID                 string            `json:"id"`
	Type               TransactionType   `json:"type"`
	OwnerDiscordUserID string            `json:"ownerDiscordUserId"`
	AmountCents        int64             `json:"amountCents"`
	BalanceBefore      int64             `json:"balanceBefore"`
	BalanceAfter       int64             `json:"balanceAfter"`
	Status             TransactionStatus `json:"status"`
	RelatedID          string            `json:"relatedId,omitempty"`
	Metadata           map[string]any    `json:"metadata,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          *time.Time        `json:"updatedAt,omitempty"`
}

// IsPending reports whether the entry awaits payment confirmation
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionStatusPending
}

// Clone returns a deep copy of the transaction
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	c.UpdatedAt = cloneTime(t.UpdatedAt)
	if t.Metadata != nil {
		c.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
