package models

import (
	"time"
)

// WithdrawalStatus represents the state of a withdrawal
type WithdrawalStatus string

const (
	WithdrawalStatusRequested WithdrawalStatus = "requested"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusCancelled WithdrawalStatus = "cancelled"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// IsTerminal reports whether no further transition is possible
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusCompleted ||
		s == WithdrawalStatusCancelled ||
		s == WithdrawalStatusRejected
}

// Withdrawal is a seller's request to move wallet funds to their PIX key
type Withdrawal struct {
	ID                 string           `json:"id"`
	OwnerDiscordUserID string           `json:"ownerDiscordUserId"`
	AmountCents        int64            `json:"amountCents"`
	PixKey             string           `json:"pixKey"`
	PixKeyType         string           `json:"pixKeyType"`
	Status             WithdrawalStatus `json:"status"`
	Reason             string           `json:"reason,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	ResolvedAt         *time.Time       `json:"resolvedAt,omitempty"`
}

// IsPending reports whether the withdrawal still awaits resolution
func (w *Withdrawal) IsPending() bool {
	return w.Status == WithdrawalStatusRequested
}

// CanTransitionTo checks the withdrawal state machine: requested is the only
// state with outgoing edges, and only to a terminal state
func (w *Withdrawal) CanTransitionTo(next WithdrawalStatus) bool {
	return w.IsPending() && next.IsTerminal()
}

// RefundsWallet reports whether moving to the given status returns the funds
func (s WithdrawalStatus) RefundsWallet() bool {
	return s == WithdrawalStatusCancelled || s == WithdrawalStatusRejected
}

// Clone returns a deep copy of the withdrawal
func (w *Withdrawal) Clone() *Withdrawal {
	if w == nil {
		return nil
	}
	c := *w
	c.ResolvedAt = cloneTime(w.ResolvedAt)
	return &c
}
