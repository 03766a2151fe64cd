package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithdrawal_CanTransitionTo(t *testing.T) {
	statuses := []WithdrawalStatus{
		WithdrawalStatusRequested,
		WithdrawalStatusCompleted,
		WithdrawalStatusCancelled,
		WithdrawalStatusRejected,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			w := &Withdrawal{Status: from}
			want := from == WithdrawalStatusRequested && to != WithdrawalStatusRequested
			assert.Equal(t, want, w.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestWithdrawalStatus_RefundsWallet(t *testing.T) {
	assert.True(t, WithdrawalStatusCancelled.RefundsWallet())
	assert.True(t, WithdrawalStatusRejected.RefundsWallet())
	assert.False(t, WithdrawalStatusCompleted.RefundsWallet())
	assert.False(t, WithdrawalStatusRequested.RefundsWallet())
}

func TestTransactionType_WalletDirection(t *testing.T) {
	tests := []struct {
		txType TransactionType
		credit bool
		debit  bool
	}{
		{TransactionTypeSale, true, false},
		{TransactionTypeWithdrawalRefund, true, false},
		{TransactionTypeWithdrawal, false, true},
		{TransactionTypeTrial, false, false},
		{TransactionTypePlanPurchase, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			assert.Equal(t, tt.credit, tt.txType.IsWalletCredit())
			assert.Equal(t, tt.debit, tt.txType.IsWalletDebit())
		})
	}
}
