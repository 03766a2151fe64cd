package service_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"botshop/config"
	"botshop/events"
	"botshop/models"
	"botshop/repository/testutil"
	"botshop/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLedger(t *testing.T, wallet int64) (*testutil.TestStore, service.LedgerService) {
	t.Helper()
	store := testutil.SetupTestStore(t)
	store.Seed(t, func(doc *models.Document) {
		doc.Users = append(doc.Users, testutil.CreateTestUserWithBalance(testutil.SellerID, "seller", wallet))
	})
	return store, service.NewLedgerService(store.UowFactory, config.NewTestConfig())
}

func emailWithdrawal(amount int64) service.WithdrawalRequest {
	return service.WithdrawalRequest{
		DiscordUserID: testutil.SellerID,
		AmountCents:   amount,
		PixKey:        "pix@x",
		PixKeyType:    "email",
	}
}

func TestWithdrawalLifecycle_Integration(t *testing.T) {
	ctx := context.Background()
	store, ledger := setupLedger(t, 10000)

	t.Run("request debits wallet and opens withdrawal", func(t *testing.T) {
		withdrawal, err := ledger.RequestWithdrawal(ctx, emailWithdrawal(5000))
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalStatusRequested, withdrawal.Status)
		assert.Equal(t, int64(5000), withdrawal.AmountCents)
		assert.NotEmpty(t, withdrawal.ID)

		doc := store.Reload(t)
		assert.Equal(t, int64(5000), doc.Users[0].WalletCents)
		require.Len(t, doc.Withdrawals, 1)
		assert.Equal(t, withdrawal.ID, doc.Withdrawals[0].ID)
		require.Len(t, doc.Transactions, 1)
		assert.Equal(t, models.TransactionTypeWithdrawal, doc.Transactions[0].Type)
		assert.Equal(t, withdrawal.ID, doc.Transactions[0].RelatedID)

		balance, err := ledger.GetBalance(ctx, testutil.SellerID)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), balance.WalletCents)
		assert.Equal(t, int64(5000), balance.PendingWithdrawal)
		assert.Equal(t, 1, balance.PendingCount)
	})

	t.Run("cancel refunds exactly once", func(t *testing.T) {
		pending, err := ledger.PendingWithdrawals(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		cancelled, err := ledger.CancelWithdrawal(ctx, pending[0].ID)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalStatusCancelled, cancelled.Status)
		assert.NotNil(t, cancelled.ResolvedAt)

		_, err = ledger.CancelWithdrawal(ctx, pending[0].ID)
		assert.ErrorIs(t, err, service.ErrWithdrawalNotPending)
		assert.Equal(t, "withdrawal_not_pending", service.ErrorCode(err))

		doc := store.Reload(t)
		assert.Equal(t, int64(10000), doc.Users[0].WalletCents)
		require.Len(t, doc.Transactions, 2)

		txs, err := ledger.ListTransactions(ctx, testutil.SellerID, 1)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, models.TransactionTypeWithdrawalRefund, txs[0].Type)
		assert.Equal(t, int64(5000), txs[0].BalanceBefore)
		assert.Equal(t, int64(10000), txs[0].BalanceAfter)
	})

	t.Run("terminal withdrawals reject every transition", func(t *testing.T) {
		withdrawal, err := ledger.RequestWithdrawal(ctx, emailWithdrawal(2000))
		require.NoError(t, err)

		completed, err := ledger.CompleteWithdrawal(ctx, withdrawal.ID)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalStatusCompleted, completed.Status)

		_, err = ledger.CancelWithdrawal(ctx, withdrawal.ID)
		assert.ErrorIs(t, err, service.ErrWithdrawalNotPending)
		_, err = ledger.RejectWithdrawal(ctx, withdrawal.ID, "late")
		assert.ErrorIs(t, err, service.ErrWithdrawalNotPending)
		_, err = ledger.CompleteWithdrawal(ctx, withdrawal.ID)
		assert.ErrorIs(t, err, service.ErrWithdrawalNotPending)

		// Completion keeps the funds out of the wallet
		balance, err := ledger.GetBalance(ctx, testutil.SellerID)
		require.NoError(t, err)
		assert.Equal(t, int64(8000), balance.WalletCents)
		assert.Equal(t, 0, balance.PendingCount)
	})

	t.Run("reject refunds and keeps the reason", func(t *testing.T) {
		withdrawal, err := ledger.RequestWithdrawal(ctx, emailWithdrawal(3000))
		require.NoError(t, err)

		rejected, err := ledger.RejectWithdrawal(ctx, withdrawal.ID, "pix key does not match holder")
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalStatusRejected, rejected.Status)
		assert.Equal(t, "pix key does not match holder", rejected.Reason)

		balance, err := ledger.GetBalance(ctx, testutil.SellerID)
		require.NoError(t, err)
		assert.Equal(t, int64(8000), balance.WalletCents)
	})

	t.Run("unknown withdrawal", func(t *testing.T) {
		_, err := ledger.CancelWithdrawal(ctx, "does-not-exist")
		assert.ErrorIs(t, err, service.ErrWithdrawalNotFound)

		_, err = ledger.GetWithdrawal(ctx, "does-not-exist")
		assert.ErrorIs(t, err, service.ErrWithdrawalNotFound)
	})
}

func TestRequestWithdrawal_EmptyWallet_Integration(t *testing.T) {
	ctx := context.Background()
	store, ledger := setupLedger(t, 0)

	_, err := ledger.RequestWithdrawal(ctx, emailWithdrawal(50))

	assert.ErrorIs(t, err, service.ErrInsufficientBalance)
	doc := store.Reload(t)
	assert.Empty(t, doc.Withdrawals)
	assert.Empty(t, doc.Transactions)
	assert.Equal(t, int64(0), doc.Users[0].WalletCents)
}

func TestRequestWithdrawal_Validation_Integration(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		req  service.WithdrawalRequest
		code string
	}{
		{"below minimum", emailWithdrawal(999), "minimum_amount"},
		{"above wallet", emailWithdrawal(10001), "insufficient_balance"},
		{"zero", emailWithdrawal(0), "minimum_amount"},
		{"negative", emailWithdrawal(-5), "minimum_amount"},
		{"blank pix key", service.WithdrawalRequest{DiscordUserID: testutil.SellerID, AmountCents: 5000, PixKeyType: "email"}, "pix_key_required"},
		{"bad pix type", service.WithdrawalRequest{DiscordUserID: testutil.SellerID, AmountCents: 5000, PixKey: "k", PixKeyType: "iban"}, "invalid_pix_key_type"},
		{"unknown user", service.WithdrawalRequest{DiscordUserID: testutil.OtherSellerID, AmountCents: 5000, PixKey: "k", PixKeyType: "random"}, "user_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, ledger := setupLedger(t, 10000)

			_, err := ledger.RequestWithdrawal(ctx, tt.req)

			assert.Equal(t, tt.code, service.ErrorCode(err))
			doc := store.Reload(t)
			assert.Empty(t, doc.Withdrawals)
			assert.Equal(t, int64(10000), doc.Users[0].WalletCents)
		})
	}

	t.Run("exactly the minimum", func(t *testing.T) {
		_, ledger := setupLedger(t, 10000)
		_, err := ledger.RequestWithdrawal(ctx, emailWithdrawal(1000))
		assert.NoError(t, err)
	})

	t.Run("exactly the wallet", func(t *testing.T) {
		store, ledger := setupLedger(t, 10000)
		_, err := ledger.RequestWithdrawal(ctx, emailWithdrawal(10000))
		require.NoError(t, err)
		assert.Equal(t, int64(0), store.Reload(t).Users[0].WalletCents)
	})
}

func TestRequestWithdrawal_ConcurrentRequestsNeverOverdraw_Integration(t *testing.T) {
	ctx := context.Background()
	store, ledger := setupLedger(t, 10000)

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RequestWithdrawal(ctx, emailWithdrawal(6000))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, service.ErrInsufficientBalance)
	}
	assert.Equal(t, 1, succeeded)

	doc := store.Reload(t)
	assert.Equal(t, int64(4000), doc.Users[0].WalletCents)
	assert.Len(t, doc.Withdrawals, 1)
}

func TestWalletStaysConsistent_Integration(t *testing.T) {
	ctx := context.Background()
	store, ledger := setupLedger(t, 10000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = ledger.RequestWithdrawal(ctx, emailWithdrawal(1500))
		}()
		go func(i int) {
			defer wg.Done()
			_, err := ledger.CreditSale(ctx, service.SaleCredit{
				DiscordUserID: testutil.SellerID,
				AmountCents:   500,
				OrderRef:      "order-" + string(rune('a'+i)),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	pending, err := ledger.PendingWithdrawals(ctx)
	require.NoError(t, err)
	for _, w := range pending {
		_, err := ledger.CancelWithdrawal(ctx, w.ID)
		require.NoError(t, err)
	}

	doc := store.Reload(t)
	user := doc.Users[0]
	assert.Equal(t, int64(15000), user.WalletCents)
	assert.Equal(t, int64(5000), user.SalesCentsTotal)

	// Replaying the ledger reproduces the wallet
	wallet := int64(10000)
	for _, tx := range doc.Transactions {
		assert.Equal(t, wallet, tx.BalanceBefore, "transaction %s", tx.ID)
		wallet = tx.BalanceAfter
		assert.GreaterOrEqual(t, wallet, int64(0))
	}
	assert.Equal(t, user.WalletCents, wallet)
}

func TestCreditSale_Integration(t *testing.T) {
	ctx := context.Background()
	store, ledger := setupLedger(t, 0)

	received := make(chan events.BalanceChangeEvent, 8)
	store.EventBus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		received <- event.(events.BalanceChangeEvent)
	})

	sale := service.SaleCredit{
		DiscordUserID: testutil.SellerID,
		AmountCents:   1990,
		InstanceID:    "inst-1",
		ProductID:     "vip",
		VariantID:     "monthly",
		OrderRef:      "order-42",
	}
	first, err := ledger.CreditSale(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeSale, first.Type)
	assert.Equal(t, "vip", first.Metadata["productId"])

	event := <-received
	assert.Equal(t, int64(1990), event.ChangeAmount)
	assert.Equal(t, first.ID, event.TransactionID)

	retry, err := ledger.CreditSale(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, first.ID, retry.ID)

	doc := store.Reload(t)
	assert.Equal(t, int64(1990), doc.Users[0].WalletCents)
	assert.Equal(t, int64(1990), doc.Users[0].SalesCentsTotal)
	assert.Len(t, doc.Transactions, 1)

	// Without an order reference every call is a new sale
	sale.OrderRef = ""
	_, err = ledger.CreditSale(ctx, sale)
	require.NoError(t, err)
	_, err = ledger.CreditSale(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, int64(5970), store.Reload(t).Users[0].WalletCents)

	_, err = ledger.CreditSale(ctx, service.SaleCredit{DiscordUserID: testutil.OtherSellerID, AmountCents: 100})
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestCreditSale_RejectsWalletOverflow_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("wallet would overflow", func(t *testing.T) {
		store, ledger := setupLedger(t, 10)

		tx, err := ledger.CreditSale(ctx, service.SaleCredit{DiscordUserID: testutil.SellerID, AmountCents: math.MaxInt64, OrderRef: "order-big"})

		assert.Nil(t, tx)
		assert.ErrorIs(t, err, service.ErrInvalidAmount)
		assert.Equal(t, "invalid_amount", service.ErrorCode(err))
		doc := store.Reload(t)
		assert.Equal(t, int64(10), doc.Users[0].WalletCents)
		assert.Equal(t, int64(0), doc.Users[0].SalesCentsTotal)
		assert.Empty(t, doc.Transactions)
	})

	t.Run("sales total would overflow", func(t *testing.T) {
		store := testutil.SetupTestStore(t)
		store.Seed(t, func(doc *models.Document) {
			user := testutil.CreateTestUser(testutil.SellerID, "seller")
			user.WalletCents = 0
			user.SalesCentsTotal = math.MaxInt64 - 5
			doc.Users = append(doc.Users, user)
		})
		ledger := service.NewLedgerService(store.UowFactory, config.NewTestConfig())

		_, err := ledger.CreditSale(ctx, service.SaleCredit{DiscordUserID: testutil.SellerID, AmountCents: 10})

		assert.ErrorIs(t, err, service.ErrInvalidAmount)
		doc := store.Reload(t)
		assert.Equal(t, int64(0), doc.Users[0].WalletCents)
		assert.Equal(t, int64(math.MaxInt64-5), doc.Users[0].SalesCentsTotal)
	})

	t.Run("largest amount that fits is credited", func(t *testing.T) {
		store, ledger := setupLedger(t, 10)

		_, err := ledger.CreditSale(ctx, service.SaleCredit{DiscordUserID: testutil.SellerID, AmountCents: math.MaxInt64 - 10})

		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), store.Reload(t).Users[0].WalletCents)
	})
}

func TestListWithdrawals_Integration(t *testing.T) {
	ctx := context.Background()
	_, ledger := setupLedger(t, 10000)

	first, err := ledger.RequestWithdrawal(ctx, emailWithdrawal(1000))
	require.NoError(t, err)
	second, err := ledger.RequestWithdrawal(ctx, emailWithdrawal(2000))
	require.NoError(t, err)

	mine, err := ledger.ListWithdrawals(ctx, testutil.SellerID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	others, err := ledger.ListWithdrawals(ctx, testutil.OtherSellerID)
	require.NoError(t, err)
	assert.Empty(t, others)

	got, err := ledger.GetWithdrawal(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.AmountCents)
}
