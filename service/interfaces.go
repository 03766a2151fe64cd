package service

import (
	"context"
	"time"

	"botshop/events"
	"botshop/models"
)

// UserRepository defines the interface for user data access. Returned users
// are copies: changes are only stored through the repository methods.
type UserRepository interface {
	// GetByDiscordID retrieves a user, or nil if none exists
	GetByDiscordID(ctx context.Context, discordUserID string) (*models.User, error)

	// Create adds a new user; the discord id must be unused
	Create(ctx context.Context, user *models.User) error

	// Update replaces the stored user with the same discord id
	Update(ctx context.Context, user *models.User) error

	// AddBalance credits a user's wallet and returns the updated user
	AddBalance(ctx context.Context, discordUserID string, amount int64) (*models.User, error)

	// DeductBalance debits a user's wallet, failing if it would go negative
	DeductBalance(ctx context.Context, discordUserID string, amount int64) (*models.User, error)

	// RecordSale credits both the wallet and the lifetime sales total
	RecordSale(ctx context.Context, discordUserID string, amount int64) (*models.User, error)

	// GetAll returns all users
	GetAll(ctx context.Context) ([]*models.User, error)
}

// TransactionRepository defines the interface for the append-only ledger log
type TransactionRepository interface {
	// Record appends a new entry, assigning an id and timestamp when missing
	Record(ctx context.Context, tx *models.Transaction) error

	// GetByID retrieves an entry, or nil if none exists
	GetByID(ctx context.Context, id string) (*models.Transaction, error)

	// GetByUser returns a user's entries, newest first; limit <= 0 means all
	GetByUser(ctx context.Context, discordUserID string, limit int) ([]*models.Transaction, error)

	// UpdateStatus moves a pending entry to a new status
	UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error

	// GetAll returns every entry, oldest first
	GetAll(ctx context.Context) ([]*models.Transaction, error)
}

// WithdrawalRepository defines the interface for withdrawal data access
type WithdrawalRepository interface {
	// Create appends a new withdrawal, assigning an id when missing
	Create(ctx context.Context, withdrawal *models.Withdrawal) error

	// GetByID retrieves a withdrawal, or nil if none exists
	GetByID(ctx context.Context, id string) (*models.Withdrawal, error)

	// GetByUser returns a user's withdrawals, newest first
	GetByUser(ctx context.Context, discordUserID string) ([]*models.Withdrawal, error)

	// GetAll returns withdrawals, optionally filtered by status, oldest first
	GetAll(ctx context.Context, status *models.WithdrawalStatus) ([]*models.Withdrawal, error)

	// UpdateStatus resolves a withdrawal
	UpdateStatus(ctx context.Context, id string, status models.WithdrawalStatus, reason string) error
}

// InstanceRepository defines the interface for instance and catalog data access
type InstanceRepository interface {
	// Create adds a new instance, assigning an id when missing
	Create(ctx context.Context, instance *models.Instance) error

	// GetByID retrieves an instance, or nil if none exists
	GetByID(ctx context.Context, id string) (*models.Instance, error)

	// GetByOwner returns the instances owned by a user
	GetByOwner(ctx context.Context, ownerDiscordUserID string) ([]*models.Instance, error)

	// GetAll returns all instances
	GetAll(ctx context.Context) ([]*models.Instance, error)

	// Update replaces the stored instance, catalog included
	Update(ctx context.Context, instance *models.Instance) error

	// Delete removes an instance together with its products and stock
	Delete(ctx context.Context, id string) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork gives a single store task access to the repositories. It only
// exists inside a task, so the document can not be mutated outside the queue.
type UnitOfWork interface {
	UserRepository() UserRepository
	TransactionRepository() TransactionRepository
	WithdrawalRepository() WithdrawalRepository
	InstanceRepository() InstanceRepository
	EventBus() EventPublisher

	// Now is the task's timestamp; every write of one task shares it
	Now() time.Time
}

// UnitOfWorkFactory runs work against the store
type UnitOfWorkFactory interface {
	// Run executes fn as one serialized write task. Changes are persisted and
	// events flushed only if fn returns nil.
	Run(ctx context.Context, fn func(uow UnitOfWork) error) error

	// View executes fn as one serialized read task. fn must not mutate
	// anything reachable from the repositories.
	View(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// UserService defines the interface for account and plan operations
type UserService interface {
	// EnsureUser creates the user on first sign-in and refreshes identity fields afterwards
	EnsureUser(ctx context.Context, profile UserProfile) (*models.User, error)

	// GetUser returns a user or ErrUserNotFound
	GetUser(ctx context.Context, discordUserID string) (*models.User, error)

	// GetAllUsers returns every user
	GetAllUsers(ctx context.Context) ([]*models.User, error)

	// UpdatePayout stores the PIX destination used for withdrawals
	UpdatePayout(ctx context.Context, discordUserID, pixKey, pixKeyType string) (*models.User, error)

	// ClaimTrial activates the one-time free trial
	ClaimTrial(ctx context.Context, discordUserID string) (*models.User, error)

	// StartPlanPurchase records a pending plan payment
	StartPlanPurchase(ctx context.Context, discordUserID, tier string, amountCents int64, providerRef string) (*models.Transaction, error)

	// ConfirmPayment marks a pending payment paid and activates the plan it bought
	ConfirmPayment(ctx context.Context, transactionID string) (*models.User, error)

	// FailPayment marks a pending payment failed
	FailPayment(ctx context.Context, transactionID string) (*models.Transaction, error)

	// ExpirePlans marks every lapsed active plan expired and returns how many changed
	ExpirePlans(ctx context.Context) (int, error)
}

// LedgerService defines the interface for wallet and withdrawal operations
type LedgerService interface {
	// CreditSale adds a sale's proceeds to the seller's wallet
	CreditSale(ctx context.Context, sale SaleCredit) (*models.Transaction, error)

	// RequestWithdrawal debits the wallet and opens a withdrawal in one step
	RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (*models.Withdrawal, error)

	// CancelWithdrawal refunds a pending withdrawal at the seller's request
	CancelWithdrawal(ctx context.Context, withdrawalID string) (*models.Withdrawal, error)

	// CompleteWithdrawal marks a pending withdrawal as paid out
	CompleteWithdrawal(ctx context.Context, withdrawalID string) (*models.Withdrawal, error)

	// RejectWithdrawal refunds a pending withdrawal refused by an operator
	RejectWithdrawal(ctx context.Context, withdrawalID, reason string) (*models.Withdrawal, error)

	// GetWithdrawal returns a withdrawal or ErrWithdrawalNotFound
	GetWithdrawal(ctx context.Context, withdrawalID string) (*models.Withdrawal, error)

	// ListWithdrawals returns a seller's withdrawals, newest first
	ListWithdrawals(ctx context.Context, discordUserID string) ([]*models.Withdrawal, error)

	// PendingWithdrawals returns every withdrawal awaiting resolution, oldest first
	PendingWithdrawals(ctx context.Context) ([]*models.Withdrawal, error)

	// ListTransactions returns a seller's ledger entries, newest first
	ListTransactions(ctx context.Context, discordUserID string, limit int) ([]*models.Transaction, error)

	// GetBalance summarizes a seller's wallet
	GetBalance(ctx context.Context, discordUserID string) (*Balance, error)
}

// CatalogService defines the interface for instance, product and variant CRUD
type CatalogService interface {
	CreateInstance(ctx context.Context, input InstanceInput) (*models.Instance, error)
	GetInstance(ctx context.Context, instanceID string) (*models.Instance, error)
	ListInstances(ctx context.Context, ownerDiscordUserID string) ([]*models.Instance, error)
	UpdateInstance(ctx context.Context, instanceID string, update InstanceUpdate) (*models.Instance, error)
	DeleteInstance(ctx context.Context, instanceID string) error

	// SetRuntimeStatus stores an orchestrator status report verbatim
	SetRuntimeStatus(ctx context.Context, instanceID string, status models.RuntimeStatus, code string) (*models.Instance, error)

	CreateProduct(ctx context.Context, instanceID string, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, instanceID, productID string, update ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, instanceID, productID string) error

	AddVariant(ctx context.Context, instanceID, productID string, input VariantInput) (*models.Product, error)
	UpdateVariant(ctx context.Context, instanceID, productID string, input VariantInput) (*models.Product, error)
	RemoveVariant(ctx context.Context, instanceID, productID, variantID string) (*models.Product, error)
}

// InventoryService defines the interface for stock key operations
type InventoryService interface {
	// AddStockKeys inserts keys not already present anywhere in the product's stock
	AddStockKeys(ctx context.Context, instanceID, productID, bucket string, keys []string) (*models.StockAddResult, error)

	// ClearBucket empties one bucket and returns how many keys were removed
	ClearBucket(ctx context.Context, instanceID, productID, bucket string) (int, error)

	// ConsumeKey pops the oldest key of a bucket
	ConsumeKey(ctx context.Context, instanceID, productID, bucket string) (string, error)

	// StockSummary returns key counts per bucket
	StockSummary(ctx context.Context, instanceID, productID string) (map[string]int, error)
}
