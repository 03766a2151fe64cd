package service

import (
	"context"
	"time"

	"botshop/events"
	"botshop/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByDiscordID(ctx context.Context, discordUserID string) (*models.User, error) {
	args := m.Called(ctx, discordUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, discordUserID string, amount int64) (*models.User, error) {
	args := m.Called(ctx, discordUserID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, discordUserID string, amount int64) (*models.User, error) {
	args := m.Called(ctx, discordUserID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) RecordSale(ctx context.Context, discordUserID string, amount int64) (*models.User, error) {
	args := m.Called(ctx, discordUserID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, discordUserID string, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, discordUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetAll(ctx context.Context) ([]*models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	args := m.Called(ctx, withdrawal)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) GetByUser(ctx context.Context, discordUserID string) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, discordUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) GetAll(ctx context.Context, status *models.WithdrawalStatus) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) UpdateStatus(ctx context.Context, id string, status models.WithdrawalStatus, reason string) error {
	args := m.Called(ctx, id, status, reason)
	return args.Error(0)
}

// MockInstanceRepository is a mock implementation of InstanceRepository
type MockInstanceRepository struct {
	mock.Mock
}

func (m *MockInstanceRepository) Create(ctx context.Context, instance *models.Instance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

func (m *MockInstanceRepository) GetByID(ctx context.Context, id string) (*models.Instance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Instance), args.Error(1)
}

func (m *MockInstanceRepository) GetByOwner(ctx context.Context, ownerDiscordUserID string) ([]*models.Instance, error) {
	args := m.Called(ctx, ownerDiscordUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Instance), args.Error(1)
}

func (m *MockInstanceRepository) GetAll(ctx context.Context) ([]*models.Instance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Instance), args.Error(1)
}

func (m *MockInstanceRepository) Update(ctx context.Context, instance *models.Instance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

func (m *MockInstanceRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork hands out the configured mock repositories
type MockUnitOfWork struct {
	userRepo        UserRepository
	transactionRepo TransactionRepository
	withdrawalRepo  WithdrawalRepository
	instanceRepo    InstanceRepository
	eventBus        EventPublisher
	now             time.Time
}

// NewMockUnitOfWork creates a unit of work whose tasks run at now
func NewMockUnitOfWork(now time.Time) *MockUnitOfWork {
	return &MockUnitOfWork{now: now}
}

// SetRepositories configures the repositories returned by the unit of work
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, transactionRepo TransactionRepository, withdrawalRepo WithdrawalRepository, instanceRepo InstanceRepository, eventBus EventPublisher) {
	m.userRepo = userRepo
	m.transactionRepo = transactionRepo
	m.withdrawalRepo = withdrawalRepo
	m.instanceRepo = instanceRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) WithdrawalRepository() WithdrawalRepository {
	return m.withdrawalRepo
}

func (m *MockUnitOfWork) InstanceRepository() InstanceRepository {
	return m.instanceRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

func (m *MockUnitOfWork) Now() time.Time {
	return m.now
}

// MockUnitOfWorkFactory runs every task directly against UoW. The error
// configured for Run or View is returned after fn runs, simulating a failed save.
type MockUnitOfWorkFactory struct {
	mock.Mock
	UoW *MockUnitOfWork
}

func (m *MockUnitOfWorkFactory) Run(ctx context.Context, fn func(uow UnitOfWork) error) error {
	args := m.Called(ctx)
	if err := fn(m.UoW); err != nil {
		return err
	}
	return args.Error(0)
}

func (m *MockUnitOfWorkFactory) View(ctx context.Context, fn func(uow UnitOfWork) error) error {
	args := m.Called(ctx)
	if err := fn(m.UoW); err != nil {
		return err
	}
	return args.Error(0)
}
