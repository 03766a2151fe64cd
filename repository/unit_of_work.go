package repository

import (
	"context"
	"time"

	"botshop/database"
	"botshop/events"
	"botshop/models"
	"botshop/service"

	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface for a single store task
type unitOfWork struct {
	scope            *scope
	transactionalBus *events.TransactionalBus
	userRepo         *UserRepository
	transactionRepo  *TransactionRepository
	withdrawalRepo   *WithdrawalRepository
	instanceRepo     *InstanceRepository
}

func newUnitOfWork(doc *models.Document, bus *events.TransactionalBus, now time.Time, readOnly bool) *unitOfWork {
	s := &scope{doc: doc, now: now, readOnly: readOnly}
	return &unitOfWork{
		scope:            s,
		transactionalBus: bus,
		userRepo:         newUserRepository(s),
		transactionRepo:  newTransactionRepository(s),
		withdrawalRepo:   newWithdrawalRepository(s),
		instanceRepo:     newInstanceRepository(s),
	}
}

// FactoryOption configures the unit of work factory
type FactoryOption func(*unitOfWorkFactory)

// WithClock overrides the time source used to stamp writes
func WithClock(clock func() time.Time) FactoryOption {
	return func(f *unitOfWorkFactory) {
		f.clock = clock
	}
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus, opts ...FactoryOption) service.UnitOfWorkFactory {
	f := &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
	clock    func() time.Time
}

// Run executes fn as one write task. Events published by fn are emitted only
// after the document has been saved.
func (f *unitOfWorkFactory) Run(ctx context.Context, fn func(uow service.UnitOfWork) error) error {
	bus := events.NewTransactionalBus(f.eventBus)

	err := f.db.WithTransaction(ctx, func(doc *models.Document) error {
		return fn(newUnitOfWork(doc, bus, f.clock().UTC(), false))
	})
	if err != nil {
		// Discard pending events on rollback
		bus.Discard()
		if service.IsDomainError(err) {
			f.db.Metrics().ObserveDomainError(service.ErrorCode(err))
		} else {
			log.WithError(err).Error("Store write task failed")
		}
		return err
	}

	bus.Flush(ctx)
	return nil
}

// View executes fn as one read task against the committed document
func (f *unitOfWorkFactory) View(ctx context.Context, fn func(uow service.UnitOfWork) error) error {
	err := f.db.WithSnapshot(ctx, func(doc *models.Document) error {
		return fn(newUnitOfWork(doc, events.NewTransactionalBus(nil), f.clock().UTC(), true))
	})
	if err != nil && service.IsDomainError(err) {
		f.db.Metrics().ObserveDomainError(service.ErrorCode(err))
	}
	return err
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	return u.userRepo
}

// TransactionRepository returns the ledger repository for this unit of work
func (u *unitOfWork) TransactionRepository() service.TransactionRepository {
	return u.transactionRepo
}

// WithdrawalRepository returns the withdrawal repository for this unit of work
func (u *unitOfWork) WithdrawalRepository() service.WithdrawalRepository {
	return u.withdrawalRepo
}

// InstanceRepository returns the instance repository for this unit of work
func (u *unitOfWork) InstanceRepository() service.InstanceRepository {
	return u.instanceRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}

// Now returns the timestamp shared by every write of this task
func (u *unitOfWork) Now() time.Time {
	return u.scope.now
}
