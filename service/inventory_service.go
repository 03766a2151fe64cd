package service

import (
	"context"
	"fmt"
	"strings"

	"botshop/events"
	"botshop/models"

	log "github.com/sirupsen/logrus"
)

// inventoryService implements the InventoryService interface
type inventoryService struct {
	uowFactory UnitOfWorkFactory
}

// NewInventoryService creates a new inventory service
func NewInventoryService(uowFactory UnitOfWorkFactory) InventoryService {
	return &inventoryService{
		uowFactory: uowFactory,
	}
}

func normalizeBucket(bucket string) (string, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return "", ErrBucketRequired
	}
	return bucket, nil
}

// AddStockKeys inserts the keys not yet held by any bucket of the product.
// Keys already in the target bucket or in another bucket are skipped and counted.
func (s *inventoryService) AddStockKeys(ctx context.Context, instanceID, productID, bucket string, keys []string) (*models.StockAddResult, error) {
	bucket, err := normalizeBucket(bucket)
	if err != nil {
		return nil, err
	}

	var result models.StockAddResult
	err = s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		instance, product, err := getExistingProduct(ctx, uow, instanceID, productID)
		if err != nil {
			return err
		}

		result = product.Stock.Add(bucket, keys)
		if result.Inserted == 0 {
			return nil
		}

		product.UpdatedAt = uow.Now()
		if err := uow.InstanceRepository().Update(ctx, instance); err != nil {
			return fmt.Errorf("failed to store stock: %w", err)
		}
		uow.EventBus().Publish(events.StockChangeEvent{
			InstanceID: instanceID,
			ProductID:  productID,
			Bucket:     bucket,
			Added:      result.Inserted,
			Remaining:  result.BucketSize,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"instanceId": instanceID,
		"productId":  productID,
		"bucket":     bucket,
		"inserted":   result.Inserted,
		"skipped":    result.Skipped(),
	}).Debug("Stock keys added")
	return &result, nil
}

// ClearBucket empties one bucket. Other buckets are untouched.
func (s *inventoryService) ClearBucket(ctx context.Context, instanceID, productID, bucket string) (int, error) {
	bucket, err := normalizeBucket(bucket)
	if err != nil {
		return 0, err
	}

	var removed int
	err = s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		instance, product, err := getExistingProduct(ctx, uow, instanceID, productID)
		if err != nil {
			return err
		}

		removed = product.Stock.Clear(bucket)
		if removed == 0 {
			return nil
		}

		product.UpdatedAt = uow.Now()
		if err := uow.InstanceRepository().Update(ctx, instance); err != nil {
			return fmt.Errorf("failed to clear bucket: %w", err)
		}
		uow.EventBus().Publish(events.StockChangeEvent{
			InstanceID: instanceID,
			ProductID:  productID,
			Bucket:     bucket,
			Removed:    removed,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ConsumeKey pops the oldest key of a bucket. The pop is a single write task,
// so two consumers never receive the same key.
func (s *inventoryService) ConsumeKey(ctx context.Context, instanceID, productID, bucket string) (string, error) {
	bucket, err := normalizeBucket(bucket)
	if err != nil {
		return "", err
	}

	var key string
	err = s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		instance, product, err := getExistingProduct(ctx, uow, instanceID, productID)
		if err != nil {
			return err
		}

		k, ok := product.Stock.Pop(bucket)
		if !ok {
			return ErrStockEmpty
		}

		product.UpdatedAt = uow.Now()
		if err := uow.InstanceRepository().Update(ctx, instance); err != nil {
			return fmt.Errorf("failed to consume key: %w", err)
		}
		uow.EventBus().Publish(events.StockChangeEvent{
			InstanceID: instanceID,
			ProductID:  productID,
			Bucket:     bucket,
			Removed:    1,
			Remaining:  len(product.Stock[bucket]),
		})
		key = k
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// StockSummary returns the number of keys held by each bucket
func (s *inventoryService) StockSummary(ctx context.Context, instanceID, productID string) (map[string]int, error) {
	var counts map[string]int
	err := s.uowFactory.View(ctx, func(uow UnitOfWork) error {
		_, product, err := getExistingProduct(ctx, uow, instanceID, productID)
		if err != nil {
			return err
		}
		counts = product.Stock.Counts()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
