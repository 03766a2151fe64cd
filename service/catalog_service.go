package service

import (
	"context"
	"fmt"

	"botshop/events"
	"botshop/models"

	log "github.com/sirupsen/logrus"
)

// catalogService implements the CatalogService interface
type catalogService struct {
	uowFactory UnitOfWorkFactory
}

// NewCatalogService creates a new catalog service
func NewCatalogService(uowFactory UnitOfWorkFactory) CatalogService {
	return &catalogService{
		uowFactory: uowFactory,
	}
}

// CreateInstance registers a new bot instance for an existing seller
func (s *catalogService) CreateInstance(ctx context.Context, input InstanceInput) (*models.Instance, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var result *models.Instance
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		if _, err := getExistingUser(ctx, uow, input.OwnerDiscordUserID); err != nil {
			return err
		}

		instance := &models.Instance{
			OwnerDiscordUserID: input.OwnerDiscordUserID,
			Name:               input.Name,
			GuildID:            input.GuildID,
			Branding:           input.Branding,
			Channels:           input.Channels,
			BotTokenRef:        input.BotTokenRef,
			Runtime:            models.Runtime{Status: models.RuntimeStatusNotConfigured},
			Products:           []*models.Product{},
		}
		if err := uow.InstanceRepository().Create(ctx, instance); err != nil {
			return fmt.Errorf("failed to create instance: %w", err)
		}
		result = instance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetInstance returns an instance with its catalog, or ErrInstanceNotFound
func (s *catalogService) GetInstance(ctx context.Context, instanceID string) (*models.Instance, error) {
	var result *models.Instance
	err := s.uowFactory.View(ctx, func(uow UnitOfWork) error {
		instance, err := getExistingInstance(ctx, uow, instanceID)
		if err != nil {
			return err
		}
		result = instance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListInstances returns a seller's instances; an empty owner lists every instance
func (s *catalogService) ListInstances(ctx context.Context, ownerDiscordUserID string) ([]*models.Instance, error) {
	var result []*models.Instance
	err := s.uowFactory.View(ctx, func(uow UnitOfWork) error {
		var instances []*models.Instance
		var err error
		if ownerDiscordUserID == "" {
			instances, err = uow.InstanceRepository().GetAll(ctx)
		} else {
			instances, err = uow.InstanceRepository().GetByOwner(ctx, ownerDiscordUserID)
		}
		if err != nil {
			return fmt.Errorf("failed to get instances: %w", err)
		}
		result = instances
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateInstance applies the non-nil fields of update
func (s *catalogService) UpdateInstance(ctx context.Context, instanceID string, update InstanceUpdate) (*models.Instance, error) {
	if err := validateInput(update); err != nil {
		return nil, err
	}

	var result *models.Instance
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		instance, err := getExistingInstance(ctx, uow, instanceID)
		if err != nil {
			return err
		}

		if update.Name != nil {
			instance.Name = *update.Name
		}
		if update.GuildID != nil {
			instance.GuildID = *update.GuildID
		}
		if update.Branding != nil {
			instance.Branding = *update.Branding
		}
		if update.Channels != nil {
			instance.Channels = *update.Channels
		}
		if update.BotTokenRef != nil {
			instance.BotTokenRef = *update.BotTokenRef
		}

		if err := uow.InstanceRepository().Update(ctx, instance); err != nil {
			return fmt.Errorf("failed to update instance: %w", err)
		}
		result = instance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteInstance removes an instance together with its products and stock
func (s *catalogService) DeleteInstance(ctx context.Context, instanceID string) error {
	return s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		instance, err := getExistingInstance(ctx, uow, instanceID)
		if err != nil {
			return err
		}
		if err := uow.InstanceRepository().Delete(ctx, instance.ID); err != nil {
			return fmt.Errorf("failed to delete instance: %w", err)
		}

		uow.EventBus().Publish(events.InstanceDeletedEvent{
			InstanceID: instance.ID,
			OwnerID:    instance.OwnerDiscordUserID,
		})
		return nil
	})
}

// SetRuntimeStatus stores an orchestrator status report verbatim
func (s *catalogService) SetRuntimeStatus(ctx context.Context, instanceID string, status models.RuntimeStatus, code string) (*models.Instance, error) {
	if !status.IsKnown() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRuntimeStatus, status)
	}

	var result *models.Instance
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		instance, err := getExistingInstance(ctx, uow, instanceID)
		if err != nil {
			return err
		}

		old := instance.Runtime.Status
		instance.Runtime = models.Runtime{
			Status:    status,
			Code:      code,
			UpdatedAt: timePtr(uow.Now()),
		}
		if err := uow.InstanceRepository().Update(ctx, instance); err != nil {
			return fmt.Errorf("failed to update runtime status: %w", err)
		}

		if old != status {
			uow.EventBus().Publish(events.RuntimeStatusChangeEvent{
				InstanceID: instance.ID,
				OldStatus:  old,
				NewStatus:  status,
				Code:       code,
			})
		}
		result = instance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateProduct adds a product to an instance's catalog. An empty id is
// derived from the product name.
func (s *catalogService) CreateProduct(ctx context.Context, instanceID string, input ProductInput) (*models.Product, error) {
	if input.ID == "" {
		input.ID = Slugify(input.Name)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(input.Variants))
	for _, v := range input.Variants {
		if seen[v.ID] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateVariantID, v.ID)
		}
		seen[v.ID] = true
	}

	var result *models.Product
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		instance, err := getExistingInstance(ctx, uow, instanceID)
		if err != nil {
			return err
		}
		if instance.FindProduct(input.ID) != nil {
			return fmt.Errorf("%w: %q", ErrDuplicateProductID, input.ID)
		}

		now := uow.Now()
		product := &models.Product{
			ID:          input.ID,
			Name:        input.Name,
			Description: input.Description,
			ImageURL:    input.ImageURL,
			Variants:    make([]*models.Variant, 0, len(input.Variants)),
			Stock:       models.Stock{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for _, v := range input.Variants {
			product.Variants = append(product.Variants, v.toModel())
		}

		instance.Products = append(instance.Products, product)
		if err := uow.InstanceRepository().Update(ctx, instance); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		result = product.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateProduct applies the non-nil fields of update
func (s *catalogService) UpdateProduct(ctx context.Context, instanceID, productID string, update ProductUpdate) (*models.Product, error) {
	if err := validateInput(update); err != nil {
		return nil, err
	}
	return s.mutateProduct(ctx, instanceID, productID, func(product *models.Product) error {
		if update.Name != nil {
			product.Name = *update.Name
		}
		if update.Description != nil {
			product.Description = *update.Description
		}
		if update.ImageURL != nil {
			product.ImageURL = *update.ImageURL
		}
		return nil
	})
}

// DeleteProduct removes a product and its whole stock map
func (s *catalogService) DeleteProduct(ctx context.Context, instanceID, productID string) error {
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		instance, err := getExistingInstance(ctx, uow, instanceID)
		if err != nil {
			return err
		}
		if !instance.RemoveProduct(productID) {
			return ErrProductNotFound
		}
		if err := uow.InstanceRepository().Update(ctx, instance); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"instanceId": instanceID,
		"productId":  productID,
	}).Info("Product deleted")
	return nil
}

// AddVariant appends a variant to a product
func (s *catalogService) AddVariant(ctx context.Context, instanceID, productID string, input VariantInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return s.mutateProduct(ctx, instanceID, productID, func(product *models.Product) error {
		if product.FindVariant(input.ID) != nil {
			return fmt.Errorf("%w: %q", ErrDuplicateVariantID, input.ID)
		}
		product.Variants = append(product.Variants, input.toModel())
		return nil
	})
}

// UpdateVariant replaces the label, duration and price of an existing variant
func (s *catalogService) UpdateVariant(ctx context.Context, instanceID, productID string, input VariantInput) (*models.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return s.mutateProduct(ctx, instanceID, productID, func(product *models.Product) error {
		variant := product.FindVariant(input.ID)
		if variant == nil {
			return ErrVariantNotFound
		}
		variant.Label = input.Label
		variant.Duration = input.Duration
		variant.Price = input.Price
		return nil
	})
}

// RemoveVariant drops a variant together with its dedicated stock bucket
func (s *catalogService) RemoveVariant(ctx context.Context, instanceID, productID, variantID string) (*models.Product, error) {
	return s.mutateProduct(ctx, instanceID, productID, func(product *models.Product) error {
		if !product.RemoveVariant(variantID) {
			return ErrVariantNotFound
		}
		return nil
	})
}

// mutateProduct runs fn on one product inside a write task and stores the
// owning instance if fn succeeds
func (s *catalogService) mutateProduct(ctx context.Context, instanceID, productID string, fn func(product *models.Product) error) (*models.Product, error) {
	var result *models.Product
	err := s.uowFactory.Run(ctx, func(uow UnitOfWork) error {
		instance, product, err := getExistingProduct(ctx, uow, instanceID, productID)
		if err != nil {
			return err
		}
		if err := fn(product); err != nil {
			return err
		}

		product.UpdatedAt = uow.Now()
		if err := uow.InstanceRepository().Update(ctx, instance); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		result = product.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func getExistingInstance(ctx context.Context, uow UnitOfWork, instanceID string) (*models.Instance, error) {
	instance, err := uow.InstanceRepository().GetByID(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	if instance == nil {
		return nil, ErrInstanceNotFound
	}
	return instance, nil
}

func getExistingProduct(ctx context.Context, uow UnitOfWork, instanceID, productID string) (*models.Instance, *models.Product, error) {
	instance, err := getExistingInstance(ctx, uow, instanceID)
	if err != nil {
		return nil, nil, err
	}
	product := instance.FindProduct(productID)
	if product == nil {
		return nil, nil, ErrProductNotFound
	}
	return instance, product, nil
}
