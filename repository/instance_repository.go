package repository

import (
	"context"
	"fmt"

	"botshop/models"
	"botshop/service"

	"github.com/google/uuid"
)

// InstanceRepository implements the InstanceRepository interface. An instance
// is stored together with its products and their stock.
type InstanceRepository struct {
	s *scope
}

func newInstanceRepository(s *scope) *InstanceRepository {
	return &InstanceRepository{s: s}
}

func (r *InstanceRepository) index(id string) int {
	for i, inst := range r.s.doc.Instances {
		if inst.ID == id {
			return i
		}
	}
	return -1
}

// Create stores a new instance
func (r *InstanceRepository) Create(ctx context.Context, instance *models.Instance) error {
	if err := r.s.checkWritable("create instance"); err != nil {
		return err
	}
	if instance.ID == "" {
		instance.ID = uuid.NewString()
	}
	if r.index(instance.ID) >= 0 {
		return fmt.Errorf("failed to create instance: %s already exists", instance.ID)
	}
	if instance.Products == nil {
		instance.Products = []*models.Product{}
	}
	if instance.Runtime.Status == "" {
		instance.Runtime.Status = models.RuntimeStatusNotConfigured
	}
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = r.s.now
	}
	instance.UpdatedAt = r.s.now

	r.s.doc.Instances = append(r.s.doc.Instances, instance.Clone())
	return nil
}

// GetByID retrieves an instance with its catalog
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*models.Instance, error) {
	i := r.index(id)
	if i < 0 {
		return nil, nil
	}
	return r.s.doc.Instances[i].Clone(), nil
}

// GetByOwner returns the instances owned by a user
func (r *InstanceRepository) GetByOwner(ctx context.Context, ownerDiscordUserID string) ([]*models.Instance, error) {
	var result []*models.Instance
	for _, inst := range r.s.doc.Instances {
		if inst.IsOwnedBy(ownerDiscordUserID) {
			result = append(result, inst.Clone())
		}
	}
	return result, nil
}

// GetAll returns all instances
func (r *InstanceRepository) GetAll(ctx context.Context) ([]*models.Instance, error) {
	result := make([]*models.Instance, len(r.s.doc.Instances))
	for i, inst := range r.s.doc.Instances {
		result[i] = inst.Clone()
	}
	return result, nil
}

// Update replaces the stored instance, catalog included
func (r *InstanceRepository) Update(ctx context.Context, instance *models.Instance) error {
	if err := r.s.checkWritable("update instance"); err != nil {
		return err
	}
	i := r.index(instance.ID)
	if i < 0 {
		return fmt.Errorf("failed to update instance %s: %w", instance.ID, service.ErrInstanceNotFound)
	}
	instance.UpdatedAt = r.s.now
	r.s.doc.Instances[i] = instance.Clone()
	return nil
}

// Delete removes an instance. Its products and stock go with it.
func (r *InstanceRepository) Delete(ctx context.Context, id string) error {
	if err := r.s.checkWritable("delete instance"); err != nil {
		return err
	}
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("failed to delete instance %s: %w", id, service.ErrInstanceNotFound)
	}
	r.s.doc.Instances = append(r.s.doc.Instances[:i], r.s.doc.Instances[i+1:]...)
	return nil
}
