package models

import (
	"time"
)

// Variant is a purchasable option of a product
type Variant struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Duration string `json:"duration,omitempty"`
	// Price is in cents
	Price int64 `json:"price"`
}

// Product is a catalog entry of an instance
type Product struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Variants    []*Variant `json:"variants"`
	Stock       Stock      `json:"stock"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// FindVariant returns the variant with the given id, or nil
func (p *Product) FindVariant(variantID string) *Variant {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v
		}
	}
	return nil
}

// RemoveVariant drops the variant and its dedicated stock bucket
func (p *Product) RemoveVariant(variantID string) bool {
	for idx, v := range p.Variants {
		if v.ID == variantID {
			p.Variants = append(p.Variants[:idx], p.Variants[idx+1:]...)
			delete(p.Stock, variantID)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the product, variants and stock included
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	c.Variants = make([]*Variant, len(p.Variants))
	for idx, v := range p.Variants {
		vc := *v
		c.Variants[idx] = &vc
	}
	c.Stock = p.Stock.Clone()
	return &c
}
