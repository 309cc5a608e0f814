package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aruiz/shopsense/pkg/models"
)

// NewProduct returns a Product with sensible defaults, suitable for test
// fixtures. Override individual fields after creation as needed.
func NewProduct(opts ...func(*models.Product)) models.Product {
	p := models.Product{
		ID:        uuid.New().String(),
		Name:      "test-product",
		Category:  "Laptops",
		BasePrice: decimal.NewFromInt(1000),
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithID sets the product ID.
func WithID(id string) func(*models.Product) {
	return func(p *models.Product) { p.ID = id }
}

// WithName sets the product name.
func WithName(name string) func(*models.Product) {
	return func(p *models.Product) { p.Name = name }
}

// WithCategory sets the catalog category.
func WithCategory(category string) func(*models.Product) {
	return func(p *models.Product) { p.Category = category }
}

// WithPrice sets the base price from an integer amount.
func WithPrice(price int64) func(*models.Product) {
	return func(p *models.Product) { p.BasePrice = decimal.NewFromInt(price) }
}

// WithFeature sets the selected component for a feature category.
func WithFeature(category, componentName string) func(*models.Product) {
	return func(p *models.Product) {
		if p.Features == nil {
			p.Features = make(map[string]models.FeatureSlot)
		}
		p.Features[category] = models.FeatureSlot{
			Selected: &models.Component{Name: componentName},
		}
	}
}

// WithDefaultConfig sets one default-configuration entry.
func WithDefaultConfig(category, value string) func(*models.Product) {
	return func(p *models.Product) {
		if p.DefaultConfiguration == nil {
			p.DefaultConfiguration = make(map[string]string)
		}
		p.DefaultConfiguration[category] = value
	}
}

// WithInactive marks the product as inactive.
func WithInactive() func(*models.Product) {
	return func(p *models.Product) { p.Active = false }
}
