// Package models defines the shared data shapes for the ShopSense catalog.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical feature category keys. Catalog data may carry arbitrary
// categories; these are the ones the comparison engine knows how to rank.
const (
	FeatureProcessor = "processor"
	FeatureRAM       = "ram"
	FeatureStorage   = "storage"
	FeatureScreen    = "screen"
	FeatureGraphics  = "graphics"
)

// Component is a concrete selectable option within a feature category,
// e.g. "Intel Core i7" for the processor slot.
type Component struct {
	Name           string            `json:"name"`
	Brand          string            `json:"brand,omitempty"`
	Specs          map[string]string `json:"specs,omitempty"`
	PriceIncrement decimal.Decimal   `json:"price_increment"`
}

// FeatureSlot holds the chosen component for a feature category and,
// for configurable products, the catalog of alternatives.
type FeatureSlot struct {
	Selected *Component  `json:"selected,omitempty"`
	Options  []Component `json:"options,omitempty"`
}

// Product represents a catalog product. Instances handed to the comparison
// engine are read-only snapshots; the engine never mutates them.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	BasePrice   decimal.Decimal `json:"base_price"`

	// Features maps feature category keys to configured slots.
	Features map[string]FeatureSlot `json:"features,omitempty"`

	// DefaultConfiguration is the flat fallback used when a category has no
	// selected component, e.g. {"ram": "16GB", "storage": "512GB SSD"}.
	DefaultConfiguration map[string]string `json:"default_configuration,omitempty"`

	ImageURL  string    `json:"image_url,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeatureValue resolves the configured value for a feature category.
// The selected component takes precedence; the default configuration string
// is the fallback. Specs are nil when only a default string is available.
func (p *Product) FeatureValue(category string) (name string, specs map[string]string, ok bool) {
	if slot, found := p.Features[category]; found && slot.Selected != nil && slot.Selected.Name != "" {
		return slot.Selected.Name, slot.Selected.Specs, true
	}
	if v, found := p.DefaultConfiguration[category]; found && v != "" {
		return v, nil, true
	}
	return "", nil, false
}

// FeatureCategories returns every feature category key configured on the
// product, from both the feature slots and the default configuration.
func (p *Product) FeatureCategories() map[string]struct{} {
	cats := make(map[string]struct{}, len(p.Features)+len(p.DefaultConfiguration))
	for k := range p.Features {
		cats[k] = struct{}{}
	}
	for k := range p.DefaultConfiguration {
		cats[k] = struct{}{}
	}
	return cats
}

// SameCategory reports whether two products belong to the same catalog
// category. Matching is case-insensitive: catalog data is user-entered and
// "Laptops" and "laptops" are the same shelf.
func (p *Product) SameCategory(o *Product) bool {
	return strings.EqualFold(p.Category, o.Category)
}
