// Package catalog exposes the product catalog over HTTP and seeds the
// store with an embedded demo catalog on first run.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/aruiz/shopsense/internal/services"
	"github.com/aruiz/shopsense/pkg/models"
)

//go:embed seed.yaml
var seedRawData []byte

var (
	seedOnce     sync.Once
	seedProducts []models.Product
	seedErr      error
)

// seedFile is the top-level structure of the embedded YAML.
type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

// seedProduct mirrors models.Product with string prices, since YAML has
// no decimal type and float literals would lose precision.
type seedProduct struct {
	ID                   string              `yaml:"id"`
	Name                 string              `yaml:"name"`
	Description          string              `yaml:"description"`
	Category             string              `yaml:"category"`
	Price                string              `yaml:"price"`
	ImageURL             string              `yaml:"image_url"`
	DefaultConfiguration map[string]string   `yaml:"default_configuration"`
	Features             map[string]seedSlot `yaml:"features"`
}

type seedSlot struct {
	Selected *seedComponent `yaml:"selected"`
	Options  []seedComponent `yaml:"options"`
}

type seedComponent struct {
	Name           string            `yaml:"name"`
	Brand          string            `yaml:"brand"`
	Specs          map[string]string `yaml:"specs"`
	PriceIncrement string            `yaml:"price_increment"`
}

// SeedProducts returns the embedded demo catalog. The YAML is parsed
// once; subsequent calls return a copy of the cached products.
func SeedProducts() ([]models.Product, error) {
	seedOnce.Do(loadSeed)
	if seedErr != nil {
		return nil, seedErr
	}
	cp := make([]models.Product, len(seedProducts))
	copy(cp, seedProducts)
	return cp, nil
}

func loadSeed() {
	var f seedFile
	if err := yaml.Unmarshal(seedRawData, &f); err != nil {
		seedErr = fmt.Errorf("catalog: parse seed yaml: %w", err)
		return
	}

	products := make([]models.Product, 0, len(f.Products))
	for _, sp := range f.Products {
		p, err := sp.toModel()
		if err != nil {
			seedErr = fmt.Errorf("catalog: seed product %q: %w", sp.ID, err)
			return
		}
		products = append(products, p)
	}
	seedProducts = products
}

func (sp seedProduct) toModel() (models.Product, error) {
	price, err := decimal.NewFromString(sp.Price)
	if err != nil {
		return models.Product{}, fmt.Errorf("parse price %q: %w", sp.Price, err)
	}

	var features map[string]models.FeatureSlot
	if len(sp.Features) > 0 {
		features = make(map[string]models.FeatureSlot, len(sp.Features))
		for category, slot := range sp.Features {
			ms, err := slot.toModel()
			if err != nil {
				return models.Product{}, fmt.Errorf("feature %q: %w", category, err)
			}
			features[category] = ms
		}
	}

	now := time.Now().UTC()
	return models.Product{
		ID:                   sp.ID,
		Name:                 sp.Name,
		Description:          sp.Description,
		Category:             sp.Category,
		BasePrice:            price,
		Features:             features,
		DefaultConfiguration: sp.DefaultConfiguration,
		ImageURL:             sp.ImageURL,
		Active:               true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

func (ss seedSlot) toModel() (models.FeatureSlot, error) {
	var slot models.FeatureSlot
	if ss.Selected != nil {
		c, err := ss.Selected.toModel()
		if err != nil {
			return slot, err
		}
		slot.Selected = &c
	}
	for _, opt := range ss.Options {
		c, err := opt.toModel()
		if err != nil {
			return slot, err
		}
		slot.Options = append(slot.Options, c)
	}
	return slot, nil
}

func (sc seedComponent) toModel() (models.Component, error) {
	inc := decimal.Zero
	if sc.PriceIncrement != "" {
		var err error
		inc, err = decimal.NewFromString(sc.PriceIncrement)
		if err != nil {
			return models.Component{}, fmt.Errorf("parse price increment %q: %w", sc.PriceIncrement, err)
		}
	}
	return models.Component{
		Name:           sc.Name,
		Brand:          sc.Brand,
		Specs:          sc.Specs,
		PriceIncrement: inc,
	}, nil
}

// Seed inserts the embedded demo catalog into the repository when it is
// empty. A store that already holds products is left untouched.
func Seed(ctx context.Context, repo services.ProductRepository, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("catalog: count products: %w", err)
	}
	if count > 0 {
		logger.Debug("catalog already populated, skipping seed", zap.Int("products", count))
		return nil
	}

	products, err := SeedProducts()
	if err != nil {
		return err
	}
	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			return fmt.Errorf("catalog: seed %s: %w", products[i].ID, err)
		}
	}
	logger.Info("seeded demo catalog", zap.Int("products", len(products)))
	return nil
}
