package compare

import (
	"github.com/shopspring/decimal"

	"github.com/aruiz/shopsense/pkg/models"
)

// Candidates narrows a catalog snapshot to products comparable to base:
// same category (case-insensitive), not the base product itself, and priced
// within the band around the base price.
//
// When the base price is zero or negative the price band would collapse to
// [0,0] and filter out everything, so the band is skipped and category match
// alone decides. Candidates never sorts or truncates; that is the ranker's
// job.
func Candidates(catalog []models.Product, base models.Product, band PriceBand) []models.Product {
	applyBand := base.BasePrice.IsPositive()

	var low, high decimal.Decimal
	if applyBand {
		low = base.BasePrice.Mul(decimal.NewFromFloat(band.Min))
		high = base.BasePrice.Mul(decimal.NewFromFloat(band.Max))
	}

	out := make([]models.Product, 0, len(catalog))
	for i := range catalog {
		c := &catalog[i]
		if c.ID == base.ID {
			continue
		}
		if !c.SameCategory(&base) {
			continue
		}
		if applyBand && (c.BasePrice.Cmp(low) < 0 || c.BasePrice.Cmp(high) > 0) {
			continue
		}
		out = append(out, *c)
	}
	return out
}
