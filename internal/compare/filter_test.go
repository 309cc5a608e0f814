package compare

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/aruiz/shopsense/pkg/models"
)

func priced(id, category string, price int64) models.Product {
	return models.Product{
		ID:        id,
		Name:      id,
		Category:  category,
		BasePrice: decimal.NewFromInt(price),
	}
}

func TestCandidates_DefaultBand(t *testing.T) {
	base := priced("A", "Laptops", 1000)
	catalog := []models.Product{
		base,
		priced("B", "Laptops", 1100),
		priced("C", "Laptops", 5000),
		priced("D", "Tablets", 1050),
	}

	got := Candidates(catalog, base, DefaultPriceBand())
	if len(got) != 1 {
		t.Fatalf("Candidates() returned %d products, want 1", len(got))
	}
	if got[0].ID != "B" {
		t.Errorf("Candidates()[0].ID = %q, want %q", got[0].ID, "B")
	}
}

func TestCandidates_ExcludesBaseProduct(t *testing.T) {
	base := priced("A", "Laptops", 1000)
	got := Candidates([]models.Product{base}, base, DefaultPriceBand())
	if len(got) != 0 {
		t.Errorf("Candidates() included the base product itself: %+v", got)
	}
}

func TestCandidates_CategoryCaseInsensitive(t *testing.T) {
	base := priced("A", "Laptops", 1000)
	catalog := []models.Product{priced("B", "laptops", 1000)}

	got := Candidates(catalog, base, DefaultPriceBand())
	if len(got) != 1 {
		t.Errorf("Candidates() = %d products, want 1 (category match is case-insensitive)", len(got))
	}
}

func TestCandidates_BandBoundariesInclusive(t *testing.T) {
	base := priced("A", "Laptops", 1000)
	catalog := []models.Product{
		priced("low", "Laptops", 700),
		priced("high", "Laptops", 1300),
		priced("below", "Laptops", 699),
		priced("above", "Laptops", 1301),
	}

	got := Candidates(catalog, base, DefaultPriceBand())
	if len(got) != 2 {
		t.Fatalf("Candidates() = %d products, want 2 (700 and 1300 inclusive)", len(got))
	}
	for _, p := range got {
		if p.ID != "low" && p.ID != "high" {
			t.Errorf("unexpected candidate %q", p.ID)
		}
	}
}

func TestCandidates_ZeroBasePriceSkipsBand(t *testing.T) {
	base := priced("A", "Laptops", 0)
	catalog := []models.Product{
		priced("B", "Laptops", 99999),
		priced("C", "Tablets", 50),
	}

	got := Candidates(catalog, base, DefaultPriceBand())
	if len(got) != 1 || got[0].ID != "B" {
		t.Errorf("Candidates() with zero base price = %+v, want only same-category B", got)
	}
}

func TestCandidates_EmptyCatalog(t *testing.T) {
	base := priced("A", "Laptops", 1000)
	if got := Candidates(nil, base, DefaultPriceBand()); len(got) != 0 {
		t.Errorf("Candidates(nil catalog) = %+v, want empty", got)
	}
}

func TestPriceBandValidate(t *testing.T) {
	tests := []struct {
		name    string
		band    PriceBand
		wantErr bool
	}{
		{"default", DefaultPriceBand(), false},
		{"inverted", PriceBand{Min: 1.3, Max: 0.7}, true},
		{"equal", PriceBand{Min: 1, Max: 1}, true},
		{"zero min", PriceBand{Min: 0, Max: 1.3}, true},
		{"negative", PriceBand{Min: -0.5, Max: 1.3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.band.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
