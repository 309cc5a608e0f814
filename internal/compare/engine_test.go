package compare

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/aruiz/shopsense/pkg/models"
)

// laptop builds a laptop product with the given default configuration.
func laptop(id string, price int64, config map[string]string) models.Product {
	return models.Product{
		ID:                   id,
		Name:                 id,
		Category:             "Laptops",
		BasePrice:            decimal.NewFromInt(price),
		DefaultConfiguration: config,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(DefaultOptions(), nil)
}

func TestRank_EmptyCandidates(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, nil)

	got, err := e.Rank(base, nil)
	if err != nil {
		t.Fatalf("Rank() error = %v, want nil for empty candidate set", err)
	}
	if len(got) != 0 {
		t.Errorf("Rank() = %d results, want 0", len(got))
	}
}

func TestRank_InvalidBase(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name string
		base models.Product
	}{
		{"missing id", models.Product{Category: "Laptops"}},
		{"missing category", models.Product{ID: "A"}},
		{"negative price", models.Product{ID: "A", Category: "Laptops", BasePrice: decimal.NewFromInt(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Rank(tt.base, nil)
			var iie *InvalidInputError
			if !errors.As(err, &iie) {
				t.Errorf("Rank() error = %v, want InvalidInputError", err)
			}
		})
	}
}

func TestCompare_InvalidCatalogEntryFailsFast(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, nil)
	catalog := []models.Product{
		laptop("B", 1100, nil),
		{ID: "broken", BasePrice: decimal.NewFromInt(900)}, // no category
	}

	_, err := e.Compare(base, catalog)
	var iie *InvalidInputError
	if !errors.As(err, &iie) {
		t.Fatalf("Compare() error = %v, want InvalidInputError for malformed catalog entry", err)
	}
}

func TestRank_NeverIncludesSelf(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, nil)
	catalog := []models.Product{base, laptop("B", 1000, nil)}

	got, err := e.Compare(base, catalog)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	for _, r := range got {
		if r.Product.ID == base.ID {
			t.Errorf("result list contains the base product %q", base.ID)
		}
	}
}

func TestRank_RAMAdvantageText(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, map[string]string{"ram": "8GB"})
	cand := laptop("B", 1000, map[string]string{"ram": "16GB"})

	got, err := e.Rank(base, []models.Product{cand})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Rank() = %d results, want 1", len(got))
	}
	if !containsString(got[0].Advantages, "8GB more RAM") {
		t.Errorf("Advantages = %v, want entry %q", got[0].Advantages, "8GB more RAM")
	}
}

func TestRank_SSDBonus(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, map[string]string{"storage": "512GB HDD"})
	ssd := laptop("B", 1000, map[string]string{"storage": "512GB SSD"})
	hdd := laptop("C", 1000, map[string]string{"storage": "512GB HDD"})

	got, err := e.Rank(base, []models.Product{hdd, ssd})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Rank() = %d results, want 2", len(got))
	}

	if got[0].Product.ID != "B" {
		t.Fatalf("top result = %q, want the SSD candidate", got[0].Product.ID)
	}
	if got[0].SimilarityScore <= got[1].SimilarityScore {
		t.Errorf("SSD score %g not strictly above HDD score %g",
			got[0].SimilarityScore, got[1].SimilarityScore)
	}
	if !containsString(got[0].Advantages, "SSD storage (faster)") {
		t.Errorf("Advantages = %v, want SSD mention", got[0].Advantages)
	}
}

func TestRank_ProcessorAdvantage(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, map[string]string{"processor": "Intel Core i5"})
	cand := laptop("B", 1000, map[string]string{"processor": "Intel Core i7"})

	got, err := e.Rank(base, []models.Product{cand})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !containsString(got[0].Advantages, "Intel Core i7 (better performance)") {
		t.Errorf("Advantages = %v, want processor advantage text", got[0].Advantages)
	}
	if got[0].SimilarityScore <= 1 {
		t.Errorf("score = %g, want above neutral 1 for a spec advantage at equal price", got[0].SimilarityScore)
	}
}

func TestRank_DisadvantagesSymmetric(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, map[string]string{"ram": "16GB"})
	cand := laptop("B", 1000, map[string]string{"ram": "8GB"})

	got, err := e.Rank(base, []models.Product{cand})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !containsString(got[0].Disadvantages, "8GB more RAM") {
		t.Errorf("Disadvantages = %v, want base RAM win recorded", got[0].Disadvantages)
	}
}

func TestRank_PriceDampeningTieBreak(t *testing.T) {
	// Identical spec advantages; the closer-priced candidate must rank first.
	e := newTestEngine(t)
	base := laptop("A", 1000, map[string]string{"ram": "8GB"})
	near := laptop("near", 1010, map[string]string{"ram": "16GB"})
	far := laptop("far", 1290, map[string]string{"ram": "16GB"})

	got, err := e.Rank(base, []models.Product{far, near})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got[0].Product.ID != "near" {
		t.Errorf("top result = %q, want the 1.01x candidate ahead of the 1.29x one", got[0].Product.ID)
	}
}

func TestRank_CheaperAdvantage(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, nil)
	cand := laptop("B", 800, nil)

	got, err := e.Rank(base, []models.Product{cand})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !containsString(got[0].Advantages, "20% cheaper") {
		t.Errorf("Advantages = %v, want %q", got[0].Advantages, "20% cheaper")
	}
	if got[0].PriceDifference.IntPart() != -200 {
		t.Errorf("PriceDifference = %s, want -200", got[0].PriceDifference)
	}
	if got[0].PriceRatio != 0.8 {
		t.Errorf("PriceRatio = %g, want 0.8", got[0].PriceRatio)
	}
}

func TestRank_ZeroBasePriceNeutralRatio(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 0, nil)
	cand := laptop("B", 500, nil)

	got, err := e.Rank(base, []models.Product{cand})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got[0].PriceRatio != 1 {
		t.Errorf("PriceRatio = %g, want neutral 1 when base price is zero", got[0].PriceRatio)
	}
	if got[0].SimilarityScore < 0 {
		t.Errorf("SimilarityScore = %g, must never be negative", got[0].SimilarityScore)
	}
}

func TestRank_Monotonicity(t *testing.T) {
	// Two candidates identical except RAM: strictly more RAM never scores lower.
	e := newTestEngine(t)
	base := laptop("A", 1000, map[string]string{"ram": "8GB"})
	more := laptop("more", 1000, map[string]string{"ram": "32GB"})
	less := laptop("less", 1000, map[string]string{"ram": "16GB"})

	got, err := e.Rank(base, []models.Product{less, more})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	scores := map[string]float64{}
	for _, r := range got {
		scores[r.Product.ID] = r.SimilarityScore
	}
	if scores["more"] < scores["less"] {
		t.Errorf("32GB candidate scored %g below 16GB candidate %g", scores["more"], scores["less"])
	}
}

func TestRank_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, map[string]string{
		"ram":     "8GB",
		"storage": "256GB SSD",
		"battery": "45Wh",
	})
	candidates := []models.Product{
		laptop("B", 1100, map[string]string{"ram": "16GB", "storage": "512GB SSD", "battery": "65Wh"}),
		laptop("C", 950, map[string]string{"ram": "8GB", "storage": "256GB SSD"}),
		laptop("D", 1050, map[string]string{"ram": "8GB", "storage": "1TB HDD", "battery": "45Wh"}),
	}

	first, err := e.Rank(base, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	second, err := e.Rank(base, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two Rank() calls with identical input produced different output")
	}
}

func TestRank_SortOrder(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, map[string]string{"ram": "8GB"})
	candidates := []models.Product{
		laptop("B", 1200, map[string]string{"ram": "16GB"}),
		laptop("C", 900, map[string]string{"ram": "4GB"}),
		laptop("D", 1000, map[string]string{"ram": "8GB"}),
		laptop("E", 1010, map[string]string{"ram": "8GB"}),
	}

	got, err := e.Rank(base, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if cur.SimilarityScore > prev.SimilarityScore {
			t.Errorf("scores not non-increasing: %g before %g", prev.SimilarityScore, cur.SimilarityScore)
		}
		if cur.SimilarityScore == prev.SimilarityScore {
			if prev.PriceDifference.Abs().Cmp(cur.PriceDifference.Abs()) > 0 {
				t.Errorf("tie not broken by closest price: |%s| before |%s|",
					prev.PriceDifference, cur.PriceDifference)
			}
		}
	}
}

func TestRank_LimitTruncation(t *testing.T) {
	opts := DefaultOptions()
	opts.Limit = 2
	e := New(opts, nil)

	base := laptop("A", 1000, nil)
	candidates := []models.Product{
		laptop("B", 1000, nil),
		laptop("C", 1010, nil),
		laptop("D", 1020, nil),
	}

	got, err := e.Rank(base, candidates)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Rank() = %d results, want 2 (limit)", len(got))
	}
}

func TestRank_MalformedAttributeDegradesGracefully(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, map[string]string{"ram": "banana", "storage": "512GB SSD"})
	cand := laptop("B", 1000, map[string]string{"ram": "also nonsense", "storage": "1TB SSD"})

	got, err := e.Rank(base, []models.Product{cand})
	if err != nil {
		t.Fatalf("Rank() error = %v, malformed attributes must not abort the ranking", err)
	}
	// The unparseable RAM category is skipped; storage still compares.
	if !containsString(got[0].Advantages, "512GB more storage") {
		t.Errorf("Advantages = %v, want storage comparison to survive", got[0].Advantages)
	}
	for _, a := range got[0].Advantages {
		if strings.Contains(a, "RAM") {
			t.Errorf("Advantages = %v, RAM category should have been skipped", got[0].Advantages)
		}
	}
}

func TestRank_SelectedComponentOverridesDefault(t *testing.T) {
	e := newTestEngine(t)
	base := laptop("A", 1000, map[string]string{"ram": "8GB"})
	cand := models.Product{
		ID:        "B",
		Name:      "B",
		Category:  "Laptops",
		BasePrice: decimal.NewFromInt(1000),
		Features: map[string]models.FeatureSlot{
			"ram": {Selected: &models.Component{Name: "32GB DDR5"}},
		},
		DefaultConfiguration: map[string]string{"ram": "8GB"},
	}

	got, err := e.Rank(base, []models.Product{cand})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !containsString(got[0].Advantages, "24GB more RAM") {
		t.Errorf("Advantages = %v, want selected component (32GB) to win over default (8GB)", got[0].Advantages)
	}
}

func TestRank_GraphicsAdvantage(t *testing.T) {
	e := newTestEngine(t)
	base := models.Product{
		ID: "A", Name: "A", Category: "Laptops", BasePrice: decimal.NewFromInt(1000),
		Features: map[string]models.FeatureSlot{
			"graphics": {Selected: &models.Component{Name: "Iris Xe", Specs: map[string]string{"type": "integrated"}}},
		},
	}
	cand := models.Product{
		ID: "B", Name: "B", Category: "Laptops", BasePrice: decimal.NewFromInt(1000),
		Features: map[string]models.FeatureSlot{
			"graphics": {Selected: &models.Component{Name: "RTX 4060", Specs: map[string]string{"type": "Dedicada"}}},
		},
	}

	got, err := e.Rank(base, []models.Product{cand})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if !containsString(got[0].Advantages, "Dedicated graphics") {
		t.Errorf("Advantages = %v, want dedicated graphics advantage", got[0].Advantages)
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
