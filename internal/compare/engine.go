package compare

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aruiz/shopsense/pkg/models"
)

// InvalidInputError reports a base product or catalog entry missing required
// fields. It indicates a caller or data bug, so the engine fails fast instead
// of degrading.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// Result is one ranked comparable product. Advantages and disadvantages are
// computed once per (base, candidate) pair and not mutated afterwards.
type Result struct {
	Product models.Product `json:"product"`

	// SimilarityScore is a relative ranking key: higher means more similar.
	// It is non-negative but carries no fixed upper bound.
	SimilarityScore float64 `json:"similarity_score"`

	PriceDifference decimal.Decimal `json:"price_difference"`
	PriceRatio      float64         `json:"price_ratio"`

	Advantages    []string `json:"advantages"`
	Disadvantages []string `json:"disadvantages,omitempty"`
}

// Engine ranks catalog products by comparability to a base product. It is
// stateless apart from its immutable options, so one instance can serve
// concurrent requests.
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// New creates an engine with the given options. Zero-value option fields are
// replaced with defaults.
func New(opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts.normalized(), logger: logger}
}

// Options returns the engine's effective configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// Compare filters a full catalog snapshot down to candidates within the
// engine's price band and ranks them. Catalog entries missing required
// fields fail the whole call with InvalidInputError.
func (e *Engine) Compare(base models.Product, catalog []models.Product) ([]Result, error) {
	if err := validateProduct(&base, "base product"); err != nil {
		return nil, err
	}
	for i := range catalog {
		if err := validateProduct(&catalog[i], fmt.Sprintf("catalog entry %d", i)); err != nil {
			return nil, err
		}
	}
	return e.rank(base, Candidates(catalog, base, e.opts.Band))
}

// Rank scores pre-filtered candidates against the base product and returns
// them ordered by descending similarity. An empty candidate list yields an
// empty result, not an error.
func (e *Engine) Rank(base models.Product, candidates []models.Product) ([]Result, error) {
	if err := validateProduct(&base, "base product"); err != nil {
		return nil, err
	}
	for i := range candidates {
		if err := validateProduct(&candidates[i], fmt.Sprintf("candidate %d", i)); err != nil {
			return nil, err
		}
	}
	return e.rank(base, candidates)
}

func (e *Engine) rank(base models.Product, candidates []models.Product) ([]Result, error) {
	results := make([]Result, 0, len(candidates))
	for i := range candidates {
		results = append(results, e.score(base, candidates[i]))
	}

	// Descending score; ties broken by closest price so output never depends
	// on catalog iteration order.
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].SimilarityScore != results[b].SimilarityScore {
			return results[a].SimilarityScore > results[b].SimilarityScore
		}
		return results[a].PriceDifference.Abs().Cmp(results[b].PriceDifference.Abs()) < 0
	})

	if len(results) > e.opts.Limit {
		results = results[:e.opts.Limit]
	}
	return results, nil
}

// score computes a single candidate's similarity to the base product.
func (e *Engine) score(base, cand models.Product) Result {
	res := Result{
		Product:         cand,
		PriceDifference: cand.BasePrice.Sub(base.BasePrice),
		PriceRatio:      priceRatio(base.BasePrice, cand.BasePrice),
		Advantages:      []string{},
	}

	raw := 0.0
	for _, cat := range comparedCategories(&base, &cand) {
		baseName, baseSpecs, baseOK := base.FeatureValue(cat)
		candName, candSpecs, candOK := cand.FeatureValue(cat)
		if !baseOK || !candOK {
			continue
		}

		cc := e.compareCategory(cat, attribute{baseName, baseSpecs}, attribute{candName, candSpecs})
		if !cc.compared {
			// Non-fatal: the category is treated as absent for this pair.
			e.logger.Debug("attribute not comparable",
				zap.String("category", cat),
				zap.String("base", baseName),
				zap.String("candidate", candName),
			)
			continue
		}

		raw += cc.contribution
		res.Advantages = append(res.Advantages, cc.advantages...)
		if e.opts.Disadvantages {
			res.Disadvantages = append(res.Disadvantages, cc.disadvantages...)
		}
	}

	// Price proximity: large gaps pull the score toward irrelevance even
	// when the candidate wins on specs.
	damping := 1 / math.Max(1, math.Abs(res.PriceRatio-1)*e.opts.Damping)
	score := (1 + raw) * damping
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		score = 0
	}
	res.SimilarityScore = score

	if pct := cheaperPercent(res.PriceRatio); pct > 0 {
		res.Advantages = append(res.Advantages, fmt.Sprintf("%d%% cheaper", pct))
	} else if e.opts.Disadvantages {
		if pct := dearerPercent(res.PriceRatio); pct > 0 {
			res.Disadvantages = append(res.Disadvantages, fmt.Sprintf("%d%% more expensive", pct))
		}
	}

	return res
}

// attribute is one side of a per-category comparison.
type attribute struct {
	name  string
	specs map[string]string
}

// categoryComparison is the outcome of comparing one feature category.
// compared is false when neither side parsed into a comparable magnitude.
type categoryComparison struct {
	contribution  float64
	advantages    []string
	disadvantages []string
	compared      bool
}

func (e *Engine) compareCategory(cat string, base, cand attribute) categoryComparison {
	w := e.opts.Weights

	switch cat {
	case models.FeatureProcessor:
		b, c := ProcessorRank(base.name), ProcessorRank(cand.name)
		if b == 0 && c == 0 {
			return categoryComparison{}
		}
		cc := categoryComparison{compared: true}
		cc.contribution = w.Processor * clamp(float64(c-b)/9, -1, 1)
		if c > b {
			cc.advantages = append(cc.advantages, fmt.Sprintf("%s (better performance)", cand.name))
		} else if b > c {
			cc.disadvantages = append(cc.disadvantages, fmt.Sprintf("%s (better performance)", base.name))
		}
		return cc

	case models.FeatureRAM:
		b, c := MemorySizeGB(base.name), MemorySizeGB(cand.name)
		if b == 0 && c == 0 {
			return categoryComparison{}
		}
		cc := categoryComparison{compared: true}
		cc.contribution = w.RAM * relativeDelta(b, c)
		if c > b {
			cc.advantages = append(cc.advantages, fmt.Sprintf("%dGB more RAM", c-b))
		} else if b > c {
			cc.disadvantages = append(cc.disadvantages, fmt.Sprintf("%dGB more RAM", b-c))
		}
		return cc

	case models.FeatureStorage:
		b, c := MemorySizeGB(base.name), MemorySizeGB(cand.name)
		ssdBase, ssdCand := IsSSD(base.name), IsSSD(cand.name)
		if b == 0 && c == 0 && ssdBase == ssdCand {
			return categoryComparison{}
		}
		cc := categoryComparison{compared: true}
		cc.contribution = w.Storage * relativeDelta(b, c)
		if c > b {
			cc.advantages = append(cc.advantages, fmt.Sprintf("%dGB more storage", c-b))
		} else if b > c {
			cc.disadvantages = append(cc.disadvantages, fmt.Sprintf("%dGB more storage", b-c))
		}
		// SSD beats non-SSD regardless of capacity.
		if ssdCand && !ssdBase {
			cc.contribution += w.SSDBonus
			cc.advantages = append(cc.advantages, "SSD storage (faster)")
		} else if ssdBase && !ssdCand {
			cc.contribution -= w.SSDBonus
			cc.disadvantages = append(cc.disadvantages, "SSD storage (faster)")
		}
		return cc

	case models.FeatureScreen:
		b, c := ScreenInches(base.name), ScreenInches(cand.name)
		if b == 0 && c == 0 {
			return categoryComparison{}
		}
		cc := categoryComparison{compared: true}
		cc.contribution = w.Screen * clamp((c-b)/math.Max(b, 1), -1, 1)
		if c > b {
			cc.advantages = append(cc.advantages, fmt.Sprintf(`%.1f" larger screen`, c-b))
		} else if b > c {
			cc.disadvantages = append(cc.disadvantages, fmt.Sprintf(`%.1f" larger screen`, b-c))
		}
		return cc

	case models.FeatureGraphics:
		dedBase, dedCand := IsDedicatedGraphics(base.specs), IsDedicatedGraphics(cand.specs)
		cc := categoryComparison{compared: true}
		if dedCand && !dedBase {
			cc.contribution = w.Graphics
			cc.advantages = append(cc.advantages, "Dedicated graphics")
		} else if dedBase && !dedCand {
			cc.contribution = -w.Graphics
			cc.disadvantages = append(cc.disadvantages, "Dedicated graphics")
		}
		return cc

	default:
		// Unknown categories share the residual weight. Capacity tokens are
		// the only magnitude we can extract generically.
		b, c := MemorySizeGB(base.name), MemorySizeGB(cand.name)
		if b == 0 && c == 0 {
			if strings.EqualFold(base.name, cand.name) {
				return categoryComparison{compared: true}
			}
			return categoryComparison{}
		}
		cc := categoryComparison{compared: true}
		cc.contribution = w.Other * relativeDelta(b, c)
		if c > b {
			cc.advantages = append(cc.advantages, fmt.Sprintf("Better %s: %s", cat, cand.name))
		} else if b > c {
			cc.disadvantages = append(cc.disadvantages, fmt.Sprintf("Better %s: %s", cat, base.name))
		}
		return cc
	}
}

// comparedCategories returns the feature categories present on both products,
// canonical ones first in fixed order, then the rest sorted. The fixed order
// keeps advantage lists and tie behavior deterministic.
func comparedCategories(base, cand *models.Product) []string {
	canonical := []string{
		models.FeatureProcessor,
		models.FeatureRAM,
		models.FeatureStorage,
		models.FeatureScreen,
		models.FeatureGraphics,
	}

	baseCats := base.FeatureCategories()
	candCats := cand.FeatureCategories()

	out := make([]string, 0, len(baseCats))
	seen := make(map[string]struct{}, len(canonical))
	for _, cat := range canonical {
		seen[cat] = struct{}{}
		if _, ok := baseCats[cat]; !ok {
			continue
		}
		if _, ok := candCats[cat]; !ok {
			continue
		}
		out = append(out, cat)
	}

	var extras []string
	for cat := range baseCats {
		if _, ok := seen[cat]; ok {
			continue
		}
		if _, ok := candCats[cat]; ok {
			extras = append(extras, cat)
		}
	}
	sort.Strings(extras)
	return append(out, extras...)
}

// validateProduct checks the fields the engine cannot work without.
func validateProduct(p *models.Product, field string) error {
	if p.ID == "" {
		return &InvalidInputError{Field: field, Reason: "missing id"}
	}
	if p.Category == "" {
		return &InvalidInputError{Field: field, Reason: "missing category"}
	}
	if p.BasePrice.IsNegative() {
		return &InvalidInputError{Field: field, Reason: "negative base price"}
	}
	return nil
}

// priceRatio returns candidate/base, substituting a neutral 1 when the base
// price is not positive so the ratio never becomes Inf or NaN.
func priceRatio(base, cand decimal.Decimal) float64 {
	if !base.IsPositive() {
		return 1
	}
	ratio, _ := cand.Div(base).Float64()
	return ratio
}

// relativeDelta scales an integer magnitude gap by the base magnitude,
// clamped to [-1, 1] so one huge gap cannot dominate the composite score.
func relativeDelta(base, cand int) float64 {
	return clamp(float64(cand-base)/math.Max(float64(base), 1), -1, 1)
}

func cheaperPercent(ratio float64) int {
	return int(math.Round((1 - ratio) * 100))
}

func dearerPercent(ratio float64) int {
	return int(math.Round((ratio - 1) * 100))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
