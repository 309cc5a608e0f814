package compare

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/aruiz/shopsense/pkg/models"
)

var comparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "shopsense",
	Subsystem: "compare",
	Name:      "requests_total",
	Help:      "Comparable-product lookups by outcome.",
}, []string{"outcome"})

// CatalogSource supplies the products a comparison runs against.
type CatalogSource interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	Snapshot(ctx context.Context, category string) ([]models.Product, error)
}

// OptionsFunc resolves the comparison options for a request, letting
// stored settings override the static defaults.
type OptionsFunc func(ctx context.Context) Options

// CompareResponse is the response for GET /api/v1/products/{id}/comparable.
type CompareResponse struct {
	ProductID string   `json:"product_id"`
	Count     int      `json:"count"`
	Results   []Result `json:"results"`
}

// Handler serves the product comparison API.
type Handler struct {
	catalog  CatalogSource
	options  OptionsFunc
	notFound func(error) bool
	logger   *zap.Logger
}

// NewHandler creates a comparison API handler. notFound classifies
// catalog errors that should map to a 404 response.
func NewHandler(catalog CatalogSource, options OptionsFunc, notFound func(error) bool, logger *zap.Logger) *Handler {
	if options == nil {
		options = func(context.Context) Options { return DefaultOptions() }
	}
	if notFound == nil {
		notFound = func(error) bool { return false }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{catalog: catalog, options: options, notFound: notFound, logger: logger}
}

// RegisterRoutes registers comparison routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/products/{id}/comparable", h.handleComparable)
}

// handleComparable ranks products comparable to the given one.
//
//	@Summary		Find comparable products
//	@Description	Returns same-category products within the price band, ranked by similarity to the given product.
//	@Tags			compare
//	@Produce		json
//	@Param			id path string true "Base product ID"
//	@Param			limit query int false "Maximum results" default(10)
//	@Param			min query number false "Price band lower multiplier" default(0.7)
//	@Param			max query number false "Price band upper multiplier" default(1.3)
//	@Success		200 {object} CompareResponse
//	@Failure		400 {object} map[string]any
//	@Failure		404 {object} map[string]any
//	@Router			/products/{id}/comparable [get]
func (h *Handler) handleComparable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	opts := h.options(ctx)
	if detail, ok := applyQueryOptions(&opts, r); !ok {
		comparisonsTotal.WithLabelValues("bad_request").Inc()
		writeCompareError(w, http.StatusBadRequest, detail)
		return
	}

	base, err := h.catalog.Get(ctx, id)
	if err != nil {
		if h.notFound(err) {
			comparisonsTotal.WithLabelValues("not_found").Inc()
			writeCompareError(w, http.StatusNotFound, "product not found: "+id)
			return
		}
		h.logger.Error("failed to load base product", zap.String("id", id), zap.Error(err))
		comparisonsTotal.WithLabelValues("error").Inc()
		writeCompareError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	catalog, err := h.catalog.Snapshot(ctx, base.Category)
	if err != nil {
		h.logger.Error("failed to load catalog snapshot", zap.String("category", base.Category), zap.Error(err))
		comparisonsTotal.WithLabelValues("error").Inc()
		writeCompareError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	engine := New(opts, h.logger)
	results, err := engine.Compare(*base, catalog)
	if err != nil {
		var invalid *InvalidInputError
		if errors.As(err, &invalid) {
			comparisonsTotal.WithLabelValues("bad_request").Inc()
			writeCompareError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		h.logger.Error("comparison failed", zap.String("id", id), zap.Error(err))
		comparisonsTotal.WithLabelValues("error").Inc()
		writeCompareError(w, http.StatusInternalServerError, "comparison failed")
		return
	}

	if results == nil {
		results = []Result{}
	}
	comparisonsTotal.WithLabelValues("ok").Inc()

	writeCompareJSON(w, http.StatusOK, CompareResponse{
		ProductID: id,
		Count:     len(results),
		Results:   results,
	})
}

// applyQueryOptions overlays limit/min/max query parameters onto opts.
func applyQueryOptions(opts *Options, r *http.Request) (string, bool) {
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return "limit must be a positive integer", false
		}
		opts.Limit = n
	}
	if raw := q.Get("min"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			return "min must be a positive number", false
		}
		opts.Band.Min = f
	}
	if raw := q.Get("max"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			return "max must be a positive number", false
		}
		opts.Band.Max = f
	}
	if err := opts.Band.Validate(); err != nil {
		return err.Error(), false
	}
	return "", true
}

func writeCompareJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeCompareError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://shopsense.dev/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
