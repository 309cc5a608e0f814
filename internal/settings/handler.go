// Package settings provides HTTP handlers for runtime comparison
// settings and resolves them against the configured defaults.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/aruiz/shopsense/internal/compare"
	"github.com/aruiz/shopsense/internal/services"
)

// Setting keys stored in the settings repository.
const (
	KeyPriceBandMin = "compare.price_band_min"
	KeyPriceBandMax = "compare.price_band_max"
	KeyLimit        = "compare.limit"
	KeyDamping      = "compare.damping"
)

// CompareSettings is the wire representation of the tunable comparison
// parameters. Nil fields in a PUT leave the stored value unchanged.
type CompareSettings struct {
	PriceBandMin *float64 `json:"price_band_min,omitempty"`
	PriceBandMax *float64 `json:"price_band_max,omitempty"`
	Limit        *int     `json:"limit,omitempty"`
	Damping      *float64 `json:"damping,omitempty"`
}

// Handler provides HTTP handlers for comparison settings.
type Handler struct {
	resolver *Resolver
	repo     services.SettingsRepository
	logger   *zap.Logger
}

// NewHandler creates a settings Handler.
func NewHandler(resolver *Resolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{resolver: resolver, repo: resolver.repo, logger: logger}
}

// RegisterRoutes registers settings routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/settings/compare", h.handleGet)
	mux.HandleFunc("PUT /api/v1/settings/compare", h.handlePut)
}

// handleGet returns the effective comparison settings.
//
//	@Summary		Get comparison settings
//	@Description	Returns the effective tunables after stored overrides are applied to the configured defaults.
//	@Tags			settings
//	@Produce		json
//	@Success		200 {object} CompareSettings
//	@Failure		500 {object} map[string]any
//	@Router			/settings/compare [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	opts := h.resolver.Options(r.Context())
	writeJSON(w, http.StatusOK, CompareSettings{
		PriceBandMin: &opts.Band.Min,
		PriceBandMax: &opts.Band.Max,
		Limit:        &opts.Limit,
		Damping:      &opts.Damping,
	})
}

// handlePut stores comparison setting overrides.
//
//	@Summary		Update comparison settings
//	@Description	Stores overrides for the comparison tunables. Omitted fields keep their current value.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			settings body CompareSettings true "Settings to store"
//	@Success		200 {object} CompareSettings
//	@Failure		400 {object} map[string]any
//	@Failure		500 {object} map[string]any
//	@Router			/settings/compare [put]
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	var req CompareSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if detail, ok := validate(req, h.resolver.Options(r.Context())); !ok {
		writeError(w, http.StatusBadRequest, detail)
		return
	}

	ctx := r.Context()
	stores := []struct {
		key string
		val string
		set bool
	}{
		{KeyPriceBandMin, formatFloat(req.PriceBandMin), req.PriceBandMin != nil},
		{KeyPriceBandMax, formatFloat(req.PriceBandMax), req.PriceBandMax != nil},
		{KeyLimit, formatInt(req.Limit), req.Limit != nil},
		{KeyDamping, formatFloat(req.Damping), req.Damping != nil},
	}
	for _, s := range stores {
		if !s.set {
			continue
		}
		if err := h.repo.Set(ctx, s.key, s.val); err != nil {
			h.logger.Error("failed to store setting", zap.String("key", s.key), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store settings")
			return
		}
	}

	opts := h.resolver.Options(ctx)
	writeJSON(w, http.StatusOK, CompareSettings{
		PriceBandMin: &opts.Band.Min,
		PriceBandMax: &opts.Band.Max,
		Limit:        &opts.Limit,
		Damping:      &opts.Damping,
	})
}

// validate checks a settings update against the values that would
// result after applying it.
func validate(req CompareSettings, current compare.Options) (string, bool) {
	band := current.Band
	if req.PriceBandMin != nil {
		band.Min = *req.PriceBandMin
	}
	if req.PriceBandMax != nil {
		band.Max = *req.PriceBandMax
	}
	if err := band.Validate(); err != nil {
		return err.Error(), false
	}
	if req.Limit != nil && *req.Limit < 1 {
		return "limit must be a positive integer", false
	}
	if req.Damping != nil && *req.Damping < 0 {
		return "damping must not be negative", false
	}
	return "", true
}

// Resolver merges stored setting overrides onto base comparison
// options. Lookup errors other than ErrNotFound fall back to the base
// value and are logged.
type Resolver struct {
	repo   services.SettingsRepository
	base   compare.Options
	logger *zap.Logger
}

// NewResolver creates a Resolver over the given repository and base
// options.
func NewResolver(repo services.SettingsRepository, base compare.Options, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{repo: repo, base: base, logger: logger}
}

// Options returns the effective comparison options for a request.
func (r *Resolver) Options(ctx context.Context) compare.Options {
	opts := r.base

	if v, ok := r.float(ctx, KeyPriceBandMin); ok {
		opts.Band.Min = v
	}
	if v, ok := r.float(ctx, KeyPriceBandMax); ok {
		opts.Band.Max = v
	}
	if v, ok := r.float(ctx, KeyDamping); ok {
		opts.Damping = v
	}
	if v, ok := r.int(ctx, KeyLimit); ok {
		opts.Limit = v
	}

	if err := opts.Band.Validate(); err != nil {
		r.logger.Warn("stored price band invalid, using defaults", zap.Error(err))
		opts.Band = r.base.Band
	}
	return opts
}

func (r *Resolver) float(ctx context.Context, key string) (float64, bool) {
	raw, ok := r.lookup(ctx, key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.logger.Warn("stored setting not a number", zap.String("key", key), zap.String("value", raw))
		return 0, false
	}
	return v, true
}

func (r *Resolver) int(ctx context.Context, key string) (int, bool) {
	raw, ok := r.lookup(ctx, key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.logger.Warn("stored setting not an integer", zap.String("key", key), zap.String("value", raw))
		return 0, false
	}
	return v, true
}

func (r *Resolver) lookup(ctx context.Context, key string) (string, bool) {
	setting, err := r.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			r.logger.Warn("failed to read setting", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return setting.Value, true
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://shopsense.dev/problems/settings-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
