package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aruiz/shopsense/internal/services"
	"github.com/aruiz/shopsense/pkg/models"
)

// ListResponse is the paginated response for GET /api/v1/products.
type ListResponse struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// Handler serves the product catalog API.
type Handler struct {
	repo   services.ProductRepository
	logger *zap.Logger
}

// NewHandler creates a catalog API handler.
func NewHandler(repo services.ProductRepository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes registers catalog routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/products", h.handleList)
	mux.HandleFunc("POST /api/v1/products", h.handleCreate)
	mux.HandleFunc("GET /api/v1/products/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/v1/products/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/v1/products/{id}", h.handleDelete)
}

// handleList returns a filtered page of products.
//
//	@Summary		List products
//	@Description	Returns products filtered by category and search term, paginated.
//	@Tags			catalog
//	@Produce		json
//	@Param			category query string false "Filter by category (case-insensitive)"
//	@Param			search query string false "Match against name and description"
//	@Param			sort query string false "Sort field (name, category, base_price, created_at)"
//	@Param			order query string false "Sort order (asc, desc)" default(desc)
//	@Param			limit query int false "Page size" default(50)
//	@Param			offset query int false "Page offset" default(0)
//	@Success		200 {object} ListResponse
//	@Failure		400 {object} map[string]any
//	@Failure		500 {object} map[string]any
//	@Router			/products [get]
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := services.ListOptions{
		SortBy:    q.Get("sort"),
		SortOrder: strings.ToLower(q.Get("order")),
	}
	var err error
	if opts.Limit, err = queryInt(q.Get("limit"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if opts.Offset, err = queryInt(q.Get("offset"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	filter := services.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	result, err := h.repo.List(r.Context(), filter, opts)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	if result.Items == nil {
		result.Items = []models.Product{}
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Products: result.Items,
		Total:    result.Total,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
}

// handleGet returns a single product by ID.
//
//	@Summary		Get product
//	@Tags			catalog
//	@Produce		json
//	@Param			id path string true "Product ID"
//	@Success		200 {object} models.Product
//	@Failure		404 {object} map[string]any
//	@Router			/products/{id} [get]
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to get product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// handleCreate stores a new product.
//
//	@Summary		Create product
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			product body models.Product true "Product to create"
//	@Success		201 {object} models.Product
//	@Failure		400 {object} map[string]any
//	@Failure		409 {object} map[string]any
//	@Router			/products [post]
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if detail, ok := validateProduct(&product); !ok {
		writeError(w, http.StatusBadRequest, detail)
		return
	}

	if err := h.repo.Create(r.Context(), &product); err != nil {
		if errors.Is(err, services.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "product already exists: "+product.ID)
			return
		}
		h.logger.Error("failed to create product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// handleUpdate replaces an existing product.
//
//	@Summary		Update product
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			id path string true "Product ID"
//	@Param			product body models.Product true "Updated product"
//	@Success		200 {object} models.Product
//	@Failure		400 {object} map[string]any
//	@Failure		404 {object} map[string]any
//	@Router			/products/{id} [put]
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product.ID = r.PathValue("id")
	if detail, ok := validateProduct(&product); !ok {
		writeError(w, http.StatusBadRequest, detail)
		return
	}

	if err := h.repo.Update(r.Context(), &product); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to update product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// handleDelete removes a product.
//
//	@Summary		Delete product
//	@Tags			catalog
//	@Param			id path string true "Product ID"
//	@Success		204 "Deleted"
//	@Failure		404 {object} map[string]any
//	@Router			/products/{id} [delete]
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to delete product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validateProduct checks the fields required before a product can be
// stored. It returns a problem detail string when validation fails.
func validateProduct(p *models.Product) (string, bool) {
	if strings.TrimSpace(p.Name) == "" {
		return "name is required", false
	}
	if strings.TrimSpace(p.Category) == "" {
		return "category is required", false
	}
	if p.BasePrice.IsNegative() {
		return "base price must not be negative", false
	}
	return "", true
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://shopsense.dev/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
