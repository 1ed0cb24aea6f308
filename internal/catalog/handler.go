package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/abouhashemahmed/heritage/internal/domain"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func isAdmin(r *http.Request) bool {
	role := r.Header.Get("X-User-Role")
	return role == "admin" || role == "service"
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

type createProductRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.PriceCents <= 0 {
		h.writeError(w, http.StatusBadRequest, "price_cents must be positive")
		return
	}
	if req.Stock < 0 {
		h.writeError(w, http.StatusBadRequest, "stock must not be negative")
		return
	}

	product := &domain.Product{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
	}
	if err := h.repo.Create(r.Context(), product); err != nil {
		h.logger.Error("failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "name", product.Name)
	h.writeJSON(w, http.StatusCreated, product)
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleRestock(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		h.writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	product, err := h.repo.Restock(r.Context(), id, req.Quantity)
	if err != nil {
		h.logger.Error("failed to restock product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product restocked", "product_id", id, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, product)
}

type updatePriceRequest struct {
	PriceCents int64 `json:"price_cents"`
}

func (h *Handler) HandleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PriceCents <= 0 {
		h.writeError(w, http.StatusBadRequest, "price_cents must be positive")
		return
	}

	product, err := h.repo.UpdatePrice(r.Context(), id, req.PriceCents)
	if err != nil {
		h.logger.Error("failed to update price", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product price updated", "product_id", id, "price_cents", req.PriceCents)
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
