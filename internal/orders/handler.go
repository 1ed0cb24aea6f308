package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/abouhashemahmed/heritage/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func identityFrom(r *http.Request) domain.Identity {
	role := r.Header.Get("X-User-Role")
	if role == "" {
		role = domain.RoleCustomer
	}
	return domain.Identity{
		UserID: r.Header.Get("X-User-ID"),
		Role:   role,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	requester := identityFrom(r)

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, replayed, err := h.service.CreateOrder(r.Context(), requester.UserID, &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if replayed {
		// Key already used; hand back the original order.
		h.logger.Info("idempotent order replay", "order_id", order.ID, "user_id", requester.UserID)
		h.writeJSON(w, http.StatusConflict, order)
		return
	}

	h.logger.Info("order created", "order_id", order.ID, "user_id", order.UserID, "total_cents", order.TotalCents)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	order, err := h.service.GetOrder(r.Context(), id, identityFrom(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type listMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type listResponse struct {
	Data []domain.Order `json:"data"`
	Meta listMeta       `json:"meta"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requester := identityFrom(r)
	if requester.UserID == "" {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	filter := listFilterFrom(r)
	filter.UserID = requester.UserID
	h.list(w, r, filter)
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	if !identityFrom(r).IsAdmin() {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	filter := listFilterFrom(r)
	h.list(w, r, filter)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	data, total, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	h.writeJSON(w, http.StatusOK, listResponse{
		Data: data,
		Meta: listMeta{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func listFilterFrom(r *http.Request) ListFilter {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return ListFilter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	}
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	requester := identityFrom(r)
	if !requester.IsAdmin() && !requester.IsService() {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, requester, &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

type flagRequest struct {
	RiskScore float64 `json:"risk_score"`
}

// HandleFlag is the internal fraud hook used by the worker.
func (h *Handler) HandleFlag(w http.ResponseWriter, r *http.Request) {
	requester := identityFrom(r)
	if !requester.IsAdmin() && !requester.IsService() {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.FlagForReview(r.Context(), id, req.RiskScore)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info("order flagged for review", "order_id", order.ID, "risk_score", req.RiskScore)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	var stockErr *domain.InsufficientStockError
	var transitionErr *domain.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		h.writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &stockErr):
		h.writeJSON(w, http.StatusConflict, map[string]string{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID.String(),
		})
	case errors.As(err, &transitionErr):
		h.writeError(w, http.StatusBadRequest, transitionErr.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrAccessDenied):
		h.writeError(w, http.StatusForbidden, "access denied")
	default:
		h.logger.Error("order operation failed", "error", err, "method", r.Method, "path", r.URL.Path)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
