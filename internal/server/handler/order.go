package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quantfloor/deskd/internal/domain"
)

// DeskService defines the methods that the order handler requires from the
// service layer.
type DeskService interface {
	Submit(ctx context.Context, intent domain.OrderIntent) (domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// OrderHandler serves order-related HTTP endpoints.
type OrderHandler struct {
	desk   DeskService
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler with the given service and logger.
func NewOrderHandler(desk DeskService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		desk:   desk,
		logger: logger,
	}
}

// submitOrderRequest is the POST body for order submission. Pointer fields
// distinguish absent values from zero values so missing fields can be
// rejected before the risk checks run.
type submitOrderRequest struct {
	Instrument *string  `json:"instrument"`
	OrderType  *string  `json:"orderType"`
	Quantity   *float64 `json:"quantity"`
	Price      *float64 `json:"price"`
	Strategy   *string  `json:"strategy"`
}

// intent converts the request into a domain intent, returning a description
// of the first structural problem found. Business rules (limits, price
// ranges, restrictions) are not checked here; that is the risk engine's job.
func (req submitOrderRequest) intent() (domain.OrderIntent, string) {
	if req.Instrument == nil {
		return domain.OrderIntent{}, "instrument is required"
	}
	instrument := domain.Instrument(*req.Instrument)
	if !instrument.Valid() {
		return domain.OrderIntent{}, "unknown instrument: " + *req.Instrument
	}

	if req.OrderType == nil {
		return domain.OrderIntent{}, "orderType is required"
	}
	orderType := domain.OrderType(*req.OrderType)
	if !orderType.Valid() {
		return domain.OrderIntent{}, "unknown orderType: " + *req.OrderType
	}

	if req.Quantity == nil {
		return domain.OrderIntent{}, "quantity is required"
	}
	if *req.Quantity <= 0 {
		return domain.OrderIntent{}, "quantity must be positive"
	}

	if req.Strategy == nil {
		return domain.OrderIntent{}, "strategy is required"
	}
	strategy := domain.Strategy(*req.Strategy)
	if !strategy.Valid() {
		return domain.OrderIntent{}, "unknown strategy: " + *req.Strategy
	}

	intent := domain.OrderIntent{
		Instrument: instrument,
		OrderType:  orderType,
		Quantity:   *req.Quantity,
		Strategy:   strategy,
	}

	// Price is meaningful only for LIMIT orders.
	if orderType == domain.OrderTypeLimit {
		if req.Price == nil {
			return domain.OrderIntent{}, "price is required for LIMIT orders"
		}
		if *req.Price <= 0 {
			return domain.OrderIntent{}, "price must be positive"
		}
		intent.Price = *req.Price
	}

	return intent, ""
}

// listOrdersResponse wraps the list orders response.
type listOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// SubmitOrder runs an order intent through the full lifecycle and returns
// the settled order. A business rejection is still a 201: the order exists
// in the REJECTED state with its checklist and reason attached.
// POST /api/orders
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	intent, problem := req.intent()
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	order, err := h.desk.Submit(r.Context(), intent)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidIntent) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, "rate limited")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: submit order failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to submit order")
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetOrder returns a single order by ID.
// GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.desk.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get order failed",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// ListOrders returns the blotter, newest first.
// GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.desk.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list orders failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	writeJSON(w, http.StatusOK, listOrdersResponse{Orders: orders})
}

// DeleteOrder removes a single order from the blotter.
// DELETE /api/orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if err := h.desk.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: delete order failed",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "deleted",
		"order_id": id,
	})
}

// ClearOrders empties the blotter.
// DELETE /api/orders
func (h *OrderHandler) ClearOrders(w http.ResponseWriter, r *http.Request) {
	if err := h.desk.Clear(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: clear orders failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to clear orders")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
