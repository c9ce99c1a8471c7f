package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ozanyurtsever/shopcore/pkg/httputil"
	"github.com/ozanyurtsever/shopcore/pkg/middleware"
	"github.com/ozanyurtsever/shopcore/pkg/pagination"
	"github.com/ozanyurtsever/shopcore/pkg/validator"
	"github.com/ozanyurtsever/shopcore/services/order/internal/service"
)

// maxBodySize limits request bodies to 1MB.
const maxBodySize = 1 << 20

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// CreateOrderItemRequest is one item line of an order creation request.
type CreateOrderItemRequest struct {
	ProductID       string `json:"product_id" validate:"required"`
	Quantity        int    `json:"quantity" validate:"required,min=1"`
	PriceAtPurchase string `json:"price_at_purchase" validate:"required"`
}

// CreateOrderRequest is the JSON request body for order creation. It is
// issued by the checkout service, not by end users directly.
type CreateOrderRequest struct {
	CheckoutID string                   `json:"checkout_id" validate:"required"`
	Total      string                   `json:"total" validate:"required"`
	Currency   string                   `json:"currency" validate:"required,len=3"`
	Items      []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	userID := middleware.UserIDFromContext(r.Context())

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	total, err := decimal.NewFromString(req.Total)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid total: " + err.Error()},
		})
		return
	}

	input := service.CreateOrderInput{
		UserID:     userID,
		CheckoutID: req.CheckoutID,
		Total:      total,
		Currency:   req.Currency,
	}
	for _, item := range req.Items {
		price, err := decimal.NewFromString(item.PriceAtPurchase)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid item price: " + err.Error()},
			})
			return
		}
		input.Items = append(input.Items, service.CreateOrderItemInput{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: price,
		})
	}

	order, err := h.service.Create(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	order, err := h.service.Get(r.Context(), userID, orderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// GetByCheckoutID handles GET /api/v1/orders/by-checkout/{checkoutID}.
// The checkout service uses it to resolve ambiguous persist outcomes.
func (h *OrderHandler) GetByCheckoutID(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "checkoutID")

	order, err := h.service.GetByCheckoutID(r.Context(), checkoutID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	params := pagination.FromRequest(r)

	result, err := h.service.List(r.Context(), userID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
