package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/pkg/httputil"
	"github.com/ozanyurtsever/shopcore/pkg/middleware"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/domain"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/service"
)

// CheckoutHandler handles HTTP requests for checkout.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// CheckoutResponse is the JSON body of a successful checkout. Warning is
// set when the order was placed but the cart could not be emptied yet.
type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
	CartCleared bool   `json:"cart_cleared"`
	Warning     string `json:"warning,omitempty"`
}

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	receipt, err := h.service.Checkout(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, translateError(err), h.logger)
		return
	}

	resp := CheckoutResponse{
		OrderID:     receipt.OrderID,
		Total:       receipt.Total.String(),
		Currency:    receipt.Currency,
		CartCleared: receipt.CartCleared,
	}
	if !receipt.CartCleared {
		resp.Warning = "order placed but cart could not be cleared; it will be emptied shortly"
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: resp})
}

// translateError maps checkout flow errors onto the shared error
// vocabulary so httputil picks the right status code.
func translateError(err error) error {
	var priceErr *domain.PriceResolutionError
	var persistErr *domain.PersistenceError
	var upstreamErr *domain.UpstreamError

	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return apperrors.Unprocessable("cart is empty")
	case errors.Is(err, domain.ErrConcurrentCheckout):
		return apperrors.Conflict("another checkout is already in progress")
	case errors.As(err, &priceErr):
		return apperrors.Unprocessable(priceErr.Error())
	case errors.As(err, &persistErr):
		return apperrors.Internal(persistErr)
	case errors.As(err, &upstreamErr):
		return apperrors.ServiceUnavailable(upstreamErr.Error())
	default:
		return err
	}
}
