package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/domain"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/event"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/guard"
	"github.com/ozanyurtsever/shopcore/services/checkout/internal/metrics"
)

// maxPriceConcurrency bounds parallel catalog price lookups per checkout.
const maxPriceConcurrency = 8

// cartClearAttempts is how often the synchronous cart clear is tried
// before checkout falls back to asynchronous reconciliation.
const cartClearAttempts = 3

// CartGateway is the checkout's view of the cart service.
type CartGateway interface {
	Fetch(ctx context.Context) ([]domain.CartLine, error)
	Clear(ctx context.Context) error
}

// PriceResolver is the checkout's view of the catalog service.
type PriceResolver interface {
	PriceOf(ctx context.Context, productID string) (*domain.PriceQuote, error)
}

// OrderGateway is the checkout's view of the order service.
type OrderGateway interface {
	Create(ctx context.Context, checkoutID, currency, total string, lines []domain.PricedLine) (*domain.PersistedOrder, error)
	FindByCheckoutID(ctx context.Context, checkoutID string) (*domain.PersistedOrder, error)
}

// EventPublisher publishes checkout events.
type EventPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, data event.CheckoutCompletedData) error
	PublishCartClearFailed(ctx context.Context, data event.CartClearFailedData) error
}

// StepTimeouts holds per-step timeout configuration for the checkout flow.
// A zero value means no per-step timeout (inherits the parent context).
type StepTimeouts struct {
	FetchCart     time.Duration
	ResolvePrices time.Duration
	PersistOrder  time.Duration
	ClearCart     time.Duration
}

// CheckoutService orchestrates the conversion of a cart into an order:
// fetch cart, resolve prices, persist order, clear cart. At most one
// checkout runs per user at a time.
type CheckoutService struct {
	cart      CartGateway
	pricing   PriceResolver
	orders    OrderGateway
	guard     guard.Guard
	publisher EventPublisher
	logger    *slog.Logger
	timeouts  StepTimeouts
}

func NewCheckoutService(
	cart CartGateway,
	pricing PriceResolver,
	orders OrderGateway,
	g guard.Guard,
	publisher EventPublisher,
	logger *slog.Logger,
	timeouts StepTimeouts,
) *CheckoutService {
	return &CheckoutService{
		cart:      cart,
		pricing:   pricing,
		orders:    orders,
		guard:     g,
		publisher: publisher,
		logger:    logger,
		timeouts:  timeouts,
	}
}

// Checkout runs one checkout attempt for the authenticated user. The
// returned receipt reports the persisted order; CartCleared is false when
// the order exists but the cart clear failed and was handed off to
// asynchronous reconciliation.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*domain.Receipt, error) {
	start := time.Now()
	receipt, err := s.checkout(ctx, userID)
	metrics.Duration.Observe(time.Since(start).Seconds())
	metrics.AttemptsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	return receipt, err
}

func (s *CheckoutService) checkout(ctx context.Context, userID string) (*domain.Receipt, error) {
	release, err := s.guard.Acquire(ctx, userID)
	if err != nil {
		if errors.Is(err, guard.ErrHeld) {
			return nil, domain.ErrConcurrentCheckout
		}
		return nil, fmt.Errorf("acquire checkout guard: %w", err)
	}
	defer release()

	checkoutID := uuid.NewString()
	log := s.logger.With(
		slog.String("checkout_id", checkoutID),
		slog.String("user_id", userID),
	)

	lines, err := s.fetchCart(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	priced, err := s.resolvePrices(ctx, lines)
	if err != nil {
		return nil, err
	}

	currency := priced[0].Currency
	total := decimal.Zero
	for _, line := range priced {
		total = total.Add(line.Subtotal())
	}

	log.InfoContext(ctx, "cart priced",
		slog.Int("lines", len(priced)),
		slog.String("total", total.String()),
		slog.String("currency", currency),
	)

	order, err := s.persistOrder(ctx, checkoutID, currency, total, priced)
	if err != nil {
		return nil, err
	}

	cleared := s.clearCart(ctx, log, checkoutID, userID, order.ID)

	receipt := &domain.Receipt{
		OrderID:     order.ID,
		Total:       total,
		Currency:    currency,
		CartCleared: cleared,
	}

	if err := s.publisher.PublishCheckoutCompleted(ctx, event.CheckoutCompletedData{
		CheckoutID:  checkoutID,
		OrderID:     order.ID,
		UserID:      userID,
		Total:       total.String(),
		Currency:    currency,
		CartCleared: cleared,
	}); err != nil {
		log.ErrorContext(ctx, "failed to publish checkout completed event",
			slog.String("error", err.Error()),
		)
	}

	log.InfoContext(ctx, "checkout completed",
		slog.String("order_id", order.ID),
		slog.Bool("cart_cleared", cleared),
	)
	return receipt, nil
}

// fetchCart reads the cart snapshot the attempt will work from.
func (s *CheckoutService) fetchCart(ctx context.Context) ([]domain.CartLine, error) {
	if s.timeouts.FetchCart > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.FetchCart)
		defer cancel()
	}
	return s.cart.Fetch(ctx)
}

// resolvePrices looks up every cart line's price concurrently. Unknown
// products and lines priced in a different currency than the rest of the
// cart are collected into one PriceResolutionError; an upstream outage
// short-circuits and is reported as such.
func (s *CheckoutService) resolvePrices(ctx context.Context, lines []domain.CartLine) ([]domain.PricedLine, error) {
	if s.timeouts.ResolvePrices > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.ResolvePrices)
		defer cancel()
	}

	priced := make([]domain.PricedLine, len(lines))

	var mu sync.Mutex
	var unresolved []string
	var unresolvedErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPriceConcurrency)

	for i, line := range lines {
		g.Go(func() error {
			quote, err := s.pricing.PriceOf(gctx, line.ProductID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					mu.Lock()
					unresolved = append(unresolved, line.ProductID)
					unresolvedErr = err
					mu.Unlock()
					return nil
				}
				return err
			}
			priced[i] = domain.PricedLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: quote.Price,
				Currency:  quote.Currency,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		return nil, &domain.PriceResolutionError{ProductIDs: unresolved, Err: unresolvedErr}
	}

	// An order carries one currency; a cart quoted in several cannot be
	// summed into a single total.
	currency := priced[0].Currency
	var mismatched []string
	for _, line := range priced {
		if line.Currency != currency {
			mismatched = append(mismatched, line.ProductID)
		}
	}
	if len(mismatched) > 0 {
		sort.Strings(mismatched)
		return nil, &domain.PriceResolutionError{ProductIDs: mismatched, Err: domain.ErrMixedCurrency}
	}
	return priced, nil
}

// persistOrder writes the order. On an ambiguous failure the outcome is
// re-queried by checkout ID: if the write actually landed, checkout
// proceeds as a success instead of double-charging a retry.
func (s *CheckoutService) persistOrder(ctx context.Context, checkoutID, currency string, total decimal.Decimal, priced []domain.PricedLine) (*domain.PersistedOrder, error) {
	createCtx := ctx
	if s.timeouts.PersistOrder > 0 {
		var cancel context.CancelFunc
		createCtx, cancel = context.WithTimeout(ctx, s.timeouts.PersistOrder)
		defer cancel()
	}

	order, err := s.orders.Create(createCtx, checkoutID, currency, total.String(), priced)
	if err == nil {
		return order, nil
	}

	var persistErr *domain.PersistenceError
	if errors.As(err, &persistErr) && persistErr.Ambiguous {
		s.logger.WarnContext(ctx, "order persist outcome unknown, re-querying",
			slog.String("checkout_id", checkoutID),
			slog.String("error", persistErr.Error()),
		)
		// The lookup runs on the parent context: the step deadline that
		// caused the ambiguity has likely already expired.
		existing, lookupErr := s.orders.FindByCheckoutID(ctx, checkoutID)
		if lookupErr == nil {
			return existing, nil
		}
		if errors.Is(lookupErr, apperrors.ErrNotFound) {
			return nil, persistErr
		}
		return nil, &domain.PersistenceError{Ambiguous: true, Err: errors.Join(persistErr.Err, lookupErr)}
	}
	return nil, err
}

// clearCart empties the cart with bounded retries. Failure does not fail
// the checkout; the cart service reconciles from the emitted event.
func (s *CheckoutService) clearCart(ctx context.Context, log *slog.Logger, checkoutID, userID, orderID string) bool {
	clearCtx := ctx
	if s.timeouts.ClearCart > 0 {
		var cancel context.CancelFunc
		clearCtx, cancel = context.WithTimeout(ctx, s.timeouts.ClearCart)
		defer cancel()
	}

	attempt := func() (struct{}, error) {
		return struct{}{}, s.cart.Clear(clearCtx)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = time.Second

	_, err := backoff.Retry(clearCtx, attempt,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(cartClearAttempts),
	)
	if err == nil {
		return true
	}

	metrics.CartClearFailures.Inc()
	log.WarnContext(ctx, "cart clear failed, deferring to reconciliation",
		slog.String("error", err.Error()),
	)

	if pubErr := s.publisher.PublishCartClearFailed(ctx, event.CartClearFailedData{
		UserID:     userID,
		OrderID:    orderID,
		CheckoutID: checkoutID,
	}); pubErr != nil {
		log.ErrorContext(ctx, "failed to publish cart clear failed event",
			slog.String("error", pubErr.Error()),
		)
	}
	return false
}

// outcomeLabel maps a checkout result to its metrics label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrEmptyCart):
		return metrics.OutcomeEmptyCart
	case errors.Is(err, domain.ErrConcurrentCheckout):
		return metrics.OutcomeConcurrentRejected
	default:
		var priceErr *domain.PriceResolutionError
		var persistErr *domain.PersistenceError
		var upstreamErr *domain.UpstreamError
		switch {
		case errors.As(err, &priceErr):
			return metrics.OutcomePriceResolution
		case errors.As(err, &persistErr):
			return metrics.OutcomePersistenceFailed
		case errors.As(err, &upstreamErr):
			return metrics.OutcomeUpstreamFailed
		default:
			return metrics.OutcomeInternal
		}
	}
}
