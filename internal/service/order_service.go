package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"os"
	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/events"
	"storefront-service/internal/idempotency"
	"storefront-service/internal/query"
	"storefront-service/internal/repository"
	"strings"
	"time"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// TransitionMode selects how status updates are checked.
type TransitionMode string

const (
	// TransitionsLenient stores any non-empty label as sent.
	TransitionsLenient TransitionMode = "lenient"
	// TransitionsStrict accepts only known labels and moves allowed from the current status.
	TransitionsStrict TransitionMode = "strict"
)

const (
	recentOrdersLimit = 50
	createAttempts    = 3
	contentionBackoff = 50 * time.Millisecond
)

func ParseTransitionMode(raw string) (TransitionMode, error) {
	switch TransitionMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TransitionsLenient:
		return TransitionsLenient, nil
	case TransitionsStrict:
		return TransitionsStrict, nil
	default:
		return "", fmt.Errorf("unknown transition mode %q", raw)
	}
}

// OrderReceipt is what a successful checkout returns, and what an idempotent replay repeats.
type OrderReceipt struct {
	OrderID     int             `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
	Replayed    bool            `json:"-"`
}

// OrderService is a service that provides order-related operations
type OrderService struct {
	orderRepo   OrderStore
	builder     *OrderBuilder
	numbers     *OrderNumberGenerator
	publisher   events.Publisher
	keys        idempotency.Store
	transitions TransitionMode
	backoff     time.Duration
}

// NewOrderService creates a new instance of OrderService. keys may be nil, in which case
// Idempotency-Key headers are ignored.
func NewOrderService(orderRepo OrderStore, builder *OrderBuilder, publisher events.Publisher, keys idempotency.Store, transitions TransitionMode) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if transitions == "" {
		transitions = TransitionsLenient
	}
	return &OrderService{
		orderRepo:   orderRepo,
		builder:     builder,
		numbers:     NewOrderNumberGenerator(),
		publisher:   publisher,
		keys:        keys,
		transitions: transitions,
		backoff:     contentionBackoff,
	}
}

// CreateOrder validates the request, writes order and items atomically and publishes an
// order-created event. A repeated idempotency key replays the first receipt.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey, fingerprint string) (*OrderReceipt, error) {
	order, err := s.builder.Build(req)
	if err != nil {
		return nil, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	order.IdempotencyKey = idempotencyKey
	reserved := false
	if idempotencyKey != "" && s.keys != nil {
		receipt, owned, err := s.reserveKey(ctx, idempotencyKey, fingerprint)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}
		reserved = owned
	}

	createdOrder, err := s.persist(ctx, order)
	if err != nil && idempotencyKey != "" && repository.IsDuplicateIdempotencyKey(err) {
		return s.replayStoredOrder(ctx, idempotencyKey, fingerprint, reserved)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error creating order")
		if reserved {
			s.releaseKey(ctx, idempotencyKey)
		}
		return nil, err
	}

	receipt := &OrderReceipt{
		OrderID:     createdOrder.ID,
		OrderNumber: createdOrder.OrderNumber,
		Total:       createdOrder.Total,
	}

	if reserved {
		s.completeKey(ctx, idempotencyKey, fingerprint, receipt)
	}

	s.publishOrderEvent(ctx, events.NewOrderCreated(createdOrder))

	logger.Info().Int("order_id", receipt.OrderID).Str("order_number", receipt.OrderNumber).Msg("Order created")
	return receipt, nil
}

// reserveKey returns a receipt to replay, or reports whether this request now owns the key.
// A store outage does not block checkout; the unique idempotency_key column still guards it.
func (s *OrderService) reserveKey(ctx context.Context, key, fingerprint string) (*OrderReceipt, bool, error) {
	const op = "service.CreateOrder"

	reservation, err := s.keys.Reserve(ctx, key, fingerprint)
	if errors.Is(err, idempotency.ErrFingerprintMismatch) {
		return nil, false, apperror.Wrap(apperror.KindConflict, op, err, "Idempotency-Key was already used for a different request")
	}
	if err != nil {
		logger.Warn().Err(err).Msgf("Idempotency store unavailable for key %s", key)
		return nil, false, nil
	}
	if reservation.New {
		return nil, true, nil
	}

	if reservation.Record.Status != idempotency.StatusCompleted {
		return nil, false, apperror.Conflict(op, "a request with this Idempotency-Key is already being processed")
	}

	var receipt OrderReceipt
	if err := json.Unmarshal(reservation.Record.Result, &receipt); err != nil {
		return nil, false, apperror.Wrap(apperror.KindInternal, op, err, "could not replay previous result")
	}
	receipt.Replayed = true
	return &receipt, false, nil
}

// replayStoredOrder answers a key whose order is already committed but whose redis record
// was lost or never completed.
func (s *OrderService) replayStoredOrder(ctx context.Context, key, fingerprint string, reserved bool) (*OrderReceipt, error) {
	existing, err := s.orderRepo.GetOrderByIdempotencyKey(ctx, key)
	if err != nil {
		logger.Error().Err(err).Msgf("Error loading order for idempotency key %s", key)
		if reserved {
			s.releaseKey(ctx, key)
		}
		return nil, err
	}

	receipt := &OrderReceipt{
		OrderID:     existing.ID,
		OrderNumber: existing.OrderNumber,
		Total:       existing.Total,
	}
	if reserved {
		s.completeKey(ctx, key, fingerprint, receipt)
	}

	logger.Info().Int("order_id", receipt.OrderID).Msgf("Replayed order for idempotency key %s", key)
	receipt.Replayed = true
	return receipt, nil
}

// completeKey stores the receipt, trying twice. If both fail the pending reservation is
// dropped so a retry reaches the idempotency_key column and replays from the database.
func (s *OrderService) completeKey(ctx context.Context, key, fingerprint string, receipt *OrderReceipt) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = s.keys.Complete(ctx, key, fingerprint, receipt); err == nil {
			return
		}
	}
	logger.Error().Err(err).Msgf("Error storing result for idempotency key %s", key)
	s.releaseKey(ctx, key)
}

func (s *OrderService) releaseKey(ctx context.Context, key string) {
	if err := s.keys.Release(ctx, key); err != nil {
		logger.Error().Err(err).Msgf("Error releasing idempotency key %s", key)
	}
}

// persist retries order number collisions with a fresh number and deadlocks with a short
// linear backoff.
func (s *OrderService) persist(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		order.OrderNumber = s.numbers.Next()

		createdOrder, err := s.orderRepo.CreateOrder(ctx, order)
		if err == nil {
			return createdOrder, nil
		}
		lastErr = err

		switch {
		case repository.IsDuplicateOrderNumber(err):
			logger.Warn().Msgf("Order number %s already taken, attempt %d", order.OrderNumber, attempt)
		case repository.IsContention(err):
			logger.Warn().Err(err).Msgf("Store contention creating order, attempt %d", attempt)
			if attempt < createAttempts {
				select {
				case <-ctx.Done():
					return nil, apperror.Wrap(apperror.KindConnection, "service.CreateOrder", ctx.Err(), "request cancelled")
				case <-time.After(s.backoff * time.Duration(attempt)):
				}
			}
		default:
			return nil, err
		}
	}
	return nil, lastErr
}

// UpdateStatus sets the order or payment status of one order.
func (s *OrderService) UpdateStatus(ctx context.Context, id int, rawStatus, rawType string) error {
	const op = "service.UpdateStatus"

	statusType := entity.ParseStatusType(rawType)

	status := strings.TrimSpace(rawStatus)
	if status == "" {
		return apperror.Validation(op, "status is required")
	}

	current := ""
	if s.transitions == TransitionsStrict {
		status = strings.ToLower(status)
		if !validStatus(statusType, status) {
			return apperror.Validation(op, fmt.Sprintf("invalid %s status %q", statusType, rawStatus))
		}

		var err error
		current, err = s.orderRepo.GetOrderStatus(ctx, id, statusType)
		if err != nil {
			if apperror.Is(err, apperror.KindNotFound) {
				return apperror.NotFound(op, "order not found")
			}
			logger.Error().Err(err).Msgf("Error reading status of order %d", id)
			return err
		}
		if !canTransition(statusType, current, status) {
			return apperror.Validation(op, fmt.Sprintf("cannot change %s status from %s to %s", statusType, current, status))
		}
	}

	affected, err := s.orderRepo.UpdateOrderStatus(ctx, id, statusType, status, current)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating status of order %d", id)
		return err
	}
	if affected == 0 {
		if current != "" {
			return apperror.Conflict(op, "order status changed concurrently, please retry")
		}
		return apperror.NotFound(op, "order not found")
	}

	s.publishOrderEvent(ctx, events.NewStatusChanged(id, statusType, status))
	return nil
}

func validStatus(statusType entity.StatusType, status string) bool {
	if statusType == entity.StatusTypePayment {
		return entity.PaymentStatus(status).Valid()
	}
	return entity.OrderStatus(status).Valid()
}

func canTransition(statusType entity.StatusType, from, to string) bool {
	if statusType == entity.StatusTypePayment {
		return entity.PaymentStatus(from).CanTransitionTo(entity.PaymentStatus(to))
	}
	return entity.OrderStatus(from).CanTransitionTo(entity.OrderStatus(to))
}

func (s *OrderService) GetOrder(ctx context.Context, id int) (*entity.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NotFound("service.GetOrder", "order not found")
		}
		logger.Error().Err(err).Msgf("Error getting order by ID %d", id)
		return nil, err
	}
	return order, nil
}

// ListRecentOrders returns the 50 newest orders with item summaries.
func (s *OrderService) ListRecentOrders(ctx context.Context) ([]entity.OrderSummary, error) {
	orders, err := s.orderRepo.ListRecentOrders(ctx, recentOrdersLimit)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing recent orders")
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f entity.OrderFilter, page query.Page) ([]entity.Order, query.Pagination, error) {
	orders, total, err := s.orderRepo.ListOrders(ctx, f, page)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, query.Pagination{}, err
	}
	return orders, query.NewPagination(page, total), nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id int) error {
	if err := s.orderRepo.DeleteOrder(ctx, id); err != nil {
		if !apperror.Is(err, apperror.KindNotFound) {
			logger.Error().Err(err).Msgf("Error deleting order %d", id)
		}
		return err
	}
	return nil
}

// publishOrderEvent runs after commit; a broker failure is logged and never fails the request.
func (s *OrderService) publishOrderEvent(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Error().Err(err).Msgf("Error publishing event %s", event.Key())
	}
}
