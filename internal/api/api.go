package api

import (
	"encoding/json"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"io"
	"net/http"
	"storefront-service/internal/entity"
	"storefront-service/internal/idempotency"
	"storefront-service/internal/service"
	"strings"
	"time"
)

const idempotencyHeader = "Idempotency-Key"

type OrderHandler struct {
	orderService OrderService
}

func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type statusRequest struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

// orderView is the nested shape of a single order.
type orderView struct {
	ID                  int                `json:"id"`
	OrderNumber         string             `json:"order_number"`
	Customer            customerView       `json:"customer"`
	Delivery            entity.Delivery    `json:"delivery"`
	Amounts             amountsView        `json:"amounts"`
	Status              statusView         `json:"status"`
	SpecialInstructions string             `json:"special_instructions"`
	Items               []entity.OrderItem `json:"items"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

type customerView struct {
	ID        *int   `json:"id,omitempty"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type amountsView struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

type statusView struct {
	Order   entity.OrderStatus   `json:"order"`
	Payment entity.PaymentStatus `json:"payment"`
}

func newOrderView(order *entity.Order) orderView {
	items := order.Items
	if items == nil {
		items = []entity.OrderItem{}
	}
	return orderView{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Customer: customerView{
			ID:        order.CustomerID,
			Name:      order.Customer.FullName(),
			FirstName: order.Customer.FirstName,
			LastName:  order.Customer.LastName,
			Email:     order.Customer.Email,
			Phone:     order.Customer.Phone,
		},
		Delivery: order.Delivery,
		Amounts: amountsView{
			Subtotal:    order.Subtotal,
			DeliveryFee: order.DeliveryFee,
			Total:       order.Total,
		},
		Status:              statusView{Order: order.OrderStatus, Payment: order.PaymentStatus},
		SpecialInstructions: order.SpecialInstructions,
		Items:               items,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
}

// CreateOrder reads the raw body so a replayed Idempotency-Key can be matched to its payload.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	const op = "api.CreateOrder"
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return invalidJSON(op, err)
	}

	req := service.CreateOrderRequest{}
	if err := json.Unmarshal(body, &req); err != nil {
		return invalidJSON(op, err)
	}
	req.CustomerID = nil

	key := strings.TrimSpace(c.Request().Header.Get(idempotencyHeader))
	fingerprint := ""
	if key != "" {
		fingerprint = idempotency.Fingerprint(body)
	}

	receipt, err := h.orderService.CreateOrder(ctx, req, key, fingerprint)
	if err != nil {
		return err
	}

	if receipt.Replayed {
		c.Response().Header().Set("Idempotent-Replayed", "true")
	}
	return respond(c, http.StatusCreated, "Order created successfully", receipt)
}

// GetOrders serves ?action=list (the 50 newest orders) and ?action=single&id=N.
func (h *OrderHandler) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()

	switch c.QueryParam("action") {
	case "", "list":
		orders, err := h.orderService.ListRecentOrders(ctx)
		if err != nil {
			return err
		}
		if orders == nil {
			orders = []entity.OrderSummary{}
		}
		return respond(c, http.StatusOK, "", orders)
	case "single":
		return h.singleOrder(c)
	default:
		return invalidAction("api.GetOrders")
	}
}

func (h *OrderHandler) singleOrder(c echo.Context) error {
	id, err := queryID(c)
	if err != nil {
		return err
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", newOrderView(order))
}

// UpdateOrderStatus handles PUT ?id=N with {"status": ..., "type": "order"|"payment"}.
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := queryID(c)
	if err != nil {
		return err
	}

	req := statusRequest{}
	if err := c.Bind(&req); err != nil {
		return invalidJSON("api.UpdateOrderStatus", err)
	}

	if err := h.orderService.UpdateStatus(c.Request().Context(), id, req.Status, req.Type); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Order status updated successfully", nil)
}
