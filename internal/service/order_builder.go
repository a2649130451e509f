package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/shopspring/decimal"
	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"strings"
	"time"
)

// TotalPolicy decides where the order total comes from.
type TotalPolicy string

const (
	// TotalPolicyItemSum derives the total from the items; a client total is only checked.
	TotalPolicyItemSum TotalPolicy = "item_sum"
	// TotalPolicyClientTotal trusts the client total as sent.
	TotalPolicyClientTotal TotalPolicy = "client_total"
)

const (
	defaultDeliveryTime   = "morning"
	defaultDeliveryMethod = "delivery"
	defaultProductName    = "Unknown Product"
	deliveryLeadDays      = 2
	dateLayout            = "2006-01-02"
)

var totalTolerance = decimal.New(1, -2)

func ParseTotalPolicy(raw string) (TotalPolicy, error) {
	switch TotalPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TotalPolicyItemSum:
		return TotalPolicyItemSum, nil
	case TotalPolicyClientTotal:
		return TotalPolicyClientTotal, nil
	default:
		return "", fmt.Errorf("unknown total policy %q", raw)
	}
}

type CustomerInput struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	DeliveryDate   string `json:"deliveryDate"`
	DeliveryTime   string `json:"deliveryTime"`
	DeliveryMethod string `json:"deliveryMethod"`
	Instructions   string `json:"instructions"`
}

type ItemInput struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Variant  string          `json:"variant"`
	Price    decimal.Decimal `json:"price"`
	Quantity *int            `json:"quantity"`
	Custom   bool            `json:"custom"`
	Details  json.RawMessage `json:"details"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Customer    *CustomerInput      `json:"customer"`
	Items       []ItemInput         `json:"items"`
	Total       decimal.NullDecimal `json:"total"`
	DeliveryFee decimal.Decimal     `json:"deliveryFee"`
	CustomerID  *int                `json:"customer_id"` // admin order entry only
}

// OrderBuilder validates a checkout request and turns it into a persistable order.
type OrderBuilder struct {
	policy TotalPolicy
	now    func() time.Time
}

func NewOrderBuilder(policy TotalPolicy) *OrderBuilder {
	if policy == "" {
		policy = TotalPolicyItemSum
	}
	return &OrderBuilder{policy: policy, now: time.Now}
}

// Build returns the order with items and totals filled in; the order number is left empty.
func (b *OrderBuilder) Build(req CreateOrderRequest) (*entity.Order, error) {
	const op = "service.BuildOrder"

	if req.Customer == nil || len(req.Items) == 0 {
		return nil, apperror.Validation(op, "customer and items are required")
	}
	if req.DeliveryFee.IsNegative() {
		return nil, apperror.Validation(op, "delivery fee cannot be negative")
	}

	delivery, err := b.delivery(req.Customer)
	if err != nil {
		return nil, err
	}

	items := make([]entity.OrderItem, 0, len(req.Items))
	itemSum := decimal.Zero
	for i, in := range req.Items {
		item, err := buildItem(i+1, in)
		if err != nil {
			return nil, err
		}
		itemSum = itemSum.Add(item.TotalPrice)
		items = append(items, item)
	}

	var total decimal.Decimal
	switch b.policy {
	case TotalPolicyClientTotal:
		total = req.Total.Decimal
	default:
		total = itemSum
		if req.Total.Valid && !req.Total.Decimal.IsZero() && total.Sub(req.Total.Decimal).Abs().GreaterThan(totalTolerance) {
			return nil, apperror.Validation(op, fmt.Sprintf("order total %s does not match item total %s",
				req.Total.Decimal.StringFixed(2), total.StringFixed(2)))
		}
	}
	total = total.Round(2)

	subtotal := total.Sub(req.DeliveryFee).Round(2)
	if subtotal.IsNegative() {
		return nil, apperror.Validation(op, "order total cannot be less than the delivery fee")
	}

	var customerID *int
	if req.CustomerID != nil && *req.CustomerID > 0 {
		id := *req.CustomerID
		customerID = &id
	}

	customer := req.Customer
	return &entity.Order{
		Customer: entity.ContactSnapshot{
			FirstName: strings.TrimSpace(customer.FirstName),
			LastName:  strings.TrimSpace(customer.LastName),
			Email:     strings.TrimSpace(customer.Email),
			Phone:     strings.TrimSpace(customer.Phone),
		},
		Delivery:            delivery,
		Subtotal:            subtotal,
		DeliveryFee:         req.DeliveryFee.Round(2),
		Total:               total,
		PaymentStatus:       entity.PaymentPending,
		OrderStatus:         entity.OrderPending,
		SpecialInstructions: strings.TrimSpace(customer.Instructions),
		Items:               items,
		CustomerID:          customerID,
	}, nil
}

func (b *OrderBuilder) delivery(customer *CustomerInput) (entity.Delivery, error) {
	const op = "service.BuildOrder"

	d := entity.Delivery{
		Address: strings.TrimSpace(customer.Address),
		Date:    strings.TrimSpace(customer.DeliveryDate),
		Time:    strings.TrimSpace(customer.DeliveryTime),
		Method:  strings.ToLower(strings.TrimSpace(customer.DeliveryMethod)),
	}

	if d.Date == "" {
		d.Date = b.now().AddDate(0, 0, deliveryLeadDays).Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, d.Date); err != nil {
		return d, apperror.Validation(op, "deliveryDate must be YYYY-MM-DD")
	}
	if d.Time == "" {
		d.Time = defaultDeliveryTime
	}
	if d.Method == "" {
		d.Method = defaultDeliveryMethod
	}
	switch d.Method {
	case "delivery":
		if d.Address == "" {
			return d, apperror.Validation(op, "address is required for delivery")
		}
	case "pickup":
	default:
		return d, apperror.Validation(op, "deliveryMethod must be delivery or pickup")
	}

	return d, nil
}

func buildItem(n int, in ItemInput) (entity.OrderItem, error) {
	const op = "service.BuildOrder"

	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity < 1 {
		return entity.OrderItem{}, apperror.Validation(op, fmt.Sprintf("item %d: quantity must be at least 1", n))
	}
	if in.Price.IsNegative() {
		return entity.OrderItem{}, apperror.Validation(op, fmt.Sprintf("item %d: price cannot be negative", n))
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = defaultProductName
	}

	item := entity.OrderItem{
		ProductID:   in.ID,
		ProductName: name,
		ProductType: strings.TrimSpace(in.Type),
		VariantName: strings.TrimSpace(in.Variant),
		Quantity:    quantity,
		UnitPrice:   in.Price.Round(2),
		TotalPrice:  in.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		IsCustom:    in.Custom,
	}

	details := bytes.TrimSpace(in.Details)
	if in.Custom && len(details) > 0 && !bytes.Equal(details, []byte("null")) {
		if !json.Valid(details) {
			return entity.OrderItem{}, apperror.Validation(op, fmt.Sprintf("item %d: details must be valid JSON", n))
		}
		item.CustomDetails = append(json.RawMessage(nil), details...)
	}

	return item, nil
}
