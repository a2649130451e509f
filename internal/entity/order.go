package entity

import (
	"encoding/json"
	"github.com/shopspring/decimal"
	"time"
)

type Order struct {
	ID                  int             `json:"id"`
	OrderNumber         string          `json:"order_number"`
	CustomerID          *int            `json:"customer_id,omitempty"` // guest checkout leaves this empty
	Customer            ContactSnapshot `json:"customer"`
	Delivery            Delivery        `json:"delivery"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee"`
	Total               decimal.Decimal `json:"total_amount"`
	PaymentStatus       PaymentStatus   `json:"payment_status"`
	OrderStatus         OrderStatus     `json:"order_status"`
	SpecialInstructions string          `json:"special_instructions"`
	IdempotencyKey      string          `json:"-"`
	Items               []OrderItem     `json:"items"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ContactSnapshot is the customer contact data copied onto the order at intake.
type ContactSnapshot struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// FullName joins first and last name the way the admin listing shows it.
func (c ContactSnapshot) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Delivery struct {
	Address string `json:"address"`
	Date    string `json:"date"` // YYYY-MM-DD
	Time    string `json:"time"`
	Method  string `json:"method"`
}

// OrderItem snapshots product name, type and variant so historical orders survive catalog edits.
type OrderItem struct {
	ID            int             `json:"id"`
	OrderID       int             `json:"order_id"`
	ProductID     int             `json:"product_id"`
	ProductName   string          `json:"product_name"`
	ProductType   string          `json:"product_type"`
	VariantName   string          `json:"variant_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	IsCustom      bool            `json:"is_custom"`
	CustomDetails json.RawMessage `json:"custom_details,omitempty"`
}

// OrderSummary is one row of the recent-orders listing.
type OrderSummary struct {
	ID             int             `json:"id"`
	OrderNumber    string          `json:"order_number"`
	CustomerName   string          `json:"customer_name"`
	CustomerEmail  string          `json:"customer_email"`
	CustomerPhone  string          `json:"customer_phone"`
	Total          decimal.Decimal `json:"total_amount"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	DeliveryDate   string          `json:"delivery_date"`
	DeliveryMethod string          `json:"delivery_method"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	OrderStatus    OrderStatus     `json:"order_status"`
	ItemCount      int             `json:"item_count"`
	ItemsSummary   string          `json:"items_summary"`
	CreatedAt      time.Time       `json:"created_at"`
}

// OrderFilter holds the optional admin listing predicates; empty fields are ignored.
type OrderFilter struct {
	Status        string
	PaymentStatus string
	Search        string
}

/*
Mysql Table

CREATE TABLE orders (
	id INT AUTO_INCREMENT PRIMARY KEY,
	order_number VARCHAR(32) NOT NULL UNIQUE,
	customer_id INT NULL,
	...
	payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	order_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	idempotency_key VARCHAR(255) NULL UNIQUE
);

CREATE TABLE order_items (
	id INT AUTO_INCREMENT PRIMARY KEY,
	order_id INT NOT NULL REFERENCES orders(id),
	product_id INT NOT NULL,
	...
	custom_details JSON NULL
);

See migrations for the full schema.
*/
