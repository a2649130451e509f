package entity

import (
	"github.com/shopspring/decimal"
	"time"
)

func init() {
	// Monetary fields go out as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

type Product struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Type         string           `json:"type"`
	Price        decimal.Decimal  `json:"price"`
	Description  string           `json:"description"`
	Image        string           `json:"image"`
	Featured     bool             `json:"featured"`
	Status       string           `json:"status"`
	VariantCount int              `json:"variant_count"`
	Variants     []ProductVariant `json:"variants"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Active reports whether the product may be shown to customers.
func (p Product) Active() bool {
	return p.Status == ProductStatusActive
}

type ProductVariant struct {
	ID            int             `json:"id"`
	ProductID     int             `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

type ProductImage struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	Path      string `json:"image_path"`
	SortOrder int    `json:"sort_order"`
	IsPrimary bool   `json:"is_primary"`
}

// ProductView is the denormalized catalog entry served to customers.
type ProductView struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	Variants    []VariantView   `json:"variants"`
	Featured    bool            `json:"featured"`
}

// FeaturedProductView is the abbreviated featured entry: primary image only, no variants.
type FeaturedProductView struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	Featured    bool            `json:"featured"`
}

type VariantView struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ProductFilter holds the optional admin listing predicates; empty fields are ignored.
type ProductFilter struct {
	Search   string
	Category string
	Status   string
}

/*
Schema MySQL for product tables:
CREATE TABLE `products` (
  `id` int(11) NOT NULL AUTO_INCREMENT,
  `name` varchar(255) NOT NULL,
  `type` varchar(100) NOT NULL,
  `price` decimal(10,2) NOT NULL,
  `description` text NOT NULL,
  `image` varchar(255) NULL,
  `featured` tinyint(1) NOT NULL DEFAULT 0,
  `status` varchar(20) NOT NULL DEFAULT 'active',
  PRIMARY KEY (`id`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
