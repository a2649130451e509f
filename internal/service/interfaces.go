package service

import (
	"context"
	"storefront-service/internal/entity"
	"storefront-service/internal/query"
)

// OrderStore is the persistence the order service needs. *repository.OrderRepository
// satisfies it.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error)
	GetOrderByID(ctx context.Context, id int) (*entity.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*entity.Order, error)
	GetOrderStatus(ctx context.Context, id int, statusType entity.StatusType) (string, error)
	UpdateOrderStatus(ctx context.Context, id int, statusType entity.StatusType, next, current string) (int64, error)
	ListRecentOrders(ctx context.Context, limit int) ([]entity.OrderSummary, error)
	ListOrders(ctx context.Context, f entity.OrderFilter, page query.Page) ([]entity.Order, int, error)
	DeleteOrder(ctx context.Context, id int) error
}

// CatalogStore is the read side used by the catalog aggregator plus the admin writes.
type CatalogStore interface {
	ListActiveProducts(ctx context.Context) ([]entity.Product, error)
	SearchActiveProducts(ctx context.Context, term string) ([]entity.Product, error)
	ListFeaturedProducts(ctx context.Context, limit int) ([]entity.Product, error)
	GetActiveProduct(ctx context.Context, id int) (*entity.Product, error)
	GetProductByID(ctx context.Context, id int) (*entity.Product, error)
	ListImages(ctx context.Context) ([]entity.ProductImage, error)
	ListImagesByProduct(ctx context.Context, productID int) ([]entity.ProductImage, error)
	ListVariants(ctx context.Context) ([]entity.ProductVariant, error)
	ListVariantsByProduct(ctx context.Context, productID int) ([]entity.ProductVariant, error)
	ListProducts(ctx context.Context, f entity.ProductFilter, page query.Page) ([]entity.Product, int, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int) error
}

type CustomerStore interface {
	ListCustomers(ctx context.Context, f entity.CustomerFilter, page query.Page) ([]entity.Customer, int, error)
	GetCustomerByID(ctx context.Context, id int) (*entity.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*entity.Customer, error)
	EmailExists(ctx context.Context, email string, excludeID int) (bool, error)
	CreateCustomer(ctx context.Context, customer *entity.Customer) (*entity.Customer, error)
	UpdateCustomer(ctx context.Context, customer *entity.Customer) (*entity.Customer, error)
	DeleteCustomer(ctx context.Context, id int) error
}

type DashboardStore interface {
	Stats(ctx context.Context) (entity.DashboardStats, error)
	RecentOrders(ctx context.Context, limit int) ([]entity.Order, error)
	DailySales(ctx context.Context, days int) ([]entity.DailySales, error)
}
