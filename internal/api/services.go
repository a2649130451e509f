package api

import (
	"context"
	"storefront-service/internal/entity"
	"storefront-service/internal/query"
	"storefront-service/internal/service"
)

type OrderService interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest, idempotencyKey, fingerprint string) (*service.OrderReceipt, error)
	UpdateStatus(ctx context.Context, id int, rawStatus, rawType string) error
	GetOrder(ctx context.Context, id int) (*entity.Order, error)
	ListRecentOrders(ctx context.Context) ([]entity.OrderSummary, error)
	ListOrders(ctx context.Context, f entity.OrderFilter, page query.Page) ([]entity.Order, query.Pagination, error)
	DeleteOrder(ctx context.Context, id int) error
}

type CatalogService interface {
	ListProducts(ctx context.Context) ([]entity.ProductView, error)
	SearchProducts(ctx context.Context, q string) ([]entity.ProductView, error)
	GetProduct(ctx context.Context, id int) (*entity.ProductView, error)
	FeaturedProducts(ctx context.Context) ([]entity.FeaturedProductView, error)
	ListAdminProducts(ctx context.Context, f entity.ProductFilter, page query.Page) ([]entity.Product, query.Pagination, error)
	GetAdminProduct(ctx context.Context, id int) (*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int) error
}

type CustomerService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*entity.Customer, error)
	Login(ctx context.Context, email, password string) (*entity.Customer, error)
	ListCustomers(ctx context.Context, f entity.CustomerFilter, page query.Page) ([]entity.Customer, query.Pagination, error)
	CreateCustomer(ctx context.Context, customer *entity.Customer) (*entity.Customer, error)
	UpdateCustomer(ctx context.Context, customer *entity.Customer) (*entity.Customer, error)
	DeleteCustomer(ctx context.Context, id int) error
}

type AuthService interface {
	AdminLogin(username, password string) (string, error)
	Secret() []byte
}

type DashboardService interface {
	Dashboard(ctx context.Context) (*entity.Dashboard, error)
}

// Services bundles what the HTTP layer calls into.
type Services struct {
	Orders    OrderService
	Catalog   CatalogService
	Customers CustomerService
	Auth      AuthService
	Dashboard DashboardService
}
