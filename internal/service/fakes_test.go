package service

import (
	"context"
	"fmt"
	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/events"
	"storefront-service/internal/query"
	"storefront-service/internal/repository"
	"sync"
)

type statusUpdate struct {
	id         int
	statusType entity.StatusType
	next       string
	current    string
}

type fakeOrderStore struct {
	mu sync.Mutex

	createErrs  []error
	createCalls int
	created     []entity.Order
	nextID      int

	statuses      map[int]map[entity.StatusType]string
	updates       []statusUpdate
	forceAffected *int64

	summaries []entity.OrderSummary
	orders    []entity.Order
	total     int
	deleteErr error
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, order *entity.Order) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if order.IdempotencyKey != "" {
		for _, existing := range f.created {
			if existing.IdempotencyKey == order.IdempotencyKey {
				return nil, apperror.Wrap(apperror.KindConflict, "fake.CreateOrder",
					fmt.Errorf("%w: %s", repository.ErrDuplicateIdempotencyKey, order.IdempotencyKey), "duplicate request")
			}
		}
	}
	f.nextID++
	order.ID = f.nextID
	f.created = append(f.created, *order)
	return order, nil
}

func (f *fakeOrderStore) GetOrderByID(_ context.Context, id int) (*entity.Order, error) {
	for _, order := range f.created {
		if order.ID == id {
			o := order
			return &o, nil
		}
	}
	return nil, apperror.NotFound("fake.GetOrderByID", "resource not found")
}

func (f *fakeOrderStore) GetOrderByIdempotencyKey(_ context.Context, key string) (*entity.Order, error) {
	for _, order := range f.created {
		if order.IdempotencyKey == key {
			o := order
			return &o, nil
		}
	}
	return nil, apperror.NotFound("fake.GetOrderByIdempotencyKey", "resource not found")
}

func (f *fakeOrderStore) GetOrderStatus(_ context.Context, id int, statusType entity.StatusType) (string, error) {
	byType, ok := f.statuses[id]
	if !ok {
		return "", apperror.NotFound("fake.GetOrderStatus", "resource not found")
	}
	return byType[statusType], nil
}

func (f *fakeOrderStore) UpdateOrderStatus(_ context.Context, id int, statusType entity.StatusType, next, current string) (int64, error) {
	f.updates = append(f.updates, statusUpdate{id: id, statusType: statusType, next: next, current: current})
	if f.forceAffected != nil {
		return *f.forceAffected, nil
	}
	byType, ok := f.statuses[id]
	if !ok {
		return 0, nil
	}
	if current != "" && byType[statusType] != current {
		return 0, nil
	}
	byType[statusType] = next
	return 1, nil
}

func (f *fakeOrderStore) ListRecentOrders(_ context.Context, limit int) ([]entity.OrderSummary, error) {
	if len(f.summaries) > limit {
		return f.summaries[:limit], nil
	}
	return f.summaries, nil
}

func (f *fakeOrderStore) ListOrders(_ context.Context, _ entity.OrderFilter, _ query.Page) ([]entity.Order, int, error) {
	return f.orders, f.total, nil
}

func (f *fakeOrderStore) DeleteOrder(_ context.Context, _ int) error {
	return f.deleteErr
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type fakeCatalogStore struct {
	products      []entity.Product
	images        []entity.ProductImage
	variants      []entity.ProductVariant
	listCalls     int
	searchTerm    string
	featuredLimit int
	created       []entity.Product
}

func (f *fakeCatalogStore) ListActiveProducts(_ context.Context) ([]entity.Product, error) {
	f.listCalls++
	var out []entity.Product
	for _, p := range f.products {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) SearchActiveProducts(ctx context.Context, term string) ([]entity.Product, error) {
	f.searchTerm = term
	return f.ListActiveProducts(ctx)
}

func (f *fakeCatalogStore) ListFeaturedProducts(_ context.Context, limit int) ([]entity.Product, error) {
	f.featuredLimit = limit
	var out []entity.Product
	for _, p := range f.products {
		if p.Active() && p.Featured && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) GetActiveProduct(_ context.Context, id int) (*entity.Product, error) {
	for _, p := range f.products {
		if p.ID == id && p.Active() {
			product := p
			return &product, nil
		}
	}
	return nil, apperror.NotFound("fake.GetActiveProduct", "resource not found")
}

func (f *fakeCatalogStore) GetProductByID(_ context.Context, id int) (*entity.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, apperror.NotFound("fake.GetProductByID", "resource not found")
}

func (f *fakeCatalogStore) ListImages(_ context.Context) ([]entity.ProductImage, error) {
	return f.images, nil
}

func (f *fakeCatalogStore) ListImagesByProduct(_ context.Context, productID int) ([]entity.ProductImage, error) {
	var out []entity.ProductImage
	for _, image := range f.images {
		if image.ProductID == productID {
			out = append(out, image)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) ListVariants(_ context.Context) ([]entity.ProductVariant, error) {
	return f.variants, nil
}

func (f *fakeCatalogStore) ListVariantsByProduct(_ context.Context, productID int) ([]entity.ProductVariant, error) {
	var out []entity.ProductVariant
	for _, variant := range f.variants {
		if variant.ProductID == productID {
			out = append(out, variant)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) ListProducts(_ context.Context, _ entity.ProductFilter, _ query.Page) ([]entity.Product, int, error) {
	return f.products, len(f.products), nil
}

func (f *fakeCatalogStore) CreateProduct(_ context.Context, product *entity.Product) (*entity.Product, error) {
	product.ID = len(f.products) + 1
	f.products = append(f.products, *product)
	f.created = append(f.created, *product)
	return product, nil
}

func (f *fakeCatalogStore) UpdateProduct(_ context.Context, product *entity.Product) (*entity.Product, error) {
	for i := range f.products {
		if f.products[i].ID == product.ID {
			f.products[i] = *product
			return product, nil
		}
	}
	return nil, apperror.NotFound("fake.UpdateProduct", "product not found")
}

func (f *fakeCatalogStore) DeleteProduct(_ context.Context, id int) error {
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("fake.DeleteProduct", "product not found")
}

type fakeCustomerStore struct {
	customers []entity.Customer
	deleteErr error
}

func (f *fakeCustomerStore) ListCustomers(_ context.Context, _ entity.CustomerFilter, _ query.Page) ([]entity.Customer, int, error) {
	return f.customers, len(f.customers), nil
}

func (f *fakeCustomerStore) GetCustomerByID(_ context.Context, id int) (*entity.Customer, error) {
	for _, c := range f.customers {
		if c.ID == id {
			customer := c
			return &customer, nil
		}
	}
	return nil, apperror.NotFound("fake.GetCustomerByID", "resource not found")
}

func (f *fakeCustomerStore) GetCustomerByEmail(_ context.Context, email string) (*entity.Customer, error) {
	for _, c := range f.customers {
		if c.Email == email {
			customer := c
			return &customer, nil
		}
	}
	return nil, apperror.NotFound("fake.GetCustomerByEmail", "resource not found")
}

func (f *fakeCustomerStore) EmailExists(_ context.Context, email string, excludeID int) (bool, error) {
	for _, c := range f.customers {
		if c.Email == email && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCustomerStore) CreateCustomer(_ context.Context, customer *entity.Customer) (*entity.Customer, error) {
	customer.ID = len(f.customers) + 1
	f.customers = append(f.customers, *customer)
	return customer, nil
}

func (f *fakeCustomerStore) UpdateCustomer(_ context.Context, customer *entity.Customer) (*entity.Customer, error) {
	for i := range f.customers {
		if f.customers[i].ID == customer.ID {
			f.customers[i] = *customer
			return customer, nil
		}
	}
	return nil, apperror.NotFound("fake.UpdateCustomer", "customer not found")
}

func (f *fakeCustomerStore) DeleteCustomer(_ context.Context, _ int) error {
	return f.deleteErr
}
