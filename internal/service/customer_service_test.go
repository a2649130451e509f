package service

import (
	"context"
	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterAndLogin(t *testing.T) {
	store := &fakeCustomerStore{}
	svc := NewCustomerService(store)
	ctx := context.Background()

	customer, err := svc.Register(ctx, RegisterRequest{
		FirstName: "Ana", LastName: "Putri", Email: " Ana@Example.com ", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, customer.ID)
	assert.Equal(t, "ana@example.com", customer.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.customers[0].PasswordHash), []byte("secret1")))

	loggedIn, err := svc.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 1, loggedIn.ID)
	assert.Empty(t, loggedIn.PasswordHash)

	_, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestRegisterValidation(t *testing.T) {
	store := &fakeCustomerStore{customers: []entity.Customer{{ID: 1, Email: "taken@example.com"}}}
	svc := NewCustomerService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{FirstName: "A", LastName: "B", Email: "a@example.com"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Register(ctx, RegisterRequest{FirstName: "A", LastName: "B", Email: "not-an-email", Password: "secret1"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Register(ctx, RegisterRequest{FirstName: "A", LastName: "B", Email: "a@example.com", Password: "123"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Register(ctx, RegisterRequest{FirstName: "A", LastName: "B", Email: "taken@example.com", Password: "secret1"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestLoginWithoutPasswordIsRejected(t *testing.T) {
	store := &fakeCustomerStore{customers: []entity.Customer{{ID: 1, Email: "walkin@example.com"}}}
	svc := NewCustomerService(store)

	_, err := svc.Login(context.Background(), "walkin@example.com", "anything")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestAdminCustomerUpdateChecksEmail(t *testing.T) {
	store := &fakeCustomerStore{customers: []entity.Customer{
		{ID: 1, FirstName: "Ana", Email: "ana@example.com"},
		{ID: 2, FirstName: "Budi", Email: "budi@example.com"},
	}}
	svc := NewCustomerService(store)
	ctx := context.Background()

	_, err := svc.UpdateCustomer(ctx, &entity.Customer{ID: 2, FirstName: "Budi", Email: "ana@example.com"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	updated, err := svc.UpdateCustomer(ctx, &entity.Customer{ID: 2, FirstName: "Budi", Email: "BUDI@example.com", Phone: " 0812 "})
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", updated.Email)
	assert.Equal(t, "0812", updated.Phone)

	_, err = svc.UpdateCustomer(ctx, &entity.Customer{ID: 9, FirstName: "X", Email: "x@example.com"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.CreateCustomer(ctx, &entity.Customer{Email: "c@example.com"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestDeleteCustomerPassesDependencyError(t *testing.T) {
	store := &fakeCustomerStore{deleteErr: apperror.Dependency("repository.DeleteCustomer", "cannot delete customer with 2 existing order(s)")}
	svc := NewCustomerService(store)

	err := svc.DeleteCustomer(context.Background(), 1)
	assert.True(t, apperror.Is(err, apperror.KindDependency))
}

func TestAdminLogin(t *testing.T) {
	svc := NewAuthService("admin", "admin123", "test-secret")
	now := time.Now()
	svc.now = func() time.Time { return now }

	token, err := svc.AdminLogin("admin", "admin123")
	require.NoError(t, err)

	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return svc.Secret(), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, now.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())

	_, err = svc.AdminLogin("admin", "nope")
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))

	_, err = svc.AdminLogin("", "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

type fakeDashboardStore struct {
	recentLimit int
	salesDays   int
}

func (f *fakeDashboardStore) Stats(context.Context) (entity.DashboardStats, error) {
	return entity.DashboardStats{TotalOrders: 3, TotalRevenue: decimal.NewFromInt(100)}, nil
}

func (f *fakeDashboardStore) RecentOrders(_ context.Context, limit int) ([]entity.Order, error) {
	f.recentLimit = limit
	return []entity.Order{{ID: 1}}, nil
}

func (f *fakeDashboardStore) DailySales(_ context.Context, days int) ([]entity.DailySales, error) {
	f.salesDays = days
	return []entity.DailySales{{Date: "2026-10-18", Total: decimal.NewFromInt(100)}}, nil
}

func TestDashboard(t *testing.T) {
	store := &fakeDashboardStore{}
	svc := NewDashboardService(store)

	dashboard, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, store.recentLimit)
	assert.Equal(t, 7, store.salesDays)
	assert.Equal(t, 3, dashboard.Stats.TotalOrders)
	assert.Len(t, dashboard.RecentOrders, 1)
	assert.Len(t, dashboard.SalesData, 1)
}
