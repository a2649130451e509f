package service

import (
	"context"
	"encoding/json"
	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() *fakeCatalogStore {
	return &fakeCatalogStore{
		products: []entity.Product{
			{ID: 1, Name: "Brownies", Type: "cake", Price: decimal.NewFromInt(10), Image: "a.jpg", Featured: true, Status: "active"},
			{ID: 2, Name: "Old Tart", Type: "tart", Price: decimal.NewFromInt(8), Image: "t.jpg", Status: "inactive"},
			{ID: 3, Name: "Cookies", Type: "cookie", Price: decimal.NewFromInt(5), Featured: true, Status: "active"},
		},
		images: []entity.ProductImage{
			{ID: 1, ProductID: 1, Path: "a.jpg", SortOrder: 1},
			{ID: 2, ProductID: 1, Path: "c.jpg", SortOrder: 2},
			{ID: 3, ProductID: 1, Path: "b.jpg", SortOrder: 0},
			{ID: 4, ProductID: 1, Path: "b.jpg", SortOrder: 3},
			{ID: 5, ProductID: 1, Path: "", SortOrder: 4},
			{ID: 6, ProductID: 2, Path: "t2.jpg"},
		},
		variants: []entity.ProductVariant{
			{ID: 1, ProductID: 1, Name: "Large", Price: decimal.NewFromInt(15)},
			{ID: 2, ProductID: 1, Name: "Small", Price: decimal.NewFromInt(7)},
			{ID: 3, ProductID: 3, Name: "Box of 12", Price: decimal.NewFromInt(20)},
		},
	}
}

func TestAggregateProducts(t *testing.T) {
	catalog := sampleCatalog()

	views := AggregateProducts(catalog.products, catalog.images, catalog.variants)
	require.Len(t, views, 2)

	brownies := views[0]
	assert.Equal(t, 1, brownies.ID)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, brownies.Images)
	require.Len(t, brownies.Variants, 2)
	assert.Equal(t, "Small", brownies.Variants[0].Name)
	assert.Equal(t, "Large", brownies.Variants[1].Name)

	cookies := views[1]
	assert.Equal(t, 3, cookies.ID)
	assert.Empty(t, cookies.Images)
	assert.NotNil(t, cookies.Images)
	assert.Len(t, cookies.Variants, 1)
}

func TestAggregateProductsEncodesEmptyCollections(t *testing.T) {
	views := AggregateProducts([]entity.Product{{ID: 4, Name: "Plain", Status: "active"}}, nil, nil)
	require.Len(t, views, 1)

	payload, err := json.Marshal(views[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, []any{}, decoded["images"])
	assert.Equal(t, []any{}, decoded["variants"])
}

func TestFeaturedView(t *testing.T) {
	withImage := featuredView(entity.Product{ID: 1, Image: "a.jpg"})
	assert.Equal(t, []string{"a.jpg"}, withImage.Images)

	withoutImage := featuredView(entity.Product{ID: 2})
	assert.NotNil(t, withoutImage.Images)
	assert.Empty(t, withoutImage.Images)
}

func TestCatalogServiceFeaturedAndSingle(t *testing.T) {
	store := sampleCatalog()
	svc := NewCatalogService(store, nil, 0)

	featured, err := svc.FeaturedProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, store.featuredLimit)
	require.Len(t, featured, 2)
	assert.Equal(t, []string{"a.jpg"}, featured[0].Images)
	assert.Equal(t, []string{}, featured[1].Images)

	product, err := svc.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, product.Images)

	_, err = svc.GetProduct(context.Background(), 2)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.GetProduct(context.Background(), 404)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCatalogServiceSearch(t *testing.T) {
	store := sampleCatalog()
	svc := NewCatalogService(store, nil, 0)

	_, err := svc.SearchProducts(context.Background(), "   ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	views, err := svc.SearchProducts(context.Background(), " brown ")
	require.NoError(t, err)
	assert.Equal(t, "brown", store.searchTerm)
	assert.Len(t, views, 2)
}

func TestCatalogServiceCachesListing(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := sampleCatalog()
	svc := NewCatalogService(store, rdb, time.Minute)
	ctx := context.Background()

	first, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(catalogCacheKey))

	second, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls)
	require.Len(t, second, len(first))
	assert.Equal(t, first[0].Images, second[0].Images)
	assert.True(t, first[0].Price.Equal(second[0].Price))

	_, err = svc.CreateProduct(ctx, &entity.Product{Name: "Tart", Type: "tart", Price: decimal.NewFromInt(9)})
	require.NoError(t, err)
	assert.False(t, mr.Exists(catalogCacheKey))

	third, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
	assert.Len(t, third, 3)
}

func TestCatalogServiceWithoutCache(t *testing.T) {
	store := sampleCatalog()
	svc := NewCatalogService(store, nil, time.Minute)

	_, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	_, err = svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewCatalogService(sampleCatalog(), nil, 0)

	_, err := svc.CreateProduct(context.Background(), &entity.Product{Type: "cake"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.CreateProduct(context.Background(), &entity.Product{Name: "x", Type: "cake", Price: decimal.NewFromInt(-1)})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.CreateProduct(context.Background(), &entity.Product{Name: "x", Type: "cake", Status: "archived"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.CreateProduct(context.Background(), &entity.Product{
		Name: "x", Type: "cake",
		Variants: []entity.ProductVariant{{Name: " ", Price: decimal.NewFromInt(1)}},
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	created, err := svc.CreateProduct(context.Background(), &entity.Product{Name: " Tart ", Type: "tart"})
	require.NoError(t, err)
	assert.Equal(t, "Tart", created.Name)
	assert.Equal(t, entity.ProductStatusActive, created.Status)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	svc := NewCatalogService(sampleCatalog(), nil, 0)

	_, err := svc.UpdateProduct(context.Background(), &entity.Product{ID: 99, Name: "x", Type: "y"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	updated, err := svc.UpdateProduct(context.Background(), &entity.Product{ID: 2, Name: "Tart", Type: "tart", Status: "Active"})
	require.NoError(t, err)
	assert.Equal(t, "active", updated.Status)

	assert.NoError(t, svc.DeleteProduct(context.Background(), 2))
	assert.True(t, apperror.Is(svc.DeleteProduct(context.Background(), 2), apperror.KindNotFound))
}
