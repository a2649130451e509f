package repository

import (
	"context"
	"database/sql"
	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/query"
)

const productColumns = `id, name, type, price, description, COALESCE(image, ''), featured, status, created_at, updated_at`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

func scanProduct(row scanner, extra ...any) (*entity.Product, error) {
	product := &entity.Product{}
	dest := []any{&product.ID, &product.Name, &product.Type, &product.Price, &product.Description, &product.Image,
		&product.Featured, &product.Status, &product.CreatedAt, &product.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, op, listQuery string, args ...any) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	products := []entity.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, translate(op, err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}

	return products, nil
}

// ListActiveProducts returns every active product, featured first, then by name.
func (r *ProductRepository) ListActiveProducts(ctx context.Context) ([]entity.Product, error) {
	listQuery := `SELECT ` + productColumns + ` FROM products WHERE status = ? ORDER BY featured DESC, name ASC`
	return r.queryProducts(ctx, "repository.ListActiveProducts", listQuery, entity.ProductStatusActive)
}

// SearchActiveProducts matches term against name and description of active products.
func (r *ProductRepository) SearchActiveProducts(ctx context.Context, term string) ([]entity.Product, error) {
	filter := query.NewFilter().
		Equal("status", entity.ProductStatusActive).
		Contains(term, "name", "description")

	searchQuery := `SELECT ` + productColumns + ` FROM products ` + filter.Where() + ` ORDER BY featured DESC, name ASC`
	return r.queryProducts(ctx, "repository.SearchActiveProducts", searchQuery, filter.Args()...)
}

// ListFeaturedProducts returns at most limit active featured products by name.
func (r *ProductRepository) ListFeaturedProducts(ctx context.Context, limit int) ([]entity.Product, error) {
	listQuery := `SELECT ` + productColumns + ` FROM products WHERE status = ? AND featured = 1 ORDER BY name ASC LIMIT ?`
	return r.queryProducts(ctx, "repository.ListFeaturedProducts", listQuery, entity.ProductStatusActive, limit)
}

// GetActiveProduct returns the product only while it is active.
func (r *ProductRepository) GetActiveProduct(ctx context.Context, id int) (*entity.Product, error) {
	productQuery := `SELECT ` + productColumns + ` FROM products WHERE id = ? AND status = ?`

	product, err := scanProduct(r.db.QueryRowContext(ctx, productQuery, id, entity.ProductStatusActive))
	if err != nil {
		return nil, translate("repository.GetActiveProduct", err)
	}

	return product, nil
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id int) (*entity.Product, error) {
	productQuery := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	product, err := scanProduct(r.db.QueryRowContext(ctx, productQuery, id))
	if err != nil {
		return nil, translate("repository.GetProductByID", err)
	}

	variants, err := r.ListVariantsByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Variants = variants
	product.VariantCount = len(variants)

	return product, nil
}

// ListImages returns every gallery image ordered by sort_order.
func (r *ProductRepository) ListImages(ctx context.Context) ([]entity.ProductImage, error) {
	imageQuery := `SELECT id, product_id, image_path, sort_order, is_primary FROM product_images ORDER BY sort_order, id`
	return r.queryImages(ctx, "repository.ListImages", imageQuery)
}

func (r *ProductRepository) ListImagesByProduct(ctx context.Context, productID int) ([]entity.ProductImage, error) {
	imageQuery := `SELECT id, product_id, image_path, sort_order, is_primary FROM product_images WHERE product_id = ? ORDER BY sort_order, id`
	return r.queryImages(ctx, "repository.ListImagesByProduct", imageQuery, productID)
}

func (r *ProductRepository) queryImages(ctx context.Context, op, imageQuery string, args ...any) ([]entity.ProductImage, error) {
	rows, err := r.db.QueryContext(ctx, imageQuery, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	images := []entity.ProductImage{}
	for rows.Next() {
		var image entity.ProductImage
		if err := rows.Scan(&image.ID, &image.ProductID, &image.Path, &image.SortOrder, &image.IsPrimary); err != nil {
			return nil, translate(op, err)
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}

	return images, nil
}

// ListVariants returns every variant ordered by price.
func (r *ProductRepository) ListVariants(ctx context.Context) ([]entity.ProductVariant, error) {
	variantQuery := `SELECT id, product_id, name, price, stock_quantity FROM product_variants ORDER BY price, id`
	return r.queryVariants(ctx, "repository.ListVariants", variantQuery)
}

func (r *ProductRepository) ListVariantsByProduct(ctx context.Context, productID int) ([]entity.ProductVariant, error) {
	variantQuery := `SELECT id, product_id, name, price, stock_quantity FROM product_variants WHERE product_id = ? ORDER BY price, id`
	return r.queryVariants(ctx, "repository.ListVariantsByProduct", variantQuery, productID)
}

func (r *ProductRepository) queryVariants(ctx context.Context, op, variantQuery string, args ...any) ([]entity.ProductVariant, error) {
	rows, err := r.db.QueryContext(ctx, variantQuery, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	variants := []entity.ProductVariant{}
	for rows.Next() {
		var variant entity.ProductVariant
		if err := rows.Scan(&variant.ID, &variant.ProductID, &variant.Name, &variant.Price, &variant.StockQuantity); err != nil {
			return nil, translate(op, err)
		}
		variants = append(variants, variant)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}

	return variants, nil
}

func productFilter(f entity.ProductFilter) *query.Filter {
	return query.NewFilter().
		Contains(f.Search, "name", "description").
		Equal("type", f.Category).
		Equal("status", f.Status)
}

// ListProducts is the admin listing: any status, newest first, each row with its variants.
func (r *ProductRepository) ListProducts(ctx context.Context, f entity.ProductFilter, page query.Page) ([]entity.Product, int, error) {
	const op = "repository.ListProducts"
	filter := productFilter(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM products ` + filter.Where()
	if err := r.db.QueryRowContext(ctx, countQuery, filter.Args()...).Scan(&total); err != nil {
		return nil, 0, translate(op, err)
	}

	listQuery := `SELECT ` + productColumns + `, (SELECT COUNT(*) FROM product_variants v WHERE v.product_id = products.id)
		FROM products ` + filter.Where() + ` ORDER BY created_at DESC, id DESC ` + page.Clause()

	rows, err := r.db.QueryContext(ctx, listQuery, filter.Args()...)
	if err != nil {
		return nil, 0, translate(op, err)
	}

	products := []entity.Product{}
	for rows.Next() {
		var variantCount int
		product, err := scanProduct(rows, &variantCount)
		if err != nil {
			rows.Close()
			return nil, 0, translate(op, err)
		}
		product.VariantCount = variantCount
		products = append(products, *product)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, 0, translate(op, err)
	}

	for i := range products {
		variants, err := r.ListVariantsByProduct(ctx, products[i].ID)
		if err != nil {
			return nil, 0, err
		}
		products[i].Variants = variants
	}

	return products, total, nil
}

// CreateProduct inserts the product and its variants in one transaction.
func (r *ProductRepository) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	const op = "repository.CreateProduct"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translate(op, err)
	}

	productQuery := `INSERT INTO products (name, type, price, description, image, featured, status) VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, productQuery, product.Name, product.Type, product.Price, product.Description,
		nullString(product.Image), product.Featured, product.Status)
	if err != nil {
		tx.Rollback()
		return nil, translate(op, err)
	}

	productID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, translate(op, err)
	}

	if err := insertVariants(ctx, tx, int(productID), product.Variants); err != nil {
		tx.Rollback()
		return nil, translate(op, err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, translate(op, err)
	}

	product.ID = int(productID)
	for i := range product.Variants {
		product.Variants[i].ProductID = product.ID
	}
	product.VariantCount = len(product.Variants)
	return product, nil
}

func insertVariants(ctx context.Context, tx *sql.Tx, productID int, variants []entity.ProductVariant) error {
	variantQuery := `INSERT INTO product_variants (product_id, name, price, stock_quantity) VALUES (?, ?, ?, ?)`
	for i := range variants {
		res, err := tx.ExecContext(ctx, variantQuery, productID, variants[i].Name, variants[i].Price, variants[i].StockQuantity)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		variants[i].ID = int(id)
	}
	return nil
}

// UpdateProduct rewrites the product row. A non-nil Variants slice replaces the stored
// variants in the same transaction.
func (r *ProductRepository) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	const op = "repository.UpdateProduct"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translate(op, err)
	}

	productQuery := `UPDATE products SET name = ?, type = ?, price = ?, description = ?, image = ?, featured = ?, status = ?, updated_at = NOW() WHERE id = ?`
	res, err := tx.ExecContext(ctx, productQuery, product.Name, product.Type, product.Price, product.Description,
		nullString(product.Image), product.Featured, product.Status, product.ID)
	if err != nil {
		tx.Rollback()
		return nil, translate(op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return nil, translate(op, err)
	}
	if affected == 0 {
		tx.Rollback()
		return nil, apperror.NotFound(op, "product not found")
	}

	if product.Variants != nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = ?`, product.ID)
		if err != nil {
			tx.Rollback()
			return nil, translate(op, err)
		}
		if err := insertVariants(ctx, tx, product.ID, product.Variants); err != nil {
			tx.Rollback()
			return nil, translate(op, err)
		}
		product.VariantCount = len(product.Variants)
	}

	err = tx.Commit()
	if err != nil {
		return nil, translate(op, err)
	}

	return product, nil
}

// DeleteProduct removes variants and images before the product, in one transaction.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id int) error {
	const op = "repository.DeleteProduct"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(op, err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = ?`, id)
	if err != nil {
		tx.Rollback()
		return translate(op, err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = ?`, id)
	if err != nil {
		tx.Rollback()
		return translate(op, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return translate(op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return translate(op, err)
	}
	if affected == 0 {
		tx.Rollback()
		return apperror.NotFound(op, "product not found")
	}

	err = tx.Commit()
	if err != nil {
		return translate(op, err)
	}

	return nil
}
