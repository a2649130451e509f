package repository

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/shopspring/decimal"
	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/query"
)

const customerColumns = `c.id, c.first_name, c.last_name, c.email, c.phone, c.address, c.created_at, c.updated_at`

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db}
}

func scanCustomer(row scanner, extra ...any) (*entity.Customer, error) {
	customer := &entity.Customer{}
	dest := []any{&customer.ID, &customer.FirstName, &customer.LastName, &customer.Email, &customer.Phone, &customer.Address,
		&customer.CreatedAt, &customer.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return customer, nil
}

// ListCustomers returns one page of customers with their order count and lifetime spend.
// Orders are attributed by customer id or, for guest checkouts, by matching email.
func (r *CustomerRepository) ListCustomers(ctx context.Context, f entity.CustomerFilter, page query.Page) ([]entity.Customer, int, error) {
	const op = "repository.ListCustomers"
	filter := query.NewFilter().Contains(f.Search, "c.first_name", "c.last_name", "c.email")

	var total int
	countQuery := `SELECT COUNT(*) FROM customers c ` + filter.Where()
	if err := r.db.QueryRowContext(ctx, countQuery, filter.Args()...).Scan(&total); err != nil {
		return nil, 0, translate(op, err)
	}

	listQuery := `SELECT ` + customerColumns + `,
		(SELECT COUNT(*) FROM orders o WHERE o.customer_id = c.id OR o.customer_email = c.email),
		(SELECT COALESCE(SUM(o.total_amount), 0) FROM orders o WHERE (o.customer_id = c.id OR o.customer_email = c.email) AND o.order_status <> 'cancelled')
		FROM customers c ` + filter.Where() + ` ORDER BY c.created_at DESC, c.id DESC ` + page.Clause()

	rows, err := r.db.QueryContext(ctx, listQuery, filter.Args()...)
	if err != nil {
		return nil, 0, translate(op, err)
	}
	defer rows.Close()

	customers := []entity.Customer{}
	for rows.Next() {
		var totalOrders int
		var totalSpent decimal.Decimal
		customer, err := scanCustomer(rows, &totalOrders, &totalSpent)
		if err != nil {
			return nil, 0, translate(op, err)
		}
		customer.TotalOrders = totalOrders
		customer.TotalSpent = totalSpent
		customers = append(customers, *customer)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translate(op, err)
	}

	return customers, total, nil
}

func (r *CustomerRepository) GetCustomerByID(ctx context.Context, id int) (*entity.Customer, error) {
	customerQuery := `SELECT ` + customerColumns + ` FROM customers c WHERE c.id = ?`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, customerQuery, id))
	if err != nil {
		return nil, translate("repository.GetCustomerByID", err)
	}

	return customer, nil
}

// GetCustomerByEmail also loads the password hash for login checks.
func (r *CustomerRepository) GetCustomerByEmail(ctx context.Context, email string) (*entity.Customer, error) {
	customerQuery := `SELECT ` + customerColumns + `, c.password_hash FROM customers c WHERE c.email = ?`

	var hash string
	customer, err := scanCustomer(r.db.QueryRowContext(ctx, customerQuery, email), &hash)
	if err != nil {
		return nil, translate("repository.GetCustomerByEmail", err)
	}
	customer.PasswordHash = hash

	return customer, nil
}

// EmailExists reports whether another customer already uses email. excludeID skips the
// customer being updated; pass 0 on create.
func (r *CustomerRepository) EmailExists(ctx context.Context, email string, excludeID int) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE email = ? AND id <> ?`, email, excludeID).Scan(&count)
	if err != nil {
		return false, translate("repository.EmailExists", err)
	}
	return count > 0, nil
}

func (r *CustomerRepository) CreateCustomer(ctx context.Context, customer *entity.Customer) (*entity.Customer, error) {
	customerQuery := `INSERT INTO customers (first_name, last_name, email, phone, address, password_hash) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, customerQuery, customer.FirstName, customer.LastName, customer.Email, customer.Phone,
		customer.Address, customer.PasswordHash)
	if err != nil {
		return nil, translate("repository.CreateCustomer", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, translate("repository.CreateCustomer", err)
	}

	customer.ID = int(id)
	return customer, nil
}

func (r *CustomerRepository) UpdateCustomer(ctx context.Context, customer *entity.Customer) (*entity.Customer, error) {
	const op = "repository.UpdateCustomer"

	customerQuery := `UPDATE customers SET first_name = ?, last_name = ?, email = ?, phone = ?, address = ?, updated_at = NOW() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, customerQuery, customer.FirstName, customer.LastName, customer.Email, customer.Phone,
		customer.Address, customer.ID)
	if err != nil {
		return nil, translate(op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, translate(op, err)
	}
	if affected == 0 {
		return nil, apperror.NotFound(op, "customer not found")
	}

	return customer, nil
}

// DeleteCustomer refuses to remove a customer any order still refers to.
func (r *CustomerRepository) DeleteCustomer(ctx context.Context, id int) error {
	const op = "repository.DeleteCustomer"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(op, err)
	}

	var email string
	err = tx.QueryRowContext(ctx, `SELECT email FROM customers WHERE id = ? FOR UPDATE`, id).Scan(&email)
	if err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return apperror.NotFound(op, "customer not found")
		}
		return translate(op, err)
	}

	var orders int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE customer_id = ? OR customer_email = ?`, id, email).Scan(&orders)
	if err != nil {
		tx.Rollback()
		return translate(op, err)
	}
	if orders > 0 {
		tx.Rollback()
		return apperror.Dependency(op, fmt.Sprintf("cannot delete customer with %d existing order(s)", orders))
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return translate(op, err)
	}

	err = tx.Commit()
	if err != nil {
		return translate(op, err)
	}

	return nil
}
