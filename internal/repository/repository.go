package repository

import (
	"context"
	"database/sql"
	"fmt"
	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/query"
)

const orderColumns = `id, order_number, customer_id, customer_first_name, customer_last_name, customer_email, customer_phone,
	delivery_address, DATE_FORMAT(delivery_date, '%Y-%m-%d'), delivery_time, delivery_method,
	subtotal, delivery_fee, total_amount, payment_status, order_status, special_instructions, idempotency_key,
	created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, product_name, product_type, variant_name, quantity, unit_price, total_price, is_custom, custom_details`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

func scanOrder(row scanner) (*entity.Order, error) {
	order := &entity.Order{}
	var customerID sql.NullInt64
	var idempotencyKey sql.NullString
	err := row.Scan(&order.ID, &order.OrderNumber, &customerID, &order.Customer.FirstName, &order.Customer.LastName, &order.Customer.Email, &order.Customer.Phone,
		&order.Delivery.Address, &order.Delivery.Date, &order.Delivery.Time, &order.Delivery.Method,
		&order.Subtotal, &order.DeliveryFee, &order.Total, &order.PaymentStatus, &order.OrderStatus, &order.SpecialInstructions, &idempotencyKey,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		id := int(customerID.Int64)
		order.CustomerID = &id
	}
	order.IdempotencyKey = idempotencyKey.String
	return order, nil
}

func scanOrderItem(row scanner) (entity.OrderItem, error) {
	item := entity.OrderItem{}
	var details []byte
	err := row.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductType, &item.VariantName,
		&item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.IsCustom, &details)
	if err != nil {
		return item, err
	}
	if len(details) > 0 {
		item.CustomDetails = append([]byte(nil), details...)
	}
	return item, nil
}

// GetOrderByID returns the order with its items.
func (r *OrderRepository) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order, err := scanOrder(r.db.QueryRowContext(ctx, orderQuery, id))
	if err != nil {
		return nil, translate("repository.GetOrderByID", err)
	}

	items, err := r.listItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// GetOrderByIdempotencyKey returns the order header stored under key, without items.
func (r *OrderRepository) GetOrderByIdempotencyKey(ctx context.Context, key string) (*entity.Order, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE idempotency_key = ?`

	order, err := scanOrder(r.db.QueryRowContext(ctx, orderQuery, key))
	if err != nil {
		return nil, translate("repository.GetOrderByIdempotencyKey", err)
	}
	return order, nil
}

func (r *OrderRepository) listItems(ctx context.Context, orderID int) ([]entity.OrderItem, error) {
	itemQuery := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, itemQuery, orderID)
	if err != nil {
		return nil, translate("repository.listItems", err)
	}
	defer rows.Close()

	items := []entity.OrderItem{}
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, translate("repository.listItems", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("repository.listItems", err)
	}

	return items, nil
}

// CreateOrder writes the order and all of its items in one transaction. Nothing is
// persisted unless every insert succeeds.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	const op = "repository.CreateOrder"

	// Start a transaction
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translate(op, err)
	}

	// Insert order
	orderQuery := `INSERT INTO orders (order_number, customer_id, customer_first_name, customer_last_name, customer_email, customer_phone,
		delivery_address, delivery_date, delivery_time, delivery_method, delivery_fee, subtotal, total_amount,
		payment_status, order_status, special_instructions, idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, orderQuery, order.OrderNumber, order.CustomerID,
		order.Customer.FirstName, order.Customer.LastName, order.Customer.Email, order.Customer.Phone,
		order.Delivery.Address, order.Delivery.Date, order.Delivery.Time, order.Delivery.Method,
		order.DeliveryFee, order.Subtotal, order.Total,
		string(order.PaymentStatus), string(order.OrderStatus), order.SpecialInstructions, nullString(order.IdempotencyKey))
	if err != nil {
		tx.Rollback()
		return nil, translate(op, err)
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, translate(op, err)
	}

	// Insert items, one statement each so a failure names the offending line
	itemQuery := `INSERT INTO order_items (order_id, product_id, product_name, product_type, variant_name, quantity, unit_price, total_price, is_custom, custom_details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i := range order.Items {
		item := &order.Items[i]

		var details any
		if len(item.CustomDetails) > 0 {
			details = string(item.CustomDetails)
		}

		res, err := tx.ExecContext(ctx, itemQuery, orderID, item.ProductID, item.ProductName, item.ProductType, item.VariantName,
			item.Quantity, item.UnitPrice, item.TotalPrice, item.IsCustom, details)
		if err != nil {
			tx.Rollback()
			return nil, translate(op, fmt.Errorf("item %d: %w", i+1, err))
		}

		affected, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return nil, translate(op, err)
		}
		if affected != 1 {
			tx.Rollback()
			return nil, apperror.New(apperror.KindInternal, op, fmt.Sprintf("item %d was not stored", i+1))
		}

		item.OrderID = int(orderID)
	}

	// Commit the transaction
	err = tx.Commit()
	if err != nil {
		return nil, translate(op, err)
	}

	order.ID = int(orderID)
	return order, nil
}

// GetOrderStatus reads the current value of the status column selected by statusType.
func (r *OrderRepository) GetOrderStatus(ctx context.Context, id int, statusType entity.StatusType) (string, error) {
	statusQuery := `SELECT ` + statusType.Column() + ` FROM orders WHERE id = ?`

	var status string
	err := r.db.QueryRowContext(ctx, statusQuery, id).Scan(&status)
	if err != nil {
		return "", translate("repository.GetOrderStatus", err)
	}

	return status, nil
}

// UpdateOrderStatus sets the selected status column. When current is non-empty the update
// only applies while the column still holds current. It returns the number of matched rows.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id int, statusType entity.StatusType, next, current string) (int64, error) {
	column := statusType.Column()

	updateQuery := `UPDATE orders SET ` + column + ` = ?, updated_at = NOW() WHERE id = ?`
	args := []any{next, id}
	if current != "" {
		updateQuery += ` AND ` + column + ` = ?`
		args = append(args, current)
	}

	res, err := r.db.ExecContext(ctx, updateQuery, args...)
	if err != nil {
		return 0, translate("repository.UpdateOrderStatus", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, translate("repository.UpdateOrderStatus", err)
	}

	return affected, nil
}

// ListRecentOrders returns the newest orders with an item count and a one-line item summary.
func (r *OrderRepository) ListRecentOrders(ctx context.Context, limit int) ([]entity.OrderSummary, error) {
	listQuery := `SELECT o.id, o.order_number, o.customer_first_name, o.customer_last_name, o.customer_email, o.customer_phone,
		o.total_amount, o.delivery_fee, DATE_FORMAT(o.delivery_date, '%Y-%m-%d'), o.delivery_method, o.payment_status, o.order_status, o.created_at,
		COUNT(oi.id), COALESCE(GROUP_CONCAT(CONCAT(oi.product_name, ' (', oi.quantity, ')') ORDER BY oi.id SEPARATOR ', '), '')
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, listQuery, limit)
	if err != nil {
		return nil, translate("repository.ListRecentOrders", err)
	}
	defer rows.Close()

	summaries := []entity.OrderSummary{}
	for rows.Next() {
		var s entity.OrderSummary
		var firstName, lastName string
		err := rows.Scan(&s.ID, &s.OrderNumber, &firstName, &lastName, &s.CustomerEmail, &s.CustomerPhone,
			&s.Total, &s.DeliveryFee, &s.DeliveryDate, &s.DeliveryMethod, &s.PaymentStatus, &s.OrderStatus, &s.CreatedAt,
			&s.ItemCount, &s.ItemsSummary)
		if err != nil {
			return nil, translate("repository.ListRecentOrders", err)
		}
		s.CustomerName = entity.ContactSnapshot{FirstName: firstName, LastName: lastName}.FullName()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("repository.ListRecentOrders", err)
	}

	return summaries, nil
}

func orderFilter(f entity.OrderFilter) *query.Filter {
	return query.NewFilter().
		Equal("order_status", f.Status).
		Equal("payment_status", f.PaymentStatus).
		Contains(f.Search, "order_number", "customer_first_name", "customer_last_name", "customer_email")
}

// ListOrders returns one page of orders matching f, each with its items, plus the total
// number of matching orders.
func (r *OrderRepository) ListOrders(ctx context.Context, f entity.OrderFilter, page query.Page) ([]entity.Order, int, error) {
	const op = "repository.ListOrders"
	filter := orderFilter(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM orders ` + filter.Where()
	if err := r.db.QueryRowContext(ctx, countQuery, filter.Args()...).Scan(&total); err != nil {
		return nil, 0, translate(op, err)
	}

	orders, err := r.queryOrders(ctx, op, `SELECT `+orderColumns+` FROM orders `+filter.Where()+` ORDER BY created_at DESC, id DESC `+page.Clause(), filter.Args()...)
	if err != nil {
		return nil, 0, err
	}

	for i := range orders {
		items, err := r.listItems(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
		orders[i].Items = items
	}

	return orders, total, nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, op, listQuery string, args ...any) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	orders := []entity.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, translate(op, err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}

	return orders, nil
}

// DeleteOrder removes the items, then the order, in one transaction.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id int) error {
	const op = "repository.DeleteOrder"

	// Start a transaction
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(op, err)
	}

	// Delete items
	_, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id)
	if err != nil {
		tx.Rollback()
		return translate(op, err)
	}

	// Delete order
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
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
		return apperror.NotFound(op, "order not found")
	}

	// Commit the transaction
	err = tx.Commit()
	if err != nil {
		return translate(op, err)
	}

	return nil
}
