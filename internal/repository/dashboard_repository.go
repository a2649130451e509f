package repository

import (
	"context"
	"database/sql"
	"github.com/shopspring/decimal"
	"storefront-service/internal/entity"
)

type DashboardRepository struct {
	db     *sql.DB
	orders *OrderRepository
}

func NewDashboardRepository(db *sql.DB) *DashboardRepository {
	return &DashboardRepository{db: db, orders: NewOrderRepository(db)}
}

// Stats aggregates the headline figures. Cancelled orders do not count towards revenue.
func (r *DashboardRepository) Stats(ctx context.Context) (entity.DashboardStats, error) {
	const op = "repository.DashboardStats"
	stats := entity.DashboardStats{}

	var paidOrders int
	revenueQuery := `SELECT COALESCE(SUM(total_amount), 0), COUNT(*) FROM orders WHERE order_status <> ?`
	if err := r.db.QueryRowContext(ctx, revenueQuery, string(entity.OrderCancelled)).Scan(&stats.TotalRevenue, &paidOrders); err != nil {
		return stats, translate(op, err)
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&stats.TotalOrders); err != nil {
		return stats, translate(op, err)
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&stats.TotalCustomers); err != nil {
		return stats, translate(op, err)
	}

	pendingQuery := `SELECT COUNT(*) FROM orders WHERE order_status = ?`
	if err := r.db.QueryRowContext(ctx, pendingQuery, string(entity.OrderPending)).Scan(&stats.PendingOrders); err != nil {
		return stats, translate(op, err)
	}

	stats.AverageOrderValue = decimal.Zero
	if paidOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.Div(decimal.NewFromInt(int64(paidOrders))).Round(2)
	}

	return stats, nil
}

// RecentOrders returns the newest orders without their items.
func (r *DashboardRepository) RecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	recentQuery := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC LIMIT ?`
	return r.orders.queryOrders(ctx, "repository.RecentOrders", recentQuery, limit)
}

// DailySales sums non-cancelled order totals per day over the last days calendar days,
// today included.
func (r *DashboardRepository) DailySales(ctx context.Context, days int) ([]entity.DailySales, error) {
	const op = "repository.DailySales"

	salesQuery := `SELECT DATE_FORMAT(created_at, '%Y-%m-%d') AS day, COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE created_at >= DATE_SUB(CURDATE(), INTERVAL ? DAY) AND order_status <> ?
		GROUP BY day
		ORDER BY day`

	rows, err := r.db.QueryContext(ctx, salesQuery, days-1, string(entity.OrderCancelled))
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	sales := []entity.DailySales{}
	for rows.Next() {
		var day entity.DailySales
		if err := rows.Scan(&day.Date, &day.Total); err != nil {
			return nil, translate(op, err)
		}
		sales = append(sales, day)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}

	return sales, nil
}
