package entity

import "github.com/shopspring/decimal"

// Dashboard is the admin overview. Revenue figures skip cancelled orders.
type Dashboard struct {
	Stats        DashboardStats `json:"stats"`
	RecentOrders []Order        `json:"recentOrders"`
	SalesData    []DailySales   `json:"salesData"`
}

type DashboardStats struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalOrders       int             `json:"totalOrders"`
	TotalCustomers    int             `json:"totalCustomers"`
	PendingOrders     int             `json:"pendingOrders"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type DailySales struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}
