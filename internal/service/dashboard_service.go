package service

import (
	"context"
	"storefront-service/internal/entity"
)

const (
	dashboardRecentOrders = 10
	dashboardSalesDays    = 7
)

type DashboardService struct {
	repo DashboardStore
}

func NewDashboardService(repo DashboardStore) *DashboardService {
	return &DashboardService{repo: repo}
}

func (s *DashboardService) Dashboard(ctx context.Context) (*entity.Dashboard, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error loading dashboard stats")
		return nil, err
	}

	recent, err := s.repo.RecentOrders(ctx, dashboardRecentOrders)
	if err != nil {
		logger.Error().Err(err).Msg("Error loading recent orders")
		return nil, err
	}

	sales, err := s.repo.DailySales(ctx, dashboardSalesDays)
	if err != nil {
		logger.Error().Err(err).Msg("Error loading sales data")
		return nil, err
	}

	return &entity.Dashboard{
		Stats:        stats,
		RecentOrders: recent,
		SalesData:    sales,
	}, nil
}
