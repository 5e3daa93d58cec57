package services

import (
	"tillpoint/internal/repos"
)

type AnalyticsService struct {
	Sales *repos.SaleRepo
}

func NewAnalyticsService(sales *repos.SaleRepo) *AnalyticsService {
	return &AnalyticsService{Sales: sales}
}

type Dashboard struct {
	Today       repos.TodayStats
	RecentSales []repos.SaleSummary
	TopProducts []repos.ProductRank
}

func (s *AnalyticsService) Dashboard(businessID string) (Dashboard, error) {
	today, err := s.Sales.Today(businessID)
	if err != nil {
		return Dashboard{}, err
	}
	recent, err := s.Sales.ListRecent(businessID, 5)
	if err != nil {
		return Dashboard{}, err
	}
	top, err := s.Sales.TopProducts(businessID, 4)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Today: today, RecentSales: recent, TopProducts: top}, nil
}
