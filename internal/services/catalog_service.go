package services

import (
	"github.com/google/uuid"

	"tillpoint/internal/domain"
	"tillpoint/internal/repos"
)

// LowStockThreshold marks products worth restocking on the catalog page.
const LowStockThreshold = 10

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) List(businessID string) ([]domain.Product, error) {
	return s.Prods.ListByBusiness(businessID)
}

func (s *CatalogService) Get(businessID, id string) (domain.Product, error) {
	return s.Prods.Get(businessID, id)
}

// Search filters by name substring or exact barcode; empty query lists all.
func (s *CatalogService) Search(businessID, q string) ([]domain.Product, error) {
	if q == "" {
		return s.Prods.ListByBusiness(businessID)
	}
	return s.Prods.Search(businessID, q)
}

// Scan resolves a scanned barcode to a product.
func (s *CatalogService) Scan(businessID, code string) (domain.Product, error) {
	return s.Prods.ByBarcode(businessID, code)
}

func (s *CatalogService) Create(businessID, name string, price float64, stock int, barcode string) (domain.Product, error) {
	p := domain.Product{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		Name:       name,
		Price:      price,
		Stock:      stock,
		Barcode:    barcode,
	}
	if err := s.Prods.Create(p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *CatalogService) Delete(businessID, id string) error {
	return s.Prods.Delete(businessID, id)
}

// SetStock is the manual adjustment path; clamps at zero.
func (s *CatalogService) SetStock(businessID, id string, stock int) error {
	if stock < 0 {
		stock = 0
	}
	return s.Prods.SetStock(businessID, id, stock)
}

func (s *CatalogService) LowStockCount(businessID string) (int, error) {
	return s.Prods.LowStockCount(businessID, LowStockThreshold)
}
