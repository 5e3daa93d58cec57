package handlers

import (
	"github.com/jmoiron/sqlx"

	"tillpoint/internal/cart"
	"tillpoint/internal/config"
	"tillpoint/internal/repos"
	"tillpoint/internal/services"
)

type Deps struct {
	AuthHandler      *AuthHandler
	SellHandler      *SellHandler
	ProductHandler   *ProductHandler
	AnalyticsHandler *AnalyticsHandler
	UsersHandler     *UsersHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	prodRepo := repos.NewProductRepo(db)
	saleRepo := repos.NewSaleRepo(db)
	userRepo := repos.NewUserRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo)
	saleSvc := services.NewSaleService(saleRepo, prodRepo, cfg.SaleRollback)
	analyticsSvc := services.NewAnalyticsService(saleRepo)

	carts := cart.NewStore()

	return &Deps{
		AuthHandler:      &AuthHandler{Auth: auth, Carts: carts},
		SellHandler:      &SellHandler{Catalog: catalogSvc, Sales: saleSvc, SaleRepo: saleRepo, Carts: carts},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		AnalyticsHandler: &AnalyticsHandler{Analytics: analyticsSvc, Catalog: catalogSvc},
		UsersHandler:     &UsersHandler{Users: userRepo, Auth: auth},
	}
}
