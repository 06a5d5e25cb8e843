package storefront

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/marketplace/handler"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
	"github.com/dmitrymomot/marketplace/svc/catalog"
)

// maxJSONBody bounds product and order payloads.
const maxJSONBody = 64 << 10

// Catalog is the tenant data API. catalog.Service satisfies it.
type Catalog interface {
	Summary(ctx context.Context) (*catalog.Summary, error)
	CreateProduct(ctx context.Context, in catalog.NewProduct) (*catalog.Product, error)
	CreateOrder(ctx context.Context, in catalog.NewOrder) (*catalog.Order, error)
}

// CatalogService exposes the active tenant's products and orders.
type CatalogService struct {
	catalog Catalog
}

func NewCatalogService(c Catalog) *CatalogService {
	return &CatalogService{catalog: c}
}

func (s *CatalogService) Register(r chi.Router, eh handler.ErrorHandler[handler.Context]) {
	r.Get("/data", route(s.data, eh))
	r.Post("/products", route(s.createProduct, eh, handler.BindJSON(maxJSONBody)))
	r.Post("/orders", route(s.createOrder, eh, handler.BindJSON(maxJSONBody)))
}

type tenantInfo struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`
	Domain string `json:"domain"`
}

type dataResponse struct {
	TenantInfo tenantInfo         `json:"tenant_info"`
	Products   []catalog.Product `json:"products"`
	Orders     []catalog.Order   `json:"orders"`
	Counts     struct {
		Products int `json:"products"`
		Orders   int `json:"orders"`
	} `json:"counts"`
}

func (s *CatalogService) data(ctx handler.Context, _ struct{}) handler.Response {
	sum, err := s.catalog.Summary(ctx)
	if err != nil {
		return handler.Fail(err)
	}

	t := tenant.MustFromContext(ctx)
	resp := dataResponse{
		TenantInfo: tenantInfo{Name: t.Name, Schema: sum.Schema, Domain: ctx.Request().Host},
		Products:   sum.Products,
		Orders:     sum.Orders,
	}
	resp.Counts.Products = sum.Counts.Products
	resp.Counts.Orders = sum.Counts.Orders
	if resp.Products == nil {
		resp.Products = []catalog.Product{}
	}
	if resp.Orders == nil {
		resp.Orders = []catalog.Order{}
	}
	return handler.JSON(resp)
}

func (s *CatalogService) createProduct(ctx handler.Context, req catalog.NewProduct) handler.Response {
	p, err := s.catalog.CreateProduct(ctx, req)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(p, handler.WithJSONStatus(http.StatusCreated))
}

func (s *CatalogService) createOrder(ctx handler.Context, req catalog.NewOrder) handler.Response {
	o, err := s.catalog.CreateOrder(ctx, req)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(o, handler.WithJSONStatus(http.StatusCreated))
}
