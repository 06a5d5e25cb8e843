package catalog

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/marketplace/pkg/pg"
	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/validator"
)

var amountPattern = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

var errInvalidAmount = errors.New("invalid amount")

// Product is a row of the tenant's products table.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is a row of the tenant's orders table.
type Order struct {
	ID          int64     `json:"id"`
	OrderNumber string    `json:"order_number"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewProduct is the input of CreateProduct. Price is a decimal string with
// at most two fractional digits.
type NewProduct struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

func (p NewProduct) Validate() error {
	return validator.Apply(
		validator.RequiredString("name", p.Name),
		validator.MaxLenString("name", p.Name, 100),
		validator.Check("price", func() error { return checkAmount(p.Price) }, "must be a non-negative amount with up to 2 decimals"),
	)
}

// NewOrder is the input of CreateOrder. An empty OrderNumber is generated.
type NewOrder struct {
	OrderNumber string `json:"order_number"`
	TotalAmount string `json:"total_amount"`
}

func (o NewOrder) Validate() error {
	return validator.Apply(
		validator.MaxLenString("order_number", o.OrderNumber, 50),
		validator.Check("total_amount", func() error { return checkAmount(o.TotalAmount) }, "must be a non-negative amount with up to 2 decimals"),
	)
}

// Summary is the tenant's data overview.
type Summary struct {
	Schema   string    `json:"schema"`
	Products []Product `json:"products"`
	Orders   []Order   `json:"orders"`
	Counts   struct {
		Products int `json:"products"`
		Orders   int `json:"orders"`
	} `json:"counts"`
}

// Service is stateless; the schema comes from the context of each call.
type Service struct {
	logger *slog.Logger
}

// New creates a catalog service.
func New(l *slog.Logger) *Service {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return &Service{logger: l}
}

// ListProducts returns the products of the active tenant, newest first.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT id, name, price::text, created_at FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, wrap(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		var p Product
		err := row.Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, wrap(err)
	}
	return out, nil
}

// CreateProduct inserts a product into the active tenant.
func (s *Service) CreateProduct(ctx context.Context, in NewProduct) (*Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Price = strings.TrimSpace(in.Price)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	p := Product{Name: in.Name}
	err = q.QueryRow(ctx, `INSERT INTO products (name, price) VALUES ($1, $2::numeric)
		RETURNING id, price::text, created_at`, in.Name, in.Price).Scan(&p.ID, &p.Price, &p.CreatedAt)
	if err != nil {
		return nil, wrap(err)
	}

	s.logger.InfoContext(ctx, "product created", slog.Int64("product_id", p.ID))
	return &p, nil
}

// ListOrders returns the orders of the active tenant, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT id, order_number, total_amount::text, created_at FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, wrap(err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		var o Order
		err := row.Scan(&o.ID, &o.OrderNumber, &o.TotalAmount, &o.CreatedAt)
		return o, err
	})
	if err != nil {
		return nil, wrap(err)
	}
	return out, nil
}

// CreateOrder inserts an order into the active tenant.
func (s *Service) CreateOrder(ctx context.Context, in NewOrder) (*Order, error) {
	in.OrderNumber = strings.TrimSpace(in.OrderNumber)
	in.TotalAmount = strings.TrimSpace(in.TotalAmount)
	if in.OrderNumber == "" {
		in.OrderNumber = GenerateOrderNumber()
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	o := Order{OrderNumber: in.OrderNumber}
	err = q.QueryRow(ctx, `INSERT INTO orders (order_number, total_amount) VALUES ($1, $2::numeric)
		RETURNING id, total_amount::text, created_at`, in.OrderNumber, in.TotalAmount).Scan(&o.ID, &o.TotalAmount, &o.CreatedAt)
	if pg.IsDuplicateKeyError(err) {
		return nil, validator.NewError("order_number", "order number already exists", "validation.unique")
	}
	if err != nil {
		return nil, wrap(err)
	}

	s.logger.InfoContext(ctx, "order created", slog.String("order_number", o.OrderNumber))
	return &o, nil
}

// Summary lists the active tenant's products and orders with their counts.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Schema: schema.FromContext(ctx), Products: products, Orders: orders}
	sum.Counts.Products = len(products)
	sum.Counts.Orders = len(orders)
	return sum, nil
}

// GenerateOrderNumber returns a unique order number such as "ORD-1A2B3C4D5E6F".
func GenerateOrderNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(id[:12])
}

func querier(ctx context.Context) (schema.Querier, error) {
	if schema.IsPublic(schema.FromContext(ctx)) {
		return nil, ErrNotInTenantSchema
	}
	q, err := schema.QuerierFromContext(ctx)
	if err != nil {
		return nil, errors.Join(ErrNotInTenantSchema, err)
	}
	return q, nil
}

func wrap(err error) error {
	if pg.IsUndefinedTableError(err) {
		return errors.Join(ErrNotInTenantSchema, err)
	}
	return errors.Join(ErrQueryFailed, err)
}

func checkAmount(v string) error {
	if !amountPattern.MatchString(v) {
		return errInvalidAmount
	}
	return nil
}
