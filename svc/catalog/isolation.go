package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrymomot/marketplace/pkg/logger"
	"github.com/dmitrymomot/marketplace/pkg/schema"
)

// markerPrefix names the products written by CheckIsolation.
const markerPrefix = "isolation-check:"

// IsolationResult is what one tenant could see during the check.
type IsolationResult struct {
	Schema  string   `json:"schema"`
	Visible []string `json:"visible_markers"`
	Passed  bool     `json:"passed"`
}

// LoadSample writes products and orders into the named tenant schema.
func (s *Service) LoadSample(ctx context.Context, src schema.Source, name string, products []NewProduct, orders []NewOrder) error {
	return schema.Scoped(ctx, src, name, func(ctx context.Context) error {
		for _, p := range products {
			if _, err := s.CreateProduct(ctx, p); err != nil {
				return fmt.Errorf("product %q: %w", p.Name, err)
			}
		}
		for _, o := range orders {
			if _, err := s.CreateOrder(ctx, o); err != nil {
				return fmt.Errorf("order %q: %w", o.OrderNumber, err)
			}
		}
		return nil
	})
}

// CheckIsolation writes a marker product into every given schema, then
// verifies from each schema that only its own marker is visible. Markers are
// removed afterwards. ErrIsolationViolated is returned if any tenant sees
// another tenant's marker.
func (s *Service) CheckIsolation(ctx context.Context, src schema.Source, names []string) ([]IsolationResult, error) {
	defer func() {
		ctx := context.WithoutCancel(ctx)
		for _, name := range names {
			err := schema.Scoped(ctx, src, name, func(ctx context.Context) error {
				q, err := querier(ctx)
				if err != nil {
					return err
				}
				_, err = q.Exec(ctx, `DELETE FROM products WHERE name LIKE $1`, markerPrefix+"%")
				return err
			})
			if err != nil {
				s.logger.WarnContext(ctx, "failed to remove isolation markers",
					logger.Schema(name), logger.Error(err))
			}
		}
	}()

	for _, name := range names {
		err := schema.Scoped(ctx, src, name, func(ctx context.Context) error {
			_, err := s.CreateProduct(ctx, NewProduct{Name: markerPrefix + name, Price: "0"})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("write marker into %s: %w", name, err)
		}
	}

	results := make([]IsolationResult, 0, len(names))
	var violated bool
	for _, name := range names {
		res := IsolationResult{Schema: name}
		err := schema.Scoped(ctx, src, name, func(ctx context.Context) error {
			q, err := querier(ctx)
			if err != nil {
				return err
			}
			rows, err := q.Query(ctx, `SELECT name FROM products WHERE name LIKE $1 ORDER BY name`, markerPrefix+"%")
			if err != nil {
				return wrap(err)
			}
			defer rows.Close()
			for rows.Next() {
				var marker string
				if err := rows.Scan(&marker); err != nil {
					return wrap(err)
				}
				res.Visible = append(res.Visible, marker[len(markerPrefix):])
			}
			return rows.Err()
		})
		if err != nil {
			return nil, fmt.Errorf("read markers from %s: %w", name, err)
		}

		res.Passed = slices.Equal(res.Visible, []string{name})
		violated = violated || !res.Passed
		results = append(results, res)
	}

	if violated {
		return results, ErrIsolationViolated
	}
	s.logger.InfoContext(ctx, "tenant isolation verified", "schemas", len(names))
	return results, nil
}
