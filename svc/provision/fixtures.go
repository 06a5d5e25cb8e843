package provision

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/marketplace/pkg/logger"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// ProductFixture is a sample product row.
type ProductFixture struct {
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
}

// OrderFixture is a sample order row.
type OrderFixture struct {
	OrderNumber string `yaml:"order_number"`
	TotalAmount string `yaml:"total_amount"`
}

// Fixture is a tenant to seed along with optional sample data.
type Fixture struct {
	Params   `yaml:",inline"`
	Products []ProductFixture `yaml:"products"`
	Orders   []OrderFixture   `yaml:"orders"`
}

type fixtureFile struct {
	Tenants []Fixture `yaml:"tenants"`
}

// DefaultFixtures returns the built-in sample tenants.
func DefaultFixtures() []Fixture {
	fixtures, err := LoadFixtures(bytes.NewReader(defaultFixtures))
	if err != nil {
		panic(err)
	}
	return fixtures
}

// LoadFixtures decodes a YAML fixture document with a top-level "tenants" list.
func LoadFixtures(r io.Reader) ([]Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f fixtureFile
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Join(ErrInvalidFixtures, err)
	}
	if len(f.Tenants) == 0 {
		return nil, fmt.Errorf("%w: no tenants defined", ErrInvalidFixtures)
	}
	return f.Tenants, nil
}

// DataLoader writes a fixture's sample rows into its tenant schema.
type DataLoader func(ctx context.Context, f Fixture) error

// SeedReport lists what Seed did per schema.
type SeedReport struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
	Loaded  []string `json:"loaded"`
}

// Seed provisions every fixture whose schema is not registered yet. Existing
// tenants are left untouched, so seeding can be repeated. When load is not
// nil it runs for each newly created tenant.
func (s *Service) Seed(ctx context.Context, fixtures []Fixture, load DataLoader) (*SeedReport, error) {
	report := &SeedReport{}

	for _, f := range fixtures {
		var exists bool
		err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
			var err error
			exists, err = tx.TenantExists(ctx, f.SchemaName)
			return err
		})
		if err != nil {
			return report, err
		}
		if exists {
			s.logger.InfoContext(ctx, "tenant already exists, skipping", slog.String("schema", f.SchemaName))
			report.Skipped = append(report.Skipped, f.SchemaName)
			continue
		}

		if _, err := s.Provision(ctx, f.Params); err != nil {
			return report, fmt.Errorf("seed %s: %w", f.SchemaName, err)
		}
		report.Created = append(report.Created, f.SchemaName)

		if load == nil {
			continue
		}
		if err := load(ctx, f); err != nil {
			s.logger.ErrorContext(ctx, "failed to load sample data", slog.String("schema", f.SchemaName), logger.Error(err))
			return report, fmt.Errorf("load sample data into %s: %w", f.SchemaName, err)
		}
		report.Loaded = append(report.Loaded, f.SchemaName)
	}

	return report, nil
}
