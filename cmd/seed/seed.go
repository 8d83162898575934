package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/usecase"
)

type bundleSeed struct {
	ID               string          `yaml:"id"`
	Provider         string          `yaml:"provider"`
	PlanName         string          `yaml:"plan_name"`
	MonthlyPrice     decimal.Decimal `yaml:"monthly_price"`
	IncludedServices []string        `yaml:"included_services"`
	Active           *bool           `yaml:"active"`
}

type seedData struct {
	Catalog []*model.CatalogService `yaml:"catalog"`
	Bundles []bundleSeed            `yaml:"bundles"`
}

type seedResult struct {
	Catalog int
	Bundles int
}

func loadSeed(path string) (*seedData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return parseSeed(b)
}

func parseSeed(b []byte) (*seedData, error) {
	var data seedData
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	seen := map[string]bool{}
	for i, s := range data.Catalog {
		if s == nil || strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("catalog[%d]: id and name are required", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("catalog[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
	}
	seen = map[string]bool{}
	for i, b := range data.Bundles {
		if strings.TrimSpace(b.ID) == "" {
			return nil, fmt.Errorf("bundles[%d]: id is required", i)
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("bundles[%d]: duplicate id %q", i, b.ID)
		}
		seen[b.ID] = true
	}
	return &data, nil
}

// apply writes the catalog in one transaction, then upserts bundles through
// the use case so they get the same validation as the admin API.
func apply(
	ctx context.Context,
	data *seedData,
	tm repository.TransactionManager,
	catalog repository.CatalogRepository,
	bundles usecase.BundleUseCase,
) (seedResult, error) {
	var res seedResult
	if len(data.Catalog) > 0 {
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			for _, s := range data.Catalog {
				if err := catalog.Save(ctx, tx, s); err != nil {
					return fmt.Errorf("catalog %q: %w", s.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return res, err
		}
		res.Catalog = len(data.Catalog)
	}

	for _, b := range data.Bundles {
		bundle := &model.Bundle{
			ID:               b.ID,
			Provider:         b.Provider,
			PlanName:         b.PlanName,
			MonthlyPrice:     b.MonthlyPrice,
			IncludedServices: b.IncludedServices,
			IsActive:         b.Active == nil || *b.Active,
		}
		if err := bundles.Upsert(ctx, bundle); err != nil {
			return res, fmt.Errorf("bundle %q: %w", b.ID, err)
		}
		res.Bundles++
	}
	return res, nil
}
