// Package seed loads catalog products and admin accounts from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/aman7661/sumitTradingCompany/internal/service"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type File struct {
	Admins   []Account `yaml:"admins"`
	Products []Product `yaml:"products"`
}

type Account struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Phone    string `yaml:"phone"`
}

type Product struct {
	Name              string                `yaml:"name"`
	Description       string                `yaml:"description"`
	Price             decimal.Decimal       `yaml:"price"`
	DiscountPrice     *decimal.Decimal      `yaml:"discountPrice"`
	Category          string                `yaml:"category"`
	Subcategory       string                `yaml:"subcategory"`
	Brand             string                `yaml:"brand"`
	Unit              string                `yaml:"unit"`
	Stock             int                   `yaml:"stock"`
	LowStockThreshold *int                  `yaml:"lowStockThreshold"`
	Tags              []string              `yaml:"tags"`
	Images            []models.ProductImage `yaml:"images"`
	Featured          bool                  `yaml:"featured"`
	Hidden            bool                  `yaml:"hidden"`
}

func (p Product) input() service.ProductInput {
	active := !p.Hidden
	return service.ProductInput{
		Name:              &p.Name,
		Description:       &p.Description,
		Price:             &p.Price,
		DiscountPrice:     p.DiscountPrice,
		Category:          &p.Category,
		Subcategory:       &p.Subcategory,
		Brand:             &p.Brand,
		Unit:              &p.Unit,
		Stock:             &p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		Tags:              p.Tags,
		Images:            p.Images,
		IsActive:          &active,
		Featured:          &p.Featured,
	}
}

// Parse decodes a seed file. Unknown keys are rejected so typos surface.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Result counts what Apply created and skipped.
type Result struct {
	AdminsCreated   int
	AdminsSkipped   int
	ProductsCreated int
	ProductsSkipped int
}

type Seeder struct {
	store   *repository.Store
	catalog *service.CatalogService
	users   *service.UserService
	logger  *zap.Logger
}

func NewSeeder(store *repository.Store, catalog *service.CatalogService, users *service.UserService, logger *zap.Logger) *Seeder {
	return &Seeder{store: store, catalog: catalog, users: users, logger: logger}
}

// Apply creates the accounts and products in f. Existing admins (by email)
// and products (by slug) are skipped, so re-running a file is safe.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	res := &Result{}

	// 1. --- Admin accounts ---
	for _, a := range f.Admins {
		_, err := s.store.Users.GetByEmail(ctx, a.Email)
		switch {
		case err == nil:
			res.AdminsSkipped++
			continue
		case !errors.Is(err, repository.ErrNotFound):
			return res, fmt.Errorf("look up admin %s: %w", a.Email, err)
		}

		_, err = s.users.CreateUser(ctx, service.RegisterInput{
			Name:     a.Name,
			Email:    a.Email,
			Password: a.Password,
			Phone:    a.Phone,
		}, models.RoleAdmin)
		if err != nil {
			return res, fmt.Errorf("create admin %s: %w", a.Email, err)
		}
		res.AdminsCreated++
	}

	// 2. --- Catalog products ---
	existing, err := s.store.Products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return res, fmt.Errorf("list products: %w", err)
	}
	slugs := make(map[string]bool, len(existing))
	for _, p := range existing {
		slugs[p.Slug] = true
	}

	for i, p := range f.Products {
		key := slug.Make(p.Name)
		if slugs[key] {
			res.ProductsSkipped++
			continue
		}
		if _, err := s.catalog.Create(ctx, p.input()); err != nil {
			return res, fmt.Errorf("create product %d (%s): %w", i, p.Name, err)
		}
		slugs[key] = true
		res.ProductsCreated++
	}

	s.logger.Info("seed applied",
		zap.Int("admins_created", res.AdminsCreated),
		zap.Int("admins_skipped", res.AdminsSkipped),
		zap.Int("products_created", res.ProductsCreated),
		zap.Int("products_skipped", res.ProductsSkipped))
	return res, nil
}
