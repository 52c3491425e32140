package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aman7661/sumitTradingCompany/internal/metrics"
	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeaturedLimit caps the featured product listing.
const FeaturedLimit = 8

type CatalogService struct {
	products repository.ProductRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewCatalogService(products repository.ProductRepository, m *metrics.Metrics, logger *zap.Logger) *CatalogService {
	return &CatalogService{products: products, metrics: m, logger: logger, now: time.Now}
}

// ProductInput is the admin create/update payload. On update, nil fields are left unchanged.
type ProductInput struct {
	Name              *string               `json:"name"`
	Description       *string               `json:"description"`
	Price             *decimal.Decimal      `json:"price"`
	DiscountPrice     *decimal.Decimal      `json:"discountPrice"`
	Category          *string               `json:"category"`
	Subcategory       *string               `json:"subcategory"`
	Brand             *string               `json:"brand"`
	Unit              *string               `json:"unit"`
	Stock             *int                  `json:"stock"`
	LowStockThreshold *int                  `json:"lowStockThreshold"`
	Tags              []string              `json:"tags"`
	Images            []models.ProductImage `json:"images"`
	IsActive          *bool                 `json:"isActive"`
	Featured          *bool                 `json:"featured"`
}

// productRules is the validated view of a product.
type productRules struct {
	Name              string `json:"name" validate:"required,max=200"`
	Description       string `json:"description" validate:"required,max=2000"`
	Category          string `json:"category" validate:"required,category"`
	Subcategory       string `json:"subcategory" validate:"required,max=100"`
	Brand             string `json:"brand" validate:"required,max=100"`
	Unit              string `json:"unit" validate:"required,unit"`
	Stock             int    `json:"stock" validate:"gte=0"`
	LowStockThreshold int    `json:"lowStockThreshold" validate:"gte=0"`
}

// validateProduct returns every rule p violates.
func validateProduct(p *models.Product) []string {
	errs := fieldErrors("", productRules{
		Name:              p.Name,
		Description:       p.Description,
		Category:          p.Category,
		Subcategory:       p.Subcategory,
		Brand:             p.Brand,
		Unit:              p.Unit,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
	})

	if p.Price.IsNegative() {
		errs = append(errs, "price must be at least 0")
	}
	if p.DiscountPrice != nil {
		if p.DiscountPrice.IsNegative() {
			errs = append(errs, "discountPrice must be at least 0")
		}
		if p.DiscountPrice.GreaterThan(p.Price) {
			errs = append(errs, "discountPrice must not exceed price")
		}
	}
	for i, img := range p.Images {
		if strings.TrimSpace(img.URL) == "" {
			errs = append(errs, fmt.Sprintf("images[%d].url is required", i))
		}
	}
	return errs
}

// apply copies the set fields of in onto p.
func (in *ProductInput) apply(p *models.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.DiscountPrice != nil {
		// Zero clears the discount.
		if in.DiscountPrice.IsZero() {
			p.DiscountPrice = nil
		} else {
			d := *in.DiscountPrice
			p.DiscountPrice = &d
		}
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Subcategory != nil {
		p.Subcategory = strings.TrimSpace(*in.Subcategory)
	}
	if in.Brand != nil {
		p.Brand = strings.TrimSpace(*in.Brand)
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.Tags != nil {
		p.Tags = in.Tags
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
}

// ListForCustomers returns active products, newest first.
func (s *CatalogService) ListForCustomers(ctx context.Context) ([]*models.Product, error) {
	return s.list(ctx, repository.ProductFilter{ActiveOnly: true})
}

// ListForAdmin returns every product including hidden ones.
func (s *CatalogService) ListForAdmin(ctx context.Context) ([]*models.Product, error) {
	return s.list(ctx, repository.ProductFilter{})
}

// ListFeatured returns at most FeaturedLimit active featured products.
func (s *CatalogService) ListFeatured(ctx context.Context) ([]*models.Product, error) {
	return s.list(ctx, repository.ProductFilter{ActiveOnly: true, FeaturedOnly: true, Limit: FeaturedLimit})
}

// LowStock returns products at or below their threshold.
func (s *CatalogService) LowStock(ctx context.Context) ([]*models.Product, error) {
	return s.list(ctx, repository.ProductFilter{LowStockOnly: true})
}

func (s *CatalogService) list(ctx context.Context, f repository.ProductFilter) ([]*models.Product, error) {
	products, err := s.products.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetByID returns the product regardless of visibility.
func (s *CatalogService) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	now := s.now()
	p := &models.Product{
		LowStockThreshold: models.DefaultLowStockThreshold,
		IsActive:          true,
		Tags:              []string{},
		Images:            []models.ProductImage{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var errs []string
	if in.Price == nil {
		errs = append(errs, "price is required")
	}
	if in.Stock == nil {
		errs = append(errs, "stock is required")
	}
	in.apply(p)
	errs = append(errs, validateProduct(p)...)
	if len(errs) > 0 {
		return nil, newValidationError("invalid product", errs...)
	}

	p.Slug = slug.Make(p.Name)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info("product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Update applies a partial payload and re-validates the whole product.
func (s *CatalogService) Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.apply(p)
	if errs := validateProduct(p); len(errs) > 0 {
		return nil, newValidationError("invalid product", errs...)
	}

	p.Slug = slug.Make(p.Name)
	p.UpdatedAt = s.now()
	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

// ToggleVisibility flips isActive and returns the updated product.
func (s *CatalogService) ToggleVisibility(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.IsActive = !p.IsActive
	p.UpdatedAt = s.now()
	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("toggle product: %w", err)
	}
	return p, nil
}

// Category is one entry of the fixed category list.
type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (s *CatalogService) Categories() []Category {
	out := make([]Category, len(models.Categories))
	for i, name := range models.Categories {
		out[i] = Category{Name: name, Slug: slug.Make(name)}
	}
	return out
}

// QuoteCart prices a client-held cart against the live catalog. Lines for
// unknown or hidden products are reported in Unavailable and left out of the subtotal.
func (s *CatalogService) QuoteCart(ctx context.Context, lines []models.CartLine) (*models.CartQuote, error) {
	if len(lines) == 0 {
		return nil, newValidationError("invalid cart", "items must contain at least one item")
	}
	var errs []string
	for i, line := range lines {
		errs = append(errs, fieldErrors(fmt.Sprintf("items[%d]", i), line)...)
	}
	if len(errs) > 0 {
		return nil, newValidationError("invalid cart", errs...)
	}

	ids := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("quote cart: %w", err)
	}

	quote := &models.CartQuote{
		Items:       []models.CartQuoteLine{},
		Subtotal:    decimal.Zero,
		Unavailable: []int64{},
	}
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok || !p.IsActive {
			quote.Unavailable = append(quote.Unavailable, line.ProductID)
			continue
		}
		price := p.EffectivePrice()
		lineTotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		quote.Items = append(quote.Items, models.CartQuoteLine{
			ProductID: p.ID,
			Name:      p.Name,
			Unit:      p.Unit,
			Price:     price,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
			Stock:     p.Stock,
		})
		quote.Subtotal = quote.Subtotal.Add(lineTotal)
		quote.TotalItems += line.Quantity
	}
	return quote, nil
}

// RefreshLowStock recounts low-stock products into the gauge and logs them.
func (s *CatalogService) RefreshLowStock(ctx context.Context) (int, error) {
	products, err := s.LowStock(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.LowStockProducts.Set(float64(len(products)))
	for _, p := range products {
		s.logger.Warn("product stock is low",
			zap.Int64("product_id", p.ID),
			zap.String("name", p.Name),
			zap.Int("stock", p.Stock),
			zap.Int("threshold", p.LowStockThreshold))
	}
	return len(products), nil
}
