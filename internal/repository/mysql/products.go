package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/shopspring/decimal"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, slug, description, price, discount_price, stock, low_stock_threshold,
	category, subcategory, brand, unit, tags, is_active, featured, images,
	rating_average, rating_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p        models.Product
		discount decimal.NullDecimal
		tags     []byte
		images   []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &discount, &p.Stock, &p.LowStockThreshold,
		&p.Category, &p.Subcategory, &p.Brand, &p.Unit, &tags, &p.IsActive, &p.Featured, &images,
		&p.Ratings.Average, &p.Ratings.Count, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if discount.Valid {
		p.DiscountPrice = &discount.Decimal
	}
	if err := scanJSON(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := scanJSON(images, &p.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, f repository.ProductFilter) ([]*models.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	if f.FeaturedOnly {
		where = append(where, "featured = TRUE")
	}
	if f.LowStockOnly {
		where = append(where, "stock <= low_stock_threshold")
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = ?"
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *ProductRepository) GetMany(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	out := make(map[int64]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := "SELECT " + productColumns + " FROM products WHERE id IN (" + placeholders(len(ids)) + ")"
	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func productArgs(p *models.Product) ([]any, error) {
	tags, err := jsonColumn(nonNilStrings(p.Tags))
	if err != nil {
		return nil, err
	}
	images, err := jsonColumn(nonNilImages(p.Images))
	if err != nil {
		return nil, err
	}
	var discount decimal.NullDecimal
	if p.DiscountPrice != nil {
		discount = decimal.NewNullDecimal(*p.DiscountPrice)
	}
	return []any{
		p.Name, p.Slug, p.Description, p.Price, discount, p.Stock, p.LowStockThreshold,
		p.Category, p.Subcategory, p.Brand, p.Unit, tags, p.IsActive, p.Featured, images,
		p.Ratings.Average, p.Ratings.Count,
	}, nil
}

const insertProduct = `INSERT INTO products (name, slug, description, price, discount_price, stock, low_stock_threshold,
	category, subcategory, brand, unit, tags, is_active, featured, images,
	rating_average, rating_count, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	args, err := productArgs(p)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}
	args = append(args, p.CreatedAt, p.UpdatedAt)

	result, err := r.db.ExecContext(ctx, insertProduct, args...)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert product id: %w", err)
	}
	p.ID = id
	return nil
}

const updateProduct = `UPDATE products SET name = ?, slug = ?, description = ?, price = ?, discount_price = ?,
	stock = ?, low_stock_threshold = ?, category = ?, subcategory = ?, brand = ?, unit = ?, tags = ?,
	is_active = ?, featured = ?, images = ?, rating_average = ?, rating_count = ?, updated_at = ?
	WHERE id = ?`

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	args, err := productArgs(p)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}
	args = append(args, p.UpdatedAt, p.ID)

	result, err := r.db.ExecContext(ctx, updateProduct, args...)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	return r.requireRow(ctx, result, p.ID)
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// requireRow tells "no such product" apart from "nothing changed": MySQL
// reports zero affected rows for an UPDATE that writes identical values.
func (r *ProductRepository) requireRow(ctx context.Context, result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilImages(s []models.ProductImage) []models.ProductImage {
	if s == nil {
		return []models.ProductImage{}
	}
	return s
}
