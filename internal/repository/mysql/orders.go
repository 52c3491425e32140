package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_number, user_id, total, shipping_address, payment_method, payment_status,
	payment_intent_id, order_notes, status, tracking_number, version, created_at, updated_at`

const (
	insertOrder = `INSERT INTO orders (order_number, user_id, total, shipping_address, payment_method,
	payment_status, payment_intent_id, order_notes, status, tracking_number, version, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertOrderItem = `INSERT INTO order_items (order_id, position, product_id, name, price, quantity)
	VALUES (?, ?, ?, ?, ?, ?)`
	updateOrderStatus = `UPDATE orders SET status = ?, tracking_number = ?, updated_at = ?, version = version + 1
	WHERE id = ? AND version = ?`
)

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o        models.Order
		address  []byte
		intentID sql.NullString
		notes    sql.NullString
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Total, &address, &o.PaymentMethod, &o.PaymentStatus,
		&intentID, &notes, &o.Status, &o.TrackingNumber, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.PaymentIntentID = intentID.String
	o.OrderNotes = notes.String
	if err := scanJSON(address, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	address, err := jsonColumn(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	// 1. --- Insert the order row ---
	result, err := tx.ExecContext(ctx, insertOrder,
		o.OrderNumber, o.UserID, o.Total, address, o.PaymentMethod,
		o.PaymentStatus, nullString(o.PaymentIntentID), o.OrderNotes, o.Status, o.TrackingNumber, o.Version,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		switch {
		case isDuplicateKey(err, intentUniqueKey):
			return repository.ErrIntentTaken
		case isDuplicate(err):
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert order: %w", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert order id: %w", err)
	}

	// 2. --- Insert the item snapshot ---
	for i, item := range o.Items {
		if _, err := tx.ExecContext(ctx, insertOrderItem,
			orderID, i, item.ProductID, item.Name, item.Price, item.Quantity,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	o.ID = orderID
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE id = ?"
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	if err := r.attachItems(ctx, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	if intentID == "" {
		return nil, repository.ErrNotFound
	}
	query := "SELECT " + orderColumns + " FROM orders WHERE payment_intent_id = ?"
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, intentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get order by intent: %w", err)
	}
	if err := r.attachItems(ctx, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	return r.queryOrders(ctx, query, userID)
}

func (r *OrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]*models.Order, int, error) {
	where := ""
	args := []any{}
	if f.Status != "" {
		where = " WHERE status = ?"
		args = append(args, f.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := "SELECT " + orderColumns + " FROM orders" + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	orders, err := r.queryOrders(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, o *models.Order, expectedVersion int) error {
	result, err := r.db.ExecContext(ctx, updateOrderStatus,
		o.Status, o.TrackingNumber, o.UpdatedAt, o.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update order %d status: %w", o.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Either the order is gone or someone else bumped the version.
		var exists int
		err := r.db.QueryRowContext(ctx, "SELECT 1 FROM orders WHERE id = ?", o.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check order %d: %w", o.ID, err)
		}
		return repository.ErrStale
	}
	o.Version = expectedVersion + 1
	return nil
}

func (r *OrderRepository) StatusBreakdown(ctx context.Context) ([]models.StatusStat, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*), COALESCE(SUM(total), 0) FROM orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	defer rows.Close()

	byStatus := make(map[models.OrderStatus]models.StatusStat)
	for rows.Next() {
		var s models.StatusStat
		if err := rows.Scan(&s.Status, &s.Count, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan status breakdown: %w", err)
		}
		byStatus[s.Status] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make([]models.StatusStat, 0, len(byStatus))
	for _, st := range models.OrderStatuses {
		if s, ok := byStatus[st]; ok {
			stats = append(stats, s)
		}
	}
	return stats, nil
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *OrderRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> ?", models.StatusCancelled,
	).Scan(&revenue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	return revenue, nil
}

func (r *OrderRepository) Recent(ctx context.Context, n int) ([]*models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders ORDER BY created_at DESC, id DESC LIMIT ?"
	return r.queryOrders(ctx, query, n)
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the item snapshots for every order in one query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		o.Items = []models.OrderItem{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := "SELECT order_id, product_id, name, price, quantity FROM order_items WHERE order_id IN (" +
		placeholders(len(ids)) + ") ORDER BY order_id, position"
	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			item    models.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}
