// Package mysql implements the repositories on MySQL through database/sql.
package mysql

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/aman7661/sumitTradingCompany/internal/repository"
	gomysql "github.com/go-sql-driver/mysql"
)

const (
	errDuplicateEntry = 1062

	// intentUniqueKey is the unique index on orders.payment_intent_id.
	intentUniqueKey = "uq_orders_intent"
)

// NewStore wires every repository to db.
func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		Products:  NewProductRepository(db),
		Orders:    NewOrderRepository(db),
		Users:     NewUserRepository(db),
		Sequences: repository.NewMySQLSequence(db),
	}
}

func isDuplicate(err error) bool {
	var myErr *gomysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}

// isDuplicateKey reports a duplicate entry on the named unique index. MySQL
// names the index in the message ("... for key 'orders.uq_orders_intent'").
func isDuplicateKey(err error, key string) bool {
	var myErr *gomysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry &&
		strings.Contains(myErr.Message, key)
}

// nullString stores an empty string as NULL, so optional values stay out of
// unique indexes.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// jsonColumn marshals v for a JSON column. A nil slice encodes as null, so
// list columns go through nonNilStrings/nonNilImages first.
func jsonColumn(v any) ([]byte, error) {
	return json.Marshal(v)
}

// scanJSON decodes a nullable JSON column into dst.
func scanJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
