package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/nutribowl/storefront/internal/models"
)

// CreateCustomer inserts a new account. A taken phone yields ErrConflict.
func CreateCustomer(ctx context.Context, q Querier, c *models.Customer) error {
	query := `
		INSERT INTO customers (phone, name, password_hash, password_salt, access_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query, c.Phone, c.Name, c.PasswordHash, c.PasswordSalt, nullString(c.AccessHash), c.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return errors.Wrap(err, "insert customer")
	}
	return nil
}

// GetCustomer loads the account registered with phone.
func GetCustomer(ctx context.Context, q Querier, phone string) (*models.Customer, error) {
	var (
		c          models.Customer
		accessHash sql.NullString
	)
	query := `
		SELECT phone, name, password_hash, password_salt, access_hash, created_at
		FROM customers
		WHERE phone = ?`
	err := q.QueryRowContext(ctx, query, phone).Scan(
		&c.Phone, &c.Name, &c.PasswordHash, &c.PasswordSalt, &accessHash, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "load customer")
	}
	c.AccessHash = stringPtr(accessHash)
	return &c, nil
}

// RotateAccessHash replaces the customer's only valid token hash.
func RotateAccessHash(ctx context.Context, q Querier, phone, accessHash string) error {
	res, err := q.ExecContext(ctx, "UPDATE customers SET access_hash = ? WHERE phone = ?", accessHash, phone)
	if err != nil {
		return errors.Wrap(err, "rotate access hash")
	}
	return rowsAffected(res)
}

// CustomerTokenMatches reports whether accessHash is the current token hash for phone.
func CustomerTokenMatches(ctx context.Context, q Querier, phone, accessHash string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM customers WHERE phone = ? AND access_hash = ?", phone, accessHash).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, errors.Wrap(err, "check customer token")
	}
	return true, nil
}
