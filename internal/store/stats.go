package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nutribowl/storefront/internal/models"
)

// DashboardStats are the admin dashboard counters.
type DashboardStats struct {
	OrdersByStatus   map[models.OrderStatus]int `json:"ordersByStatus"`
	DeliveredRevenue int64                      `json:"deliveredRevenue"`
	CatalogItems     int                        `json:"catalogItems"`
	Customers        int                        `json:"customers"`
}

// LoadDashboardStats counts orders per status, delivered revenue, catalog size and accounts.
func LoadDashboardStats(ctx context.Context, q Querier) (*DashboardStats, error) {
	stats := &DashboardStats{OrdersByStatus: map[models.OrderStatus]int{
		models.StatusPendingConfirmation: 0,
		models.StatusConfirmed:           0,
		models.StatusDelivered:           0,
		models.StatusCancelled:           0,
	}}

	// 1. Orders per status, with revenue of the delivered ones
	rows, err := q.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		GROUP BY status`)
	if err != nil {
		return nil, errors.Wrap(err, "count orders")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status  string
			count   int
			revenue int64
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, errors.Wrap(err, "scan order counts")
		}
		stats.OrdersByStatus[models.OrderStatus(status)] = count
		if models.OrderStatus(status) == models.StatusDelivered {
			stats.DeliveredRevenue = revenue
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate order counts")
	}

	// 2. Catalog size
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM inventory").Scan(&stats.CatalogItems); err != nil {
		return nil, errors.Wrap(err, "count inventory")
	}

	// 3. Registered customers
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&stats.Customers); err != nil {
		return nil, errors.Wrap(err, "count customers")
	}

	return stats, nil
}
