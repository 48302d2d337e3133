package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/premik/internal/model"
)

// CreateCustomer creates a new customer.
func CreateCustomer(ctx context.Context, db *sql.DB, name string) (*model.Customer, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO customers (name) VALUES (?)`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting customer id: %w", err)
	}

	return GetCustomer(ctx, db, id)
}

// GetCustomer returns a customer by ID.
func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*model.Customer, error) {
	c := &model.Customer{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, status, created_at, deleted_at FROM customers WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns all non-deleted customers.
func ListCustomers(ctx context.Context, db *sql.DB) ([]model.Customer, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, status, created_at, deleted_at
		 FROM customers WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// UpdateCustomer updates a customer's name and status.
func UpdateCustomer(ctx context.Context, db *sql.DB, id int64, name, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE customers SET name = ?, status = ? WHERE id = ? AND deleted_at IS NULL`,
		name, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating customer: %w", err)
	}
	return nil
}

// DeleteCustomer soft-deletes a customer.
func DeleteCustomer(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE customers SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}
	return nil
}

// CreateCustomerLocation creates a drop-off site for a customer.
func CreateCustomerLocation(ctx context.Context, db *sql.DB, customerID int64, name string) (*model.CustomerLocation, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO customer_locations (customer_id, name) VALUES (?, ?)`,
		customerID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating customer location: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting customer location id: %w", err)
	}

	return GetCustomerLocation(ctx, db, id)
}

// GetCustomerLocation returns a customer location by ID, including its rate table.
func GetCustomerLocation(ctx context.Context, db *sql.DB, id int64) (*model.CustomerLocation, error) {
	cl := &model.CustomerLocation{}
	err := db.QueryRowContext(ctx,
		`SELECT cl.id, cl.customer_id, cl.name, cl.created_at, cl.deleted_at, c.name
		 FROM customer_locations cl
		 JOIN customers c ON c.id = cl.customer_id
		 WHERE cl.id = ?`, id,
	).Scan(&cl.ID, &cl.CustomerID, &cl.Name, &cl.CreatedAt, &cl.DeletedAt, &cl.CustomerName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer location: %w", err)
	}

	cl.RateTable, err = GetRateTable(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// ListCustomerLocations returns non-deleted customer locations, optionally
// filtered by customer.
func ListCustomerLocations(ctx context.Context, db *sql.DB, customerID int64) ([]model.CustomerLocation, error) {
	query := `SELECT cl.id, cl.customer_id, cl.name, cl.created_at, cl.deleted_at, c.name
	          FROM customer_locations cl
	          JOIN customers c ON c.id = cl.customer_id
	          WHERE cl.deleted_at IS NULL`
	var args []any

	if customerID > 0 {
		query += ` AND cl.customer_id = ?`
		args = append(args, customerID)
	}
	query += ` ORDER BY c.name, cl.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing customer locations: %w", err)
	}
	defer rows.Close()

	var locations []model.CustomerLocation
	for rows.Next() {
		var cl model.CustomerLocation
		if err := rows.Scan(&cl.ID, &cl.CustomerID, &cl.Name, &cl.CreatedAt, &cl.DeletedAt, &cl.CustomerName); err != nil {
			return nil, fmt.Errorf("scanning customer location: %w", err)
		}
		locations = append(locations, cl)
	}
	return locations, rows.Err()
}

// UpdateCustomerLocation updates a customer location's name.
func UpdateCustomerLocation(ctx context.Context, db *sql.DB, id int64, name string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE customer_locations SET name = ? WHERE id = ? AND deleted_at IS NULL`,
		name, id,
	)
	if err != nil {
		return fmt.Errorf("updating customer location: %w", err)
	}
	return nil
}

// DeleteCustomerLocation soft-deletes a customer location.
func DeleteCustomerLocation(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE customer_locations SET deleted_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if err != nil {
		return fmt.Errorf("deleting customer location: %w", err)
	}
	return nil
}

// GetRateTable returns the full rate table of a customer location.
func GetRateTable(ctx context.Context, q Querier, customerLocationID int64) (map[string]decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT type_code, rate FROM customer_location_rates
		 WHERE customer_location_id = ? ORDER BY type_code`,
		customerLocationID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting rate table: %w", err)
	}
	defer rows.Close()

	table := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			typeCode string
			rateStr  string
		)
		if err := rows.Scan(&typeCode, &rateStr); err != nil {
			return nil, fmt.Errorf("scanning rate: %w", err)
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing rate %q for %s: %w", rateStr, typeCode, err)
		}
		table[typeCode] = rate
	}
	return table, rows.Err()
}

// GetRate returns the rate for a type code at a customer location. The
// second result reports whether a rate entry exists; a missing entry is
// not an error (callers snapshot zero instead).
func GetRate(ctx context.Context, q Querier, customerLocationID int64, typeCode string) (decimal.Decimal, bool, error) {
	var rateStr string
	err := q.QueryRowContext(ctx,
		`SELECT rate FROM customer_location_rates
		 WHERE customer_location_id = ? AND type_code = ?`,
		customerLocationID, typeCode,
	).Scan(&rateStr)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("getting rate: %w", err)
	}

	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parsing rate %q: %w", rateStr, err)
	}
	return rate, true, nil
}

// SetRate upserts one rate table entry.
func SetRate(ctx context.Context, db *sql.DB, customerLocationID int64, typeCode string, rate decimal.Decimal) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO customer_location_rates (customer_location_id, type_code, rate)
		 VALUES (?, ?, ?)
		 ON CONFLICT (customer_location_id, type_code) DO UPDATE SET rate = excluded.rate`,
		customerLocationID, typeCode, rate.String(),
	)
	if err != nil {
		return fmt.Errorf("setting rate: %w", err)
	}
	return nil
}

// ReplaceRateTable replaces a customer location's rate table in one transaction.
func ReplaceRateTable(ctx context.Context, db *sql.DB, customerLocationID int64, table map[string]decimal.Decimal) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM customer_location_rates WHERE customer_location_id = ?`,
		customerLocationID,
	); err != nil {
		return fmt.Errorf("clearing rate table: %w", err)
	}

	for typeCode, rate := range table {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO customer_location_rates (customer_location_id, type_code, rate)
			 VALUES (?, ?, ?)`,
			customerLocationID, typeCode, rate.String(),
		); err != nil {
			return fmt.Errorf("inserting rate for %s: %w", typeCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rate table: %w", err)
	}
	return nil
}
