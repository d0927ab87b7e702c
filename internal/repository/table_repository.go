package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableRepo provides CRUD operations for the restaurant's table
// inventory.  It is the concrete Table Catalog used by the booking
// allocator: capacity-indexed lookups run directly against the
// `tables` table so that every allocator invocation sees committed
// inventory, not an in-memory copy.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// Create inserts a new table.  TableNumber and Capacity must already be
// validated by the caller.  After insert the record is read back so the
// ID and timestamp fields are populated.  A duplicate table number is
// reported as ErrTableNumberExists.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const qInsert = `INSERT INTO tables (table_number, capacity) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, t.TableNumber, t.Capacity)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrTableNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	const qSelect = `SELECT id, table_number, capacity, created_at, updated_at FROM tables WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, t.ID).
		Scan(&t.ID, &t.TableNumber, &t.Capacity, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID retrieves a table by its ID.  It returns ErrTableNotFound
// when no row is found.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	const q = `SELECT id, table_number, capacity, created_at, updated_at FROM tables WHERE id = ?`
	var t model.Table
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&t.ID, &t.TableNumber, &t.Capacity, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListAll returns every table ordered by table number.  When the
// catalog is empty an empty slice is returned.
func (r *TableRepo) ListAll(ctx context.Context) ([]model.Table, error) {
	const q = `SELECT id, table_number, capacity, created_at, updated_at FROM tables ORDER BY table_number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Table, 0)
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.TableNumber, &t.Capacity, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Count returns the total number of tables in the catalog.  The
// allocator uses it to distinguish "not provisioned" from "no fit".
func (r *TableRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tables`).Scan(&n)
	return n, err
}

// CountFitting returns how many tables in the whole catalog seat at
// least minCapacity guests, booked or not.
func (r *TableRepo) CountFitting(ctx context.Context, minCapacity uint32) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tables WHERE capacity >= ?`, minCapacity).Scan(&n)
	return n, err
}

// FindSmallestFitting returns the free table with the smallest
// sufficient capacity: capacity >= minCapacity, ID not in excluding,
// ordered by capacity then table number so ties go to the lowest
// numbered table.  It returns (nil, nil) when no candidate exists; the
// allocator decides which refusal that maps to.
func (r *TableRepo) FindSmallestFitting(ctx context.Context, minCapacity uint32, excluding []uint64) (*model.Table, error) {
	q := `SELECT id, table_number, capacity, created_at, updated_at
	      FROM tables
	      WHERE capacity >= ?`
	args := make([]interface{}, 0, len(excluding)+1)
	args = append(args, minCapacity)
	if len(excluding) > 0 {
		placeholders := make([]string, len(excluding))
		for i, id := range excluding {
			placeholders[i] = "?"
			args = append(args, id)
		}
		q += ` AND id NOT IN (` + strings.Join(placeholders, ",") + `)`
	}
	q += ` ORDER BY capacity ASC, table_number ASC LIMIT 1`
	var t model.Table
	err := r.db.QueryRowContext(ctx, q, args...).
		Scan(&t.ID, &t.TableNumber, &t.Capacity, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Update changes a table's number and/or capacity.  Nil pointers leave
// the corresponding column untouched.  The capacity guard (no ACTIVE
// reservation may be orphaned by a shrink) is enforced by the allocator
// before this is called; the repository only applies the write.
func (r *TableRepo) Update(ctx context.Context, id uint64, tableNumber, capacity *uint32) (*model.Table, error) {
	sets := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if tableNumber != nil {
		sets = append(sets, "table_number = ?")
		args = append(args, *tableNumber)
	}
	if capacity != nil {
		sets = append(sets, "capacity = ?")
		args = append(args, *capacity)
	}
	if len(sets) > 0 {
		args = append(args, id)
		q := `UPDATE tables SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		res, err := r.db.ExecContext(ctx, q, args...)
		if err != nil {
			if isDuplicateKey(err) {
				return nil, ErrTableNumberExists
			}
			return nil, err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			// Distinguish "no such table" from "values unchanged"
			if _, err := r.GetByID(ctx, id); err != nil {
				return nil, err
			}
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a table.  It refuses with ErrTableInUse when any
// ACTIVE reservation still references the table, and reports
// ErrTableNotFound when the row does not exist.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	var active int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE table_id = ? AND status = ?`,
		id, model.StatusActive).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrTableInUse
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// isDuplicateKey reports whether err is a MySQL 1062 duplicate entry
// error.  Matching on the error text avoids importing the driver's
// error types here.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
