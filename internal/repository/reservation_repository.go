package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations.  It is the
// concrete Reservation Ledger used by the booking allocator.  Rows are
// append-and-update only: cancellation is a status change, never a
// DELETE, so the booking history stays auditable.
//
// The table carries a generated column `slot_guard` that is 1 for
// ACTIVE rows and NULL otherwise, plus a unique index on
// (table_id, date, time_slot, slot_guard).  That index is the
// authoritative defense against double booking; the allocator's
// pre-commit re-check only exists to fail fast.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationDetail is a reservation joined with its table, returned to
// customers.  The core never depends on this populated shape; it exists
// only for the boundary.
type ReservationDetail struct {
	ID          uint64    `json:"id"`
	TableID     uint64    `json:"table_id"`
	TableNumber uint32    `json:"table_number"`
	Capacity    uint32    `json:"capacity"`
	Date        string    `json:"date"`
	TimeSlot    string    `json:"time_slot"`
	Guests      uint32    `json:"guests"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdminReservationDetail extends ReservationDetail with the owning
// user's identity for the admin listing.
type AdminReservationDetail struct {
	ReservationDetail
	UserID    uint64 `json:"user_id"`
	UserEmail string `json:"user_email"`
}

// ListFilter narrows the admin reservation listing.  Empty fields are
// ignored.
type ListFilter struct {
	Date   string // exact date match (YYYY-MM-DD)
	Status string // exact status match
}

// Insert persists a new reservation and reads the row back to populate
// ID and timestamps.  A 1062 duplicate-key failure on the active-slot
// unique index is returned as ErrSlotTaken so the allocator can treat
// it as a lost race.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	const qInsert = `INSERT INTO reservations (user_id, table_id, date, time_slot, guests, status)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, qInsert,
		res.UserID, res.TableID, res.Date, res.TimeSlot, res.Guests, res.Status)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSlotTaken
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const qSelect = `SELECT id, user_id, table_id, date, time_slot, guests, status, created_at, updated_at
	                 FROM reservations WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, res.ID).Scan(
		&res.ID, &res.UserID, &res.TableID, &res.Date, &res.TimeSlot,
		&res.Guests, &res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
}

// GetByID retrieves a reservation by ID.  It returns
// ErrReservationNotFound when no row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, user_id, table_id, date, time_slot, guests, status, created_at, updated_at
	           FROM reservations WHERE id = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.UserID, &res.TableID, &res.Date, &res.TimeSlot,
		&res.Guests, &res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ActiveTableIDsFor returns the IDs of tables holding an ACTIVE
// reservation for the exact (date, timeSlot) pair — the booked set used
// by the allocator.  CANCELLED and COMPLETED rows never block a slot.
func (r *ReservationRepo) ActiveTableIDsFor(ctx context.Context, date, timeSlot string) ([]uint64, error) {
	const q = `SELECT DISTINCT table_id FROM reservations
	           WHERE date = ? AND time_slot = ? AND status = ?`
	rows, err := r.db.QueryContext(ctx, q, date, timeSlot, model.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindActiveConflict returns the ACTIVE reservation occupying the given
// (table, date, timeSlot) triple, or nil when the slot is free.  The
// allocator calls this immediately before committing.
func (r *ReservationRepo) FindActiveConflict(ctx context.Context, tableID uint64, date, timeSlot string) (*model.Reservation, error) {
	const q = `SELECT id, user_id, table_id, date, time_slot, guests, status, created_at, updated_at
	           FROM reservations
	           WHERE table_id = ? AND date = ? AND time_slot = ? AND status = ?
	           LIMIT 1`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, tableID, date, timeSlot, model.StatusActive).Scan(
		&res.ID, &res.UserID, &res.TableID, &res.Date, &res.TimeSlot,
		&res.Guests, &res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

// UpdateStatus sets a reservation's status and returns the updated row.
// A 1062 failure can only come from the active-slot unique index (e.g.
// reactivating into a slot that has been re-booked) and is surfaced as
// ErrSlotTaken.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Reservation, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	// Zero rows affected can mean the status was already set; GetByID
	// settles whether the row exists either way.
	return r.GetByID(ctx, id)
}

// CountActiveOverCapacity returns how many ACTIVE reservations on the
// table have more guests than newCapacity.  Used by the resize guard.
func (r *ReservationRepo) CountActiveOverCapacity(ctx context.Context, tableID uint64, newCapacity uint32) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE table_id = ? AND status = ? AND guests > ?`,
		tableID, model.StatusActive, newCapacity).Scan(&n)
	return n, err
}

// ListByUser returns all reservations belonging to a user joined with
// their table, newest date first, earliest slot first within a date.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	const q = `SELECT r.id, r.table_id, t.table_number, t.capacity,
	                  r.date, r.time_slot, r.guests, r.status, r.created_at
	           FROM reservations r
	           JOIN tables t ON t.id = r.table_id
	           WHERE r.user_id = ?
	           ORDER BY r.date DESC, r.time_slot ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		if err := rows.Scan(&d.ID, &d.TableID, &d.TableNumber, &d.Capacity,
			&d.Date, &d.TimeSlot, &d.Guests, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// ListAll returns reservations across all users for administrators,
// optionally filtered by date and status.  Each row is joined with its
// table and owning user.
func (r *ReservationRepo) ListAll(ctx context.Context, filter ListFilter) ([]AdminReservationDetail, error) {
	q := `SELECT r.id, r.table_id, t.table_number, t.capacity,
	             r.date, r.time_slot, r.guests, r.status, r.created_at,
	             u.id, u.email
	      FROM reservations r
	      JOIN tables t ON t.id = r.table_id
	      JOIN users u ON u.id = r.user_id`
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.Date != "" {
		conds = append(conds, "r.date = ?")
		args = append(args, filter.Date)
	}
	if filter.Status != "" {
		conds = append(conds, "r.status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY r.date DESC, r.time_slot ASC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]AdminReservationDetail, 0)
	for rows.Next() {
		var d AdminReservationDetail
		if err := rows.Scan(&d.ID, &d.TableID, &d.TableNumber, &d.Capacity,
			&d.Date, &d.TimeSlot, &d.Guests, &d.Status, &d.CreatedAt,
			&d.UserID, &d.UserEmail); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
