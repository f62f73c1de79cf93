package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/auto-service/internal/model"
)

// RecordRepo provides plain CRUD over the legacy records table.
type RecordRepo struct {
	db *sql.DB
}

// NewRecordRepo returns a new RecordRepo bound to the given database.
func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{db: db} }

const recordColumns = `id, client, car, service, price, date, status, payment_amount, comments, cancellation_reason, created_at, updated_at`

// RecordCreate carries the writable fields of a new record.
type RecordCreate struct {
	Client             string
	Car                string
	Service            string
	Price              int
	Date               string
	Status             string
	PaymentAmount      *int
	Comments           string
	CancellationReason *string
}

// RecordUpdate is a partial-update value object: nil fields are left
// untouched, non-nil fields are written.  Clearing a nullable column
// back to NULL through a partial update is not supported.
type RecordUpdate struct {
	Client             *string
	Car                *string
	Service            *string
	Price              *int
	Date               *string
	Status             *string
	PaymentAmount      *int
	Comments           *string
	CancellationReason *string
}

func scanRecord(row *sql.Row) (model.Record, error) {
	var rec model.Record
	var payment sql.NullInt64
	var comments, reason sql.NullString
	err := row.Scan(
		&rec.ID, &rec.Client, &rec.Car, &rec.Service, &rec.Price, &rec.Date,
		&rec.Status, &payment, &comments, &reason, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return model.Record{}, err
	}
	if payment.Valid {
		p := int(payment.Int64)
		rec.PaymentAmount = &p
	}
	if comments.Valid {
		c := comments.String
		rec.Comments = &c
	}
	if reason.Valid {
		s := reason.String
		rec.CancellationReason = &s
	}
	return rec, nil
}

// Create inserts a record and returns the populated row.
func (r *RecordRepo) Create(ctx context.Context, in RecordCreate) (model.Record, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO records (client, car, service, price, date, status, payment_amount, comments, cancellation_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Client, in.Car, in.Service, in.Price, in.Date, in.Status,
		in.PaymentAmount, in.Comments, in.CancellationReason)
	if err != nil {
		return model.Record{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Record{}, err
	}
	return scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id))
}

// GetByID fetches a record by id.  sql.ErrNoRows when absent.
func (r *RecordRepo) GetByID(ctx context.Context, id uint64) (model.Record, error) {
	return scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id))
}

// List returns all records, newest first.
func (r *RecordRepo) List(ctx context.Context) ([]model.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]model.Record, 0)
	for rows.Next() {
		var rec model.Record
		var payment sql.NullInt64
		var comments, reason sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.Client, &rec.Car, &rec.Service, &rec.Price, &rec.Date,
			&rec.Status, &payment, &comments, &reason, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if payment.Valid {
			p := int(payment.Int64)
			rec.PaymentAmount = &p
		}
		if comments.Valid {
			c := comments.String
			rec.Comments = &c
		}
		if reason.Valid {
			s := reason.String
			rec.CancellationReason = &s
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Update applies a partial update and returns the refreshed row.
// ErrNoFields when the value object is empty.
func (r *RecordRepo) Update(ctx context.Context, id uint64, upd RecordUpdate) (model.Record, error) {
	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if upd.Client != nil {
		add("client", *upd.Client)
	}
	if upd.Car != nil {
		add("car", *upd.Car)
	}
	if upd.Service != nil {
		add("service", *upd.Service)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.Date != nil {
		add("date", *upd.Date)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.PaymentAmount != nil {
		add("payment_amount", *upd.PaymentAmount)
	}
	if upd.Comments != nil {
		add("comments", *upd.Comments)
	}
	if upd.CancellationReason != nil {
		add("cancellation_reason", *upd.CancellationReason)
	}
	if len(sets) == 0 {
		return model.Record{}, ErrNoFields
	}
	args = append(args, id)
	if _, err := r.db.ExecContext(ctx,
		`UPDATE records SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return model.Record{}, err
	}
	return scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id))
}

// Delete removes a record.
func (r *RecordRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	return err
}
