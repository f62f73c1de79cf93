package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/auto-service/internal/model"
)

// TransactionRepo provides access to the transactions table.  Ledger
// entries are append-only: payments and cancellations are only ever
// inserted, never updated or deleted.  Amounts are DECIMAL(10,2) in the
// database and exact decimals in Go.
type TransactionRepo struct {
    db *sql.DB
}

// NewTransactionRepo returns a new TransactionRepo bound to the given database.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *TransactionRepo) DB() *sql.DB { return r.db }

const txnColumns = `id, shift_id, operator_id, amount, transaction_type, description, related_transaction_id, created_at`

// TransactionDetail is a ledger entry joined with the operator's name,
// as returned by the listing and single-entry endpoints.
type TransactionDetail struct {
    model.Transaction
    FullName string `json:"full_name"`
}

// ShiftTotals aggregates a shift's ledger: the payment and cancellation
// sums and counts, and the net (payments minus cancellations).  A shift
// with no transactions yields all-zero totals.
type ShiftTotals struct {
    TotalPayments      decimal.Decimal `json:"total_payments"`
    TotalCancellations decimal.Decimal `json:"total_cancellations"`
    NetAmount          decimal.Decimal `json:"net_amount"`
    PaymentCount       int64           `json:"payment_count"`
    CancellationCount  int64           `json:"cancellation_count"`
}

// ReportRow is a ledger entry joined with its owning shift's open and
// close times, used by the operator report.
type ReportRow struct {
    ID          uint64          `json:"id"`
    ShiftID     uint64          `json:"shift_id"`
    OpenedAt    time.Time       `json:"opened_at"`
    ClosedAt    *time.Time      `json:"closed_at"`
    Amount      decimal.Decimal `json:"amount"`
    Type        string          `json:"transaction_type"`
    Description *string         `json:"description"`
    CreatedAt   time.Time       `json:"created_at"`
}

func scanTransaction(row *sql.Row) (model.Transaction, error) {
    var t model.Transaction
    var desc sql.NullString
    var related sql.NullInt64
    err := row.Scan(&t.ID, &t.ShiftID, &t.OperatorID, &t.Amount, &t.Type, &desc, &related, &t.CreatedAt)
    if err != nil {
        return model.Transaction{}, err
    }
    if desc.Valid {
        d := desc.String
        t.Description = &d
    }
    if related.Valid {
        id := uint64(related.Int64)
        t.RelatedTransactionID = &id
    }
    return t, nil
}

// CreatePayment inserts a payment entry and returns the populated row.
// Shift status and operator ownership checks belong to the caller; the
// repository only persists.
func (r *TransactionRepo) CreatePayment(ctx context.Context, shiftID, operatorID uint64, amount decimal.Decimal, description *string) (model.Transaction, error) {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO transactions (shift_id, operator_id, amount, transaction_type, description) VALUES (?, ?, ?, ?, ?)`,
        shiftID, operatorID, amount, model.TxnPayment, description)
    if err != nil {
        return model.Transaction{}, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return model.Transaction{}, err
    }
    return scanTransaction(r.db.QueryRowContext(ctx,
        `SELECT `+txnColumns+` FROM transactions WHERE id = ?`, id))
}

// CreateCancellationTx inserts a compensating entry for the given payment
// within the scope of an existing transaction.  Shift, operator and
// amount are copied from the original; the new entry points back at it
// through related_transaction_id.  The original row is never touched.
func (r *TransactionRepo) CreateCancellationTx(ctx context.Context, tx *sql.Tx, original model.Transaction, reason string) (model.Transaction, error) {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO transactions (shift_id, operator_id, amount, transaction_type, description, related_transaction_id) VALUES (?, ?, ?, ?, ?, ?)`,
        original.ShiftID, original.OperatorID, original.Amount, model.TxnCancellation, reason, original.ID)
    if err != nil {
        return model.Transaction{}, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return model.Transaction{}, err
    }
    return scanTransaction(tx.QueryRowContext(ctx,
        `SELECT `+txnColumns+` FROM transactions WHERE id = ?`, id))
}

// GetPayment returns the transaction only when it exists and is of type
// payment; otherwise sql.ErrNoRows.  Cancellations cannot themselves be
// cancelled.
func (r *TransactionRepo) GetPayment(ctx context.Context, id uint64) (model.Transaction, error) {
    return scanTransaction(r.db.QueryRowContext(ctx,
        `SELECT `+txnColumns+` FROM transactions WHERE id = ? AND transaction_type = ?`,
        id, model.TxnPayment))
}

// GetByID returns a single ledger entry joined with the operator's name.
func (r *TransactionRepo) GetByID(ctx context.Context, id uint64) (*TransactionDetail, error) {
    const q = `SELECT t.id, t.shift_id, t.operator_id, u.full_name, t.amount, t.transaction_type, t.description, t.related_transaction_id, t.created_at
               FROM transactions t
               JOIN users u ON u.id = t.operator_id
               WHERE t.id = ?`
    var d TransactionDetail
    var desc sql.NullString
    var related sql.NullInt64
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &d.ID, &d.ShiftID, &d.OperatorID, &d.FullName,
        &d.Amount, &d.Type, &desc, &related, &d.CreatedAt,
    )
    if err != nil {
        return nil, err
    }
    if desc.Valid {
        s := desc.String
        d.Description = &s
    }
    if related.Valid {
        rid := uint64(related.Int64)
        d.RelatedTransactionID = &rid
    }
    return &d, nil
}

// List returns ledger entries joined with operator names, newest first.
// Both filters are optional; zero values select everything.
func (r *TransactionRepo) List(ctx context.Context, shiftID, operatorID uint64) ([]TransactionDetail, error) {
    q := `SELECT t.id, t.shift_id, t.operator_id, u.full_name, t.amount, t.transaction_type, t.description, t.related_transaction_id, t.created_at
          FROM transactions t
          JOIN users u ON u.id = t.operator_id`
    var conds []string
    var args []interface{}
    if shiftID != 0 {
        conds = append(conds, "t.shift_id = ?")
        args = append(args, shiftID)
    }
    if operatorID != 0 {
        conds = append(conds, "t.operator_id = ?")
        args = append(args, operatorID)
    }
    if len(conds) > 0 {
        q += " WHERE " + strings.Join(conds, " AND ")
    }
    q += " ORDER BY t.created_at DESC"

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]TransactionDetail, 0)
    for rows.Next() {
        var d TransactionDetail
        var desc sql.NullString
        var related sql.NullInt64
        if err := rows.Scan(
            &d.ID, &d.ShiftID, &d.OperatorID, &d.FullName,
            &d.Amount, &d.Type, &desc, &related, &d.CreatedAt,
        ); err != nil {
            return nil, err
        }
        if desc.Valid {
            s := desc.String
            d.Description = &s
        }
        if related.Valid {
            rid := uint64(related.Int64)
            d.RelatedTransactionID = &rid
        }
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// ListByShift returns all ledger entries of a shift, newest first.  Used
// to embed transactions in the single-shift response.
func (r *TransactionRepo) ListByShift(ctx context.Context, shiftID uint64) ([]model.Transaction, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+txnColumns+` FROM transactions WHERE shift_id = ? ORDER BY created_at DESC`, shiftID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    txns := make([]model.Transaction, 0)
    for rows.Next() {
        var t model.Transaction
        var desc sql.NullString
        var related sql.NullInt64
        if err := rows.Scan(&t.ID, &t.ShiftID, &t.OperatorID, &t.Amount, &t.Type, &desc, &related, &t.CreatedAt); err != nil {
            return nil, err
        }
        if desc.Valid {
            d := desc.String
            t.Description = &d
        }
        if related.Valid {
            id := uint64(related.Int64)
            t.RelatedTransactionID = &id
        }
        txns = append(txns, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return txns, nil
}

// Totals aggregates a shift's ledger in the database.  The aggregate
// always yields one row; a shift without transactions produces zeros.
// Shift existence is checked by the caller.
func (r *TransactionRepo) Totals(ctx context.Context, shiftID uint64) (ShiftTotals, error) {
    const q = `SELECT
                 COALESCE(SUM(CASE WHEN transaction_type = 'payment' THEN amount ELSE 0 END), 0),
                 COALESCE(SUM(CASE WHEN transaction_type = 'cancellation' THEN amount ELSE 0 END), 0),
                 COUNT(CASE WHEN transaction_type = 'payment' THEN 1 END),
                 COUNT(CASE WHEN transaction_type = 'cancellation' THEN 1 END)
               FROM transactions
               WHERE shift_id = ?`
    var t ShiftTotals
    err := r.db.QueryRowContext(ctx, q, shiftID).Scan(
        &t.TotalPayments, &t.TotalCancellations, &t.PaymentCount, &t.CancellationCount,
    )
    if err != nil {
        return ShiftTotals{}, err
    }
    t.NetAmount = t.TotalPayments.Sub(t.TotalCancellations)
    return t, nil
}

// ReportRows returns an operator's ledger entries joined with shift open
// and close times, optionally bounded by an inclusive created_at range.
// Date bounds are passed through as given ("YYYY-MM-DD" or a full
// timestamp); empty strings disable the bound.
func (r *TransactionRepo) ReportRows(ctx context.Context, operatorID uint64, startDate, endDate string) ([]ReportRow, error) {
    q := `SELECT t.id, t.shift_id, s.opened_at, s.closed_at, t.amount, t.transaction_type, t.description, t.created_at
          FROM transactions t
          JOIN shifts s ON s.id = t.shift_id
          WHERE t.operator_id = ?`
    args := []interface{}{operatorID}
    if startDate != "" {
        q += " AND t.created_at >= ?"
        args = append(args, startDate)
    }
    if endDate != "" {
        q += " AND t.created_at <= ?"
        args = append(args, endDate)
    }
    q += " ORDER BY t.created_at DESC"

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    report := make([]ReportRow, 0)
    for rows.Next() {
        var row ReportRow
        var desc sql.NullString
        var closedAt sql.NullTime
        if err := rows.Scan(
            &row.ID, &row.ShiftID, &row.OpenedAt, &closedAt,
            &row.Amount, &row.Type, &desc, &row.CreatedAt,
        ); err != nil {
            return nil, err
        }
        if desc.Valid {
            s := desc.String
            row.Description = &s
        }
        if closedAt.Valid {
            t := closedAt.Time
            row.ClosedAt = &t
        }
        report = append(report, row)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return report, nil
}
