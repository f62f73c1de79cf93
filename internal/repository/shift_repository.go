package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/auto-service/internal/model"
)

// ShiftRepo provides access to the shifts and shift_logs tables.  Shift
// lifecycle transitions are dual writes (shift row + audit log row) and
// always run on a *sql.Tx begun by the caller, so that a reader never
// observes a transition without its log entry.  All timestamps are UTC.
type ShiftRepo struct {
    db *sql.DB
}

// NewShiftRepo returns a new ShiftRepo bound to the given database.
func NewShiftRepo(db *sql.DB) *ShiftRepo { return &ShiftRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *ShiftRepo) DB() *sql.DB { return r.db }

const shiftColumns = `id, operator_id, opened_at, closed_at, status, created_at`

// ShiftDetail is a shift joined with its operator's name and phone, as
// returned by the listing and single-shift endpoints.  Transactions is
// only populated by the single-shift lookup.
type ShiftDetail struct {
    ID           uint64              `json:"id"`
    OperatorID   uint64              `json:"operator_id"`
    FullName     string              `json:"full_name"`
    Phone        string              `json:"phone"`
    OpenedAt     time.Time           `json:"opened_at"`
    ClosedAt     *time.Time          `json:"closed_at"`
    Status       string              `json:"status"`
    CreatedAt    time.Time           `json:"created_at"`
    Transactions []model.Transaction `json:"transactions,omitempty"`
}

// OperatorLogDetail is a shift log entry joined with the owning shift's
// open and close times, used by the per-operator log listing.
type OperatorLogDetail struct {
    model.ShiftLog
    OpenedAt time.Time  `json:"opened_at"`
    ClosedAt *time.Time `json:"closed_at"`
}

func scanShift(row *sql.Row) (model.Shift, error) {
    var s model.Shift
    var closedAt sql.NullTime
    err := row.Scan(&s.ID, &s.OperatorID, &s.OpenedAt, &closedAt, &s.Status, &s.CreatedAt)
    if err != nil {
        return model.Shift{}, err
    }
    if closedAt.Valid {
        t := closedAt.Time
        s.ClosedAt = &t
    }
    return s, nil
}

// OpenTx inserts a new open shift for the operator within the scope of an
// existing transaction and returns the populated row.  The unique key on
// (operator_id, open_flag) makes the insert itself the concurrency guard:
// when the operator already has an open shift the database rejects the
// row and ErrOpenShiftExists is returned.  The caller must commit or
// rollback the transaction.
func (r *ShiftRepo) OpenTx(ctx context.Context, tx *sql.Tx, operatorID uint64) (model.Shift, error) {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO shifts (operator_id, status) VALUES (?, ?)`,
        operatorID, model.ShiftOpen)
    if err != nil {
        if isDuplicateKey(err) {
            return model.Shift{}, ErrOpenShiftExists
        }
        return model.Shift{}, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return model.Shift{}, err
    }
    // Query back the full row to populate database-side defaults.
    return scanShift(tx.QueryRowContext(ctx,
        `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id))
}

// CloseTx transitions a shift from open to closed within the scope of an
// existing transaction.  The UPDATE is conditional on status = 'open', so
// a concurrent close loses the race cleanly: zero affected rows means the
// shift was already closed and ErrShiftClosed is returned.  Clearing
// open_flag releases the operator's open-shift slot.
func (r *ShiftRepo) CloseTx(ctx context.Context, tx *sql.Tx, shiftID uint64) (model.Shift, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE shifts SET status = ?, closed_at = CURRENT_TIMESTAMP, open_flag = NULL WHERE id = ? AND status = ?`,
        model.ShiftClosed, shiftID, model.ShiftOpen)
    if err != nil {
        return model.Shift{}, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return model.Shift{}, err
    }
    if n == 0 {
        return model.Shift{}, ErrShiftClosed
    }
    return scanShift(tx.QueryRowContext(ctx,
        `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, shiftID))
}

// InsertLogTx appends a shift log entry within the scope of an existing
// transaction.  It is always paired with OpenTx or CloseTx in the same
// transaction; committing one without the other would break the audit
// trail.
func (r *ShiftRepo) InsertLogTx(ctx context.Context, tx *sql.Tx, shiftID, operatorID uint64, action, details string) error {
    _, err := tx.ExecContext(ctx,
        `INSERT INTO shift_logs (shift_id, operator_id, action, details) VALUES (?, ?, ?, ?)`,
        shiftID, operatorID, action, details)
    return err
}

// GetLifecycle returns the bare shift row.  It is used for status
// prechecks; sql.ErrNoRows is returned when the shift does not exist.
func (r *ShiftRepo) GetLifecycle(ctx context.Context, shiftID uint64) (model.Shift, error) {
    return scanShift(r.db.QueryRowContext(ctx,
        `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, shiftID))
}

// GetByID returns a shift joined with its operator's name and phone.
// When no shift with the ID exists, sql.ErrNoRows is returned.
func (r *ShiftRepo) GetByID(ctx context.Context, shiftID uint64) (*ShiftDetail, error) {
    const q = `SELECT s.id, s.operator_id, u.full_name, u.phone, s.opened_at, s.closed_at, s.status, s.created_at
               FROM shifts s
               JOIN users u ON u.id = s.operator_id
               WHERE s.id = ?`
    var d ShiftDetail
    var closedAt sql.NullTime
    err := r.db.QueryRowContext(ctx, q, shiftID).Scan(
        &d.ID, &d.OperatorID, &d.FullName, &d.Phone,
        &d.OpenedAt, &closedAt, &d.Status, &d.CreatedAt,
    )
    if err != nil {
        return nil, err
    }
    if closedAt.Valid {
        t := closedAt.Time
        d.ClosedAt = &t
    }
    return &d, nil
}

// List returns shifts joined with operator info, newest first.  Both
// filters are optional: operatorID of zero and an empty status select
// everything.
func (r *ShiftRepo) List(ctx context.Context, operatorID uint64, status string) ([]ShiftDetail, error) {
    q := `SELECT s.id, s.operator_id, u.full_name, u.phone, s.opened_at, s.closed_at, s.status, s.created_at
          FROM shifts s
          JOIN users u ON u.id = s.operator_id`
    var conds []string
    var args []interface{}
    if operatorID != 0 {
        conds = append(conds, "s.operator_id = ?")
        args = append(args, operatorID)
    }
    if status != "" {
        conds = append(conds, "s.status = ?")
        args = append(args, status)
    }
    if len(conds) > 0 {
        q += " WHERE " + strings.Join(conds, " AND ")
    }
    q += " ORDER BY s.opened_at DESC"

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]ShiftDetail, 0)
    for rows.Next() {
        var d ShiftDetail
        var closedAt sql.NullTime
        if err := rows.Scan(
            &d.ID, &d.OperatorID, &d.FullName, &d.Phone,
            &d.OpenedAt, &closedAt, &d.Status, &d.CreatedAt,
        ); err != nil {
            return nil, err
        }
        if closedAt.Valid {
            t := closedAt.Time
            d.ClosedAt = &t
        }
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// ActiveByOperator returns the operator's currently open shift, or nil
// when the operator has none.  At most one open shift can exist per
// operator, enforced by the unique key.
func (r *ShiftRepo) ActiveByOperator(ctx context.Context, operatorID uint64) (*model.Shift, error) {
    s, err := scanShift(r.db.QueryRowContext(ctx,
        `SELECT `+shiftColumns+` FROM shifts WHERE operator_id = ? AND status = ? LIMIT 1`,
        operatorID, model.ShiftOpen))
    if err == sql.ErrNoRows {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    return &s, nil
}

// Logs returns the audit trail of a shift, newest first.
func (r *ShiftRepo) Logs(ctx context.Context, shiftID uint64) ([]model.ShiftLog, error) {
    const q = "SELECT id, shift_id, operator_id, action, `timestamp`, details, created_at FROM shift_logs WHERE shift_id = ? ORDER BY `timestamp` DESC"
    rows, err := r.db.QueryContext(ctx, q, shiftID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    logs := make([]model.ShiftLog, 0)
    for rows.Next() {
        var l model.ShiftLog
        var details sql.NullString
        if err := rows.Scan(&l.ID, &l.ShiftID, &l.OperatorID, &l.Action, &l.Timestamp, &details, &l.CreatedAt); err != nil {
            return nil, err
        }
        if details.Valid {
            d := details.String
            l.Details = &d
        }
        logs = append(logs, l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return logs, nil
}

// LogsByOperator returns all audit entries across an operator's shifts,
// each joined with the owning shift's open and close times.
func (r *ShiftRepo) LogsByOperator(ctx context.Context, operatorID uint64) ([]OperatorLogDetail, error) {
    const q = "SELECT sl.id, sl.shift_id, sl.operator_id, sl.action, sl.`timestamp`, sl.details, sl.created_at, s.opened_at, s.closed_at " +
        "FROM shift_logs sl JOIN shifts s ON s.id = sl.shift_id WHERE sl.operator_id = ? ORDER BY sl.`timestamp` DESC"
    rows, err := r.db.QueryContext(ctx, q, operatorID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    logs := make([]OperatorLogDetail, 0)
    for rows.Next() {
        var l OperatorLogDetail
        var details sql.NullString
        var closedAt sql.NullTime
        if err := rows.Scan(
            &l.ID, &l.ShiftID, &l.OperatorID, &l.Action, &l.Timestamp, &details, &l.CreatedAt,
            &l.OpenedAt, &closedAt,
        ); err != nil {
            return nil, err
        }
        if details.Valid {
            d := details.String
            l.Details = &d
        }
        if closedAt.Valid {
            t := closedAt.Time
            l.ClosedAt = &t
        }
        logs = append(logs, l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return logs, nil
}
