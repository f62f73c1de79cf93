package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/auto-service/internal/model"
)

// UserRepo provides access to the users and master_services tables.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, phone, full_name, role, created_at`

// UserUpdate is a partial-update value object: nil fields are left
// untouched, non-nil fields are written.  The repository translates it
// into a parameterized UPDATE.
type UserUpdate struct {
	FullName *string
	Role     *string
}

// ServiceSummary is the compact service shape embedded in master
// profiles: just the identifier, name and price.
type ServiceSummary struct {
	ID    uint64          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Phone, &u.FullName, &u.Role, &u.CreatedAt)
	return u, err
}

// Create inserts a user and returns the populated row.  A duplicate
// phone number yields ErrPhoneExists.
func (r *UserRepo) Create(ctx context.Context, phone, fullName, role string) (model.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (phone, full_name, role) VALUES (?, ?, ?)`,
		phone, fullName, role)
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrPhoneExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetByID fetches a user by id.  sql.ErrNoRows when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetOperator fetches a user that exists AND holds the operator role.
// A missing user and a user with a different role both surface as
// sql.ErrNoRows: the ledger treats them identically (operator not found).
func (r *UserRepo) GetOperator(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND role = ?`, id, model.RoleOperator))
}

// List returns users newest first, optionally filtered by role.
func (r *UserRepo) List(ctx context.Context, role string) ([]model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	var args []interface{}
	if role != "" {
		q += " WHERE role = ?"
		args = append(args, role)
	}
	q += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Phone, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies a partial update and returns the refreshed row.
// ErrNoFields when the value object is empty, sql.ErrNoRows when the
// user does not exist.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) (model.User, error) {
	var sets []string
	var args []interface{}
	if upd.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *upd.FullName)
	}
	if upd.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *upd.Role)
	}
	if len(sets) == 0 {
		return model.User{}, ErrNoFields
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return model.User{}, err
	}
	if _, err := res.RowsAffected(); err != nil {
		return model.User{}, err
	}
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// Delete removes a user.  Shifts, transactions and log entries owned by
// the user cascade away through foreign keys.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// ServicesOfMaster lists the services assigned to a master, by name.
func (r *UserRepo) ServicesOfMaster(ctx context.Context, masterID uint64) ([]ServiceSummary, error) {
	const q = `SELECT s.id, s.name, s.price
	           FROM services s
	           JOIN master_services ms ON ms.service_id = s.id
	           WHERE ms.master_id = ?
	           ORDER BY s.name`
	rows, err := r.db.QueryContext(ctx, q, masterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	services := make([]ServiceSummary, 0)
	for rows.Next() {
		var s ServiceSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Price); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return services, nil
}

// AssignService links a service to a master.  A repeated assignment
// yields ErrAssignmentExists via the unique (master, service) key.
func (r *UserRepo) AssignService(ctx context.Context, masterID, serviceID uint64) (model.MasterService, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO master_services (master_id, service_id) VALUES (?, ?)`,
		masterID, serviceID)
	if err != nil {
		if isDuplicateKey(err) {
			return model.MasterService{}, ErrAssignmentExists
		}
		return model.MasterService{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MasterService{}, err
	}
	var ms model.MasterService
	err = r.db.QueryRowContext(ctx,
		`SELECT id, master_id, service_id, created_at FROM master_services WHERE id = ?`, id).
		Scan(&ms.ID, &ms.MasterID, &ms.ServiceID, &ms.CreatedAt)
	return ms, err
}

// UnassignService removes a master-service link and returns the removed
// row.  sql.ErrNoRows when no such assignment exists.
func (r *UserRepo) UnassignService(ctx context.Context, masterID, serviceID uint64) (model.MasterService, error) {
	var ms model.MasterService
	err := r.db.QueryRowContext(ctx,
		`SELECT id, master_id, service_id, created_at FROM master_services WHERE master_id = ? AND service_id = ?`,
		masterID, serviceID).
		Scan(&ms.ID, &ms.MasterID, &ms.ServiceID, &ms.CreatedAt)
	if err != nil {
		return model.MasterService{}, err
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM master_services WHERE id = ?`, ms.ID); err != nil {
		return model.MasterService{}, err
	}
	return ms, nil
}
