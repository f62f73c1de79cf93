package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/auto-service/internal/model"
)

// ServiceRepo provides access to the services catalog.  Reads hydrate
// the masters assigned to each service so the front-end can render a
// catalog row in one request.
type ServiceRepo struct {
	db *sql.DB
}

// NewServiceRepo returns a new ServiceRepo bound to the given database.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

const serviceColumns = `id, name, price, description, created_at`

// ServiceUpdate is a partial-update value object for services.
type ServiceUpdate struct {
	Name        *string
	Price       *decimal.Decimal
	Description *string
}

// MasterSummary is the compact user shape embedded in catalog rows.
type MasterSummary struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// ServiceDetail is a catalog entry with its assigned masters.
type ServiceDetail struct {
	model.Service
	Masters []MasterSummary `json:"masters"`
}

func scanService(row *sql.Row) (model.Service, error) {
	var s model.Service
	var desc sql.NullString
	err := row.Scan(&s.ID, &s.Name, &s.Price, &desc, &s.CreatedAt)
	if err != nil {
		return model.Service{}, err
	}
	if desc.Valid {
		d := desc.String
		s.Description = &d
	}
	return s, nil
}

// Create inserts a catalog entry and returns the populated row.  A
// duplicate name yields ErrNameExists.
func (r *ServiceRepo) Create(ctx context.Context, name string, price decimal.Decimal, description *string) (model.Service, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO services (name, price, description) VALUES (?, ?, ?)`,
		name, price, description)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Service{}, ErrNameExists
		}
		return model.Service{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Service{}, err
	}
	return scanService(r.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
}

// GetByID returns a catalog entry with its masters.  sql.ErrNoRows when
// the service does not exist.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*ServiceDetail, error) {
	s, err := scanService(r.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	d := ServiceDetail{Service: s, Masters: []MasterSummary{}}
	const q = `SELECT u.id, u.full_name, u.phone
	           FROM master_services ms
	           JOIN users u ON u.id = ms.master_id
	           WHERE ms.service_id = ?
	           ORDER BY u.full_name`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m MasterSummary
		if err := rows.Scan(&m.ID, &m.FullName, &m.Phone); err != nil {
			return nil, err
		}
		d.Masters = append(d.Masters, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns the whole catalog ordered by name, each entry with its
// assigned masters.  Masters are fetched for all services in a single
// IN query rather than one query per row.
func (r *ServiceRepo) List(ctx context.Context) ([]ServiceDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ServiceDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var s model.Service
		var desc sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &desc, &s.CreatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			s.Description = &d
		}
		index[s.ID] = len(details)
		details = append(details, ServiceDetail{Service: s, Masters: []MasterSummary{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	q := `SELECT ms.service_id, u.id, u.full_name, u.phone
	      FROM master_services ms
	      JOIN users u ON u.id = ms.master_id
	      WHERE ms.service_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY ms.service_id, u.full_name`
	mrows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()
	for mrows.Next() {
		var sid uint64
		var m MasterSummary
		if err := mrows.Scan(&sid, &m.ID, &m.FullName, &m.Phone); err != nil {
			return nil, err
		}
		idx, ok := index[sid]
		if !ok {
			continue
		}
		details[idx].Masters = append(details[idx].Masters, m)
	}
	if err := mrows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// Update applies a partial update and returns the refreshed row.
// ErrNoFields when the value object is empty, ErrNameExists on a name
// collision, sql.ErrNoRows when the service does not exist.
func (r *ServiceRepo) Update(ctx context.Context, id uint64, upd ServiceUpdate) (model.Service, error) {
	var sets []string
	var args []interface{}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *upd.Price)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if len(sets) == 0 {
		return model.Service{}, ErrNoFields
	}
	args = append(args, id)
	if _, err := r.db.ExecContext(ctx,
		`UPDATE services SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		if isDuplicateKey(err) {
			return model.Service{}, ErrNameExists
		}
		return model.Service{}, err
	}
	return scanService(r.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
}

// Delete removes a catalog entry; assignments cascade away.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	return err
}
