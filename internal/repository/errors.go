// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver error strings: an absent row surfaces as
// sql.ErrNoRows, a violated state precondition as one of the conflict
// sentinels below, and anything else as a storage fault.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrOpenShiftExists is returned when an operator tries to open a shift
// while one of theirs is still open. The shifts table enforces this with
// a unique key, so the error is raised by the insert itself rather than
// by a separate lookup. Handlers translate it into HTTP 400.
var ErrOpenShiftExists = errors.New("operator already has an open shift")

// ErrShiftClosed is returned when an operation requires an open shift but
// the shift has already been closed. Handlers translate it into HTTP 400.
var ErrShiftClosed = errors.New("shift is already closed")

// ErrPhoneExists is returned when creating a user with a phone number
// that is already registered.
var ErrPhoneExists = errors.New("phone already exists")

// ErrNameExists is returned when creating a service whose name is taken.
var ErrNameExists = errors.New("service name already exists")

// ErrAssignmentExists is returned when a service is assigned to a master
// it is already assigned to.
var ErrAssignmentExists = errors.New("service already assigned to master")

// ErrNoFields is returned by partial updates when the update value object
// carries no fields at all.
var ErrNoFields = errors.New("no fields to update")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error number 1062, unique key violation).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
