package model

import "time"

// User represents an application user record as stored in the `users`
// table.  There are no accounts or passwords: users are identified by
// phone number and carry one of three roles.  Operators run shifts and
// take payments, masters are assignable to catalog services, clients are
// plain customers.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Phone     – unique phone number.
//  FullName  – display name.
//  Role      – one of RoleOperator, RoleMaster, RoleClient.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type User struct {
    ID        uint64    `json:"id"`         // users.id
    Phone     string    `json:"phone"`      // users.phone
    FullName  string    `json:"full_name"`  // users.full_name
    Role      string    `json:"role"`       // users.role
    CreatedAt time.Time `json:"created_at"` // users.created_at
    UpdatedAt time.Time `json:"-"`          // users.updated_at
}

// Valid role values for users.role.
const (
    RoleOperator = "operator"
    RoleMaster   = "master"
    RoleClient   = "client"
)

// ValidRole reports whether s is one of the accepted role values.
func ValidRole(s string) bool {
    return s == RoleOperator || s == RoleMaster || s == RoleClient
}
