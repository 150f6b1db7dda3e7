package model

import "time"

// User roles.  CUSTOMER accounts create reservations; ADMIN accounts
// additionally manage the catalog and may cancel any reservation.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  The password hash is a bcrypt digest.  Handlers define
// separate response types with JSON tags; this struct is used by the
// repository layer only.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – CUSTOMER or ADMIN.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
