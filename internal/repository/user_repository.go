package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetix/cinema-booking/internal/model"
)

// UserRepo provides persistence for application users.  It backs both
// the auth endpoints and the reservation manager's user-directory
// lookup.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user and populates the generated ID.  The email
// must be unique; duplicate inserts surface the driver's constraint
// error to the caller.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users (email, password_hash, role) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByID retrieves a user by primary key.  It returns ErrUserNotFound
// when no row exists.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, email, password_hash, role, created_at, updated_at FROM users WHERE id = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail retrieves a user by email address for login.  It returns
// ErrUserNotFound when no row exists.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, email, password_hash, role, created_at, updated_at FROM users WHERE email = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ExistsTx checks within a transaction whether a user with the given ID
// exists.  The reservation manager uses it to validate prerequisites at
// commit time.
func (r *UserRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
