package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

// ErrUserNotFound is returned when no user matches the id.
var ErrUserNotFound = errors.New("user not found")

// UserRepo reads accounts created by the external auth service.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,role FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}
